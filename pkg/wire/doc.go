// Package wire defines the text frame format spoken between a HALO
// controller and its companion device.
//
// Every frame is a single UTF-8 JSON object. The link carries no request
// identifier; the kind string is the only correlation key.
//
// # Frames
//
// Commands (controller to device) carry their kind under "command":
//
//	{"command": "BRIGHTNESS", "brightness": 60}
//
// Responses (device to controller) carry their kind under "message" and a
// mandatory status:
//
//	{"message": "BRIGHTNESS_GET", "status": "success", "brightness": 60}
//	{"message": "SLEEP_TIMEOUT_SET", "status": "error", "error": "out of range"}
//
// DecodeResponse rejects frames without a kind or status, or whose error is
// not text, instead of inferring them.
package wire
