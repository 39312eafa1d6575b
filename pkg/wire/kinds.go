package wire

// Command kinds sent from controller to device.
const (
	KindBrightness      = "BRIGHTNESS"
	KindGetBrightness   = "GET_BRIGHTNESS"
	KindSleepTimeout    = "SLEEP_TIMEOUT"
	KindGetSleepTimeout = "GET_SLEEP_TIMEOUT"
	KindGetStorage      = "GET_STORAGE"
	KindColor           = "COLOR"
	KindEffect          = "EFFECT"
	KindReset           = "RESET"

	// Proxied tag storage (NFC relay).
	KindReadTag  = "READ_TAG"
	KindWriteTag = "WRITE_TAG"
	KindTagAck   = "TAG_ACK"
)

// Response kinds sent from device to controller.
const (
	KindBrightnessGet   = "BRIGHTNESS_GET"
	KindSleepTimeoutSet = "SLEEP_TIMEOUT_SET"
	KindSleepTimeoutGet = "SLEEP_TIMEOUT_GET"
	KindStorageGet      = "STORAGE_GET"
	KindTagRead         = "TAG_READ"
	KindTagWritten      = "TAG_WRITTEN"
)

// Field names used in command params and response fields.
const (
	FieldBrightness = "brightness"
	FieldTimeout    = "timeout"
	FieldColor      = "color"
	FieldEffect     = "effect"
	FieldTotal      = "total"
	FieldUsed       = "used"
	FieldFree       = "free"
	FieldUID        = "uid"
	FieldContent    = "content"
)

// Reserved frame keys. They cannot be used as params or fields.
const (
	KeyCommand = "command"
	KeyMessage = "message"
	KeyStatus  = "status"
	KeyError   = "error"
)
