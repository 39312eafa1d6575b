package fault

import "errors"

// Generic user-facing messages for transport-level failures. Device text is
// never replaced; everything else is mapped to one of these so raw protocol
// internals stay out of the UI.
var userMessages = map[Code]string{
	CodeLinkUnavailable:  "The device is not connected.",
	CodeTimeout:          "The device did not respond in time.",
	CodeValidationFailed: "The value is not valid for this device.",
	CodeDecodeFailed:     "The device sent an unreadable reply.",
	CodeTransport:        "Could not communicate with the device.",
	CodeCanceled:         "The request was cancelled.",
}

const genericMessage = "Something went wrong while talking to the device."

// UserMessage returns the text to show an end user for err.
// Device-reported errors are returned verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if !errors.As(err, &fe) {
		return genericMessage
	}
	if fe.Code == CodeDeviceReported {
		if fe.Message != "" {
			return fe.Message
		}
		return genericMessage
	}
	if msg, ok := userMessages[fe.Code]; ok {
		return msg
	}
	return genericMessage
}
