package wire

import "fmt"

// Status is the outcome reported by the device in every response frame.
type Status string

const (
	// StatusSuccess indicates the device applied or answered the command.
	StatusSuccess Status = "success"

	// StatusError indicates the device rejected the command. The response
	// carries the device's explanation in its error field.
	StatusError Status = "error"
)

// IsValid returns true if the status is one the device may send.
func (s Status) IsValid() bool {
	return s == StatusSuccess || s == StatusError
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%q)", string(s))
	}
}
