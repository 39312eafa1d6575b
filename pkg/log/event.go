package log

import (
	"time"
)

// MaxFrameDataSize caps the raw bytes kept in a FrameEvent.
const MaxFrameDataSize = 512

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies one connect..disconnect cycle (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Address is the link address (BLE MAC, serial port, sim name).
	Address string `cbor:"6,keyasint,omitempty"`

	// DeviceID is the companion device identifier.
	DeviceID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Link layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection/sync/tag state
	Correlation *CorrelationEvent `cbor:"13,keyasint,omitempty"` // Pending wait outcome
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a frame from the device.
	DirectionIn Direction = 0
	// DirectionOut indicates a frame to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerLink is the byte link (GATT characteristic, serial line).
	LayerLink Layer = 0
	// LayerWire is the frame encoding layer (decoded JSON).
	LayerWire Layer = 1
	// LayerService is the command/sync layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerLink:
		return "LINK"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a command or response frame.
	CategoryMessage Category = 0
	// CategoryCorrelation indicates the end of a pending wait.
	CategoryCorrelation Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryCorrelation:
		return "CORRELATION"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the link layer.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent copies data into a FrameEvent, truncating at MaxFrameDataSize.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data)}
	n := len(data)
	if n > MaxFrameDataSize {
		n = MaxFrameDataSize
		fe.Truncated = true
	}
	fe.Data = make([]byte, n)
	copy(fe.Data, data[:n])
	return fe
}

// MessageEvent captures a decoded frame at the wire layer.
type MessageEvent struct {
	// Type distinguishes command from response.
	Type MessageType `cbor:"1,keyasint"`

	// Kind is the command or response kind string.
	Kind string `cbor:"2,keyasint"`

	// Status is "success" or "error" (responses only).
	Status string `cbor:"3,keyasint,omitempty"`

	// ErrorText is the device-supplied error text.
	ErrorText string `cbor:"4,keyasint,omitempty"`

	// Fields holds the non-reserved keys of the frame.
	Fields map[string]any `cbor:"5,keyasint,omitempty"`
}

// MessageType distinguishes commands from responses.
type MessageType uint8

const (
	// MessageTypeCommand indicates a controller-to-device frame.
	MessageTypeCommand MessageType = 0
	// MessageTypeResponse indicates a device-to-controller frame.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeCommand:
		return "COMMAND"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection, sync and tag lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntitySync indicates the mirror was activated or deactivated.
	StateEntitySync StateEntity = 1
	// StateEntityTag indicates a tag read/write phase change.
	StateEntityTag StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySync:
		return "SYNC"
	case StateEntityTag:
		return "TAG"
	default:
		return "UNKNOWN"
	}
}

// CorrelationEvent records how a pending wait ended.
type CorrelationEvent struct {
	// ExpectedKind is the response kind that was awaited.
	ExpectedKind string `cbor:"1,keyasint"`

	// Outcome is how the wait ended.
	Outcome Outcome `cbor:"2,keyasint"`

	// Elapsed is the time from registration to completion.
	Elapsed time.Duration `cbor:"3,keyasint"`
}

// Outcome is the terminal state of a pending wait.
type Outcome uint8

const (
	OutcomeResolved   Outcome = 0
	OutcomeTimeout    Outcome = 1
	OutcomeSendFailed Outcome = 2
	OutcomeCanceled   Outcome = 3
	OutcomeDiscarded  Outcome = 4
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "RESOLVED"
	case OutcomeTimeout:
		return "TIMEOUT"
	case OutcomeSendFailed:
		return "SEND_FAILED"
	case OutcomeCanceled:
		return "CANCELED"
	case OutcomeDiscarded:
		return "DISCARDED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the fault code name, if the error carried one.
	Code string `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
