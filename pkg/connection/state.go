package connection

import (
	"errors"

	"github.com/halo-device/halo-go/pkg/link"
)

// Connection errors.
var (
	// ErrConnectInProgress is returned by Connect while another Connect runs.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrNoDialer indicates the manager was built without a link dialer.
	ErrNoDialer = errors.New("no link dialer configured")

	// ErrEmptyDescriptor indicates Connect was called with a zero descriptor.
	ErrEmptyDescriptor = errors.New("empty device descriptor")
)

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no usable link.
	StateDisconnected State = iota

	// StateConnecting indicates the open/ready/subscribe sequence is running.
	StateConnecting

	// StateConnected indicates the link is open and inbound frames flow.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Transition describes one state change.
type Transition struct {
	Old        State
	New        State
	Descriptor link.Descriptor
	Reason     string
}

// StateListener is called synchronously on every transition, in order.
// Listeners must not call Connect or Disconnect.
type StateListener func(t Transition)
