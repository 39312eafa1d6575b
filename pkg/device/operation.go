package device

import (
	"time"

	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/wire"
)

// Ack is the acknowledgement level an operation reached.
type Ack uint8

const (
	// AckNone means nothing was acknowledged.
	AckNone Ack = iota

	// AckTransport means the link accepted the frame.
	AckTransport

	// AckDevice means the device answered.
	AckDevice

	// AckStored means the value was written to the config store because
	// the link was unavailable.
	AckStored
)

// String returns the ack level name.
func (a Ack) String() string {
	switch a {
	case AckTransport:
		return "transport"
	case AckDevice:
		return "device"
	case AckStored:
		return "stored"
	default:
		return "none"
	}
}

// Operation is a command ready to be issued.
type Operation interface {
	// Command returns the wire command.
	Command() *wire.Command

	// Ack is the level the operation reaches when it succeeds on the link.
	Ack() Ack
}

// Notify is a fire-and-forget operation.
type Notify struct {
	cmd *wire.Command

	// patch is written to the store when the link is unavailable.
	patch configstore.Patch
}

func (n Notify) Command() *wire.Command { return n.cmd }
func (n Notify) Ack() Ack               { return AckTransport }

// Request is an operation that waits for a response of a fixed kind.
type Request struct {
	cmd    *wire.Command
	expect string
	patch  configstore.Patch
}

func (r Request) Command() *wire.Command { return r.cmd }
func (r Request) Ack() Ack               { return AckDevice }

// Expect returns the awaited response kind.
func (r Request) Expect() string { return r.expect }

// Result reports how far a setting command got.
type Result struct {
	Ack Ack

	// Response is set when Ack is AckDevice.
	Response *wire.Response

	// Stored is set when Ack is AckStored.
	Stored *configstore.Config
}

// Option adjusts a single call.
type Option func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

// WithTimeout overrides the response timeout of a Request.
func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) { o.timeout = d }
}
