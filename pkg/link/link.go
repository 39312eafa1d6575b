package link

import (
	"context"
	"errors"
	"fmt"
)

// Link errors.
var (
	// ErrNotOpen indicates an operation on a link that was never opened.
	ErrNotOpen = errors.New("link not open")

	// ErrClosed indicates the link was closed locally or dropped by the peer.
	ErrClosed = errors.New("link closed")

	// ErrNotReady indicates the peer did not become ready in time.
	ErrNotReady = errors.New("link not ready")
)

// Descriptor identifies a connectable device. Discovery supplies these;
// this module never scans on its own.
type Descriptor struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	DisplayName string `json:"displayName" yaml:"displayName" toml:"display_name"`
	Address     string `json:"address" yaml:"address" toml:"address"`
}

// IsZero reports whether d is the empty descriptor.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

func (d Descriptor) String() string {
	if d.DisplayName != "" {
		return fmt.Sprintf("%s (%s)", d.DisplayName, d.Address)
	}
	return d.Address
}

// NotifyFunc receives one inbound frame. It is called from the link's
// receive goroutine and must not block.
type NotifyFunc func(frame []byte)

// Link is one physical connection to a device.
//
// The connection manager drives a Link through Open, WaitReady and
// Subscribe, in that order, before it is considered usable.
type Link interface {
	// Open establishes the physical connection.
	Open(ctx context.Context) error

	// WaitReady blocks until the peer can accept frames.
	WaitReady(ctx context.Context) error

	// Subscribe starts delivery of inbound frames to fn. The returned
	// function stops delivery.
	Subscribe(fn NotifyFunc) (unsubscribe func() error, err error)

	// Write sends one complete frame.
	Write(ctx context.Context, frame []byte) error

	// Done is closed when the link drops for any reason.
	Done() <-chan struct{}

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Dialer creates an unopened Link for a descriptor.
type Dialer func(desc Descriptor) (Link, error)
