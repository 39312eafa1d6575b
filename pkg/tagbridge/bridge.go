package tagbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/device"
	"github.com/halo-device/halo-go/pkg/log"
)

// Bridge errors.
var (
	ErrBusy       = errors.New("tag operation already in progress")
	ErrNoRegistry = errors.New("no tag registry configured")
)

// Tags is the device side of the bridge. device.Device implements it.
type Tags interface {
	ReadTag(ctx context.Context, opts ...device.Option) (uid, content string, err error)
	WriteTag(ctx context.Context, content string, opts ...device.Option) (string, error)
	AckTag(ctx context.Context) error
}

// Config configures a Bridge.
type Config struct {
	// Registry records writes. Required for Write.
	Registry configstore.TagRegistry

	// Timeout bounds each device round trip (0 = façade default). Tag
	// radios are slow; the CLI uses 10s.
	Timeout time.Duration

	Logger         *slog.Logger
	ProtocolLogger log.Logger
}

// ReadResult is the outcome of a successful read.
type ReadResult struct {
	UID     string
	Content string
}

// Bridge runs one tag operation at a time.
type Bridge struct {
	tags   Tags
	config Config
	logger *slog.Logger
	plog   log.Logger
	busy   atomic.Bool
}

// New creates a bridge over tags.
func New(tags Tags, config Config) *Bridge {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{
		tags:   tags,
		config: config,
		logger: logger,
		plog:   log.OrNoop(config.ProtocolLogger),
	}
}

// Busy reports whether an operation is running.
func (b *Bridge) Busy() bool {
	return b.busy.Load()
}

// Read reads the tag currently on the relay and acknowledges it.
func (b *Bridge) Read(ctx context.Context, sink ProgressSink) (ReadResult, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return ReadResult{}, ErrBusy
	}
	defer b.busy.Store(false)

	op := b.start(sink)

	op.move(PhaseReading, "reading tag")
	uid, content, err := b.tags.ReadTag(ctx, b.opts()...)
	if err != nil {
		return ReadResult{}, op.fail(err)
	}
	if err := b.tags.AckTag(ctx); err != nil {
		return ReadResult{}, op.fail(fmt.Errorf("acknowledge: %w", err))
	}
	op.move(PhaseRead, "read tag "+uid)
	return ReadResult{UID: uid, Content: content}, nil
}

// Write writes content to the tag on the relay on behalf of deviceID.
//
// A pending record is created before the tag is touched and marked written
// with the tag uid afterwards. See the package documentation for what an
// error leaves behind.
func (b *Bridge) Write(ctx context.Context, deviceID, content string, sink ProgressSink) (configstore.TagRecord, error) {
	if b.config.Registry == nil {
		return configstore.TagRecord{}, ErrNoRegistry
	}
	if err := device.ValidateTagContent(content); err != nil {
		return configstore.TagRecord{}, err
	}
	if !b.busy.CompareAndSwap(false, true) {
		return configstore.TagRecord{}, ErrBusy
	}
	defer b.busy.Store(false)

	op := b.start(sink)

	op.move(PhaseCreating, "creating tag record")
	rec, err := b.config.Registry.CreateTag(ctx, deviceID, content)
	if err != nil {
		return configstore.TagRecord{}, op.fail(fmt.Errorf("create record: %w", err))
	}

	op.move(PhaseWriting, "writing tag")
	uid, err := b.tags.WriteTag(ctx, content, b.opts()...)
	if err != nil {
		return rec, op.fail(err)
	}

	op.move(PhaseUpdating, "updating record "+rec.ID)
	written, err := b.config.Registry.MarkTagWritten(ctx, rec.ID, uid)
	if err != nil {
		return rec, op.fail(fmt.Errorf("mark written: %w", err))
	}
	if err := b.tags.AckTag(ctx); err != nil {
		return written, op.fail(fmt.Errorf("acknowledge: %w", err))
	}

	op.move(PhaseWritten, "wrote tag "+uid)
	return written, nil
}

func (b *Bridge) opts() []device.Option {
	if b.config.Timeout <= 0 {
		return nil
	}
	return []device.Option{device.WithTimeout(b.config.Timeout)}
}

func (b *Bridge) start(sink ProgressSink) *operation {
	return &operation{bridge: b, phase: PhaseIdle, sink: sink}
}

// operation is one read or write sequence.
type operation struct {
	bridge *Bridge
	phase  Phase
	sink   ProgressSink
}

func (o *operation) move(to Phase, message string) {
	if !canMove(o.phase, to) {
		panic(fmt.Sprintf("tagbridge: invalid transition %s -> %s", o.phase, to))
	}
	from := o.phase
	o.phase = to

	o.bridge.logger.Debug("tag phase", "from", from, "to", to, "message", message)
	o.bridge.plog.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityTag,
			OldState: string(from),
			NewState: string(to),
			Reason:   message,
		},
	})
	if o.sink != nil {
		o.sink(to, message)
	}
}

func (o *operation) fail(err error) error {
	failed := o.phase
	o.move(PhaseError, err.Error())
	o.bridge.logger.Warn("tag operation failed", "phase", failed, "error", err)
	return &OpError{Phase: failed, Err: err}
}

// OpError reports the phase an operation failed in.
type OpError struct {
	Phase Phase
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("tag %s: %v", e.Phase, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
