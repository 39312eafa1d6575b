// Package sim provides an in-memory HALO device that speaks the JSON frame
// protocol over a link.Link.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/wire"
)

// ErrNoTag is the error text sent when no tag is on the reader.
const ErrNoTag = "No tag present"

// Config configures a simulated device.
type Config struct {
	// ReplyDelay is applied to every reply unless overridden in Delays.
	ReplyDelay time.Duration

	// Delays overrides ReplyDelay per response kind.
	Delays map[string]time.Duration

	// Silent lists command kinds the device never answers.
	Silent map[string]bool

	// ErrorReplies forces an error response with the given text for a
	// command kind.
	ErrorReplies map[string]string

	// OpenErr, ReadyErr and SubscribeErr fail the matching connect step.
	OpenErr      error
	ReadyErr     error
	SubscribeErr error

	// StorageTotal is the reported storage capacity in bytes.
	StorageTotal int

	// Tag is the tag initially on the reader. Nil means none.
	Tag *Tag
}

// Tag is a proxied storage token on the device's secondary radio.
type Tag struct {
	UID     string
	Content string
}

// DefaultConfig returns a device that answers everything immediately.
func DefaultConfig() Config {
	return Config{StorageTotal: 4096}
}

// State is the device-side settings snapshot.
type State struct {
	Brightness   int
	SleepTimeout int
	Color        string
	Effect       string
	StorageUsed  int
}

func defaultState() State {
	return State{Brightness: 80, SleepTimeout: 300, Color: "#FFFFFF", Effect: "solid"}
}

// Device is a simulated companion device. It implements link.Link.
type Device struct {
	config Config

	mu       sync.Mutex
	state    State
	tag      *Tag
	notify   link.NotifyFunc
	opened   bool
	closed   bool
	done     chan struct{}
	opens    int
	writes   []*wire.Command
	writeErr error
	nextUID  int
}

// New creates a simulated device.
func New(config Config) *Device {
	d := &Device{
		config: config,
		state:  defaultState(),
		done:   make(chan struct{}),
	}
	if config.Tag != nil {
		t := *config.Tag
		d.tag = &t
	}
	return d
}

// Dialer returns a link.Dialer that always hands out d.
func (d *Device) Dialer() link.Dialer {
	return func(link.Descriptor) (link.Link, error) {
		return d, nil
	}
}

// Open implements link.Link.
func (d *Device) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.config.OpenErr != nil {
		return d.config.OpenErr
	}
	if d.closed {
		// reopen after Close or Drop
		d.closed = false
		d.done = make(chan struct{})
	}
	d.opened = true
	return nil
}

// WaitReady implements link.Link.
func (d *Device) WaitReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.config.ReadyErr
}

// Subscribe implements link.Link.
func (d *Device) Subscribe(fn link.NotifyFunc) (func() error, error) {
	if d.config.SubscribeErr != nil {
		return nil, d.config.SubscribeErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return nil, link.ErrNotOpen
	}
	d.notify = fn
	return func() error {
		d.mu.Lock()
		d.notify = nil
		d.mu.Unlock()
		return nil
	}, nil
}

// Write implements link.Link. The command is decoded and answered
// asynchronously.
func (d *Device) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd, err := wire.DecodeCommand(frame)
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}

	d.mu.Lock()
	if !d.opened || d.closed {
		d.mu.Unlock()
		return link.ErrClosed
	}
	if d.writeErr != nil {
		err := d.writeErr
		d.mu.Unlock()
		return err
	}
	d.writes = append(d.writes, cmd)
	reply := d.handle(cmd)
	d.mu.Unlock()

	if reply != nil {
		d.deliverLater(reply)
	}
	return nil
}

// Done implements link.Link.
func (d *Device) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Close implements link.Link.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdown()
	return nil
}

// Drop simulates the peer going out of range.
func (d *Device) Drop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdown()
}

func (d *Device) shutdown() {
	if d.closed {
		return
	}
	d.closed = true
	d.opened = false
	d.notify = nil
	close(d.done)
}

// Inject delivers a raw frame to the subscriber as if the device sent it.
func (d *Device) Inject(frame []byte) {
	d.mu.Lock()
	fn := d.notify
	d.mu.Unlock()
	if fn != nil {
		fn(frame)
	}
}

// Push sends an unsolicited response.
func (d *Device) Push(resp *wire.Response) error {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		return err
	}
	d.Inject(data)
	return nil
}

// FailWrites makes every subsequent Write return err. Pass nil to clear.
func (d *Device) FailWrites(err error) {
	d.mu.Lock()
	d.writeErr = err
	d.mu.Unlock()
}

// PlaceTag puts a tag on the reader. Nil removes it.
func (d *Device) PlaceTag(t *Tag) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t == nil {
		d.tag = nil
		return
	}
	cp := *t
	d.tag = &cp
}

// Opens returns how many times Open was called.
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Writes returns a copy of every command received.
func (d *Device) Writes() []*wire.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*wire.Command, len(d.writes))
	copy(out, d.writes)
	return out
}

// WriteCount returns the number of commands received.
func (d *Device) WriteCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

// State returns the current device settings.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// handle applies cmd to the device state and builds the reply, if any.
// Must be called with d.mu held.
func (d *Device) handle(cmd *wire.Command) *wire.Response {
	if d.config.Silent[cmd.Kind] {
		return nil
	}
	replyKind := replyKinds[cmd.Kind]
	if text, ok := d.config.ErrorReplies[cmd.Kind]; ok {
		if replyKind == "" {
			return nil
		}
		return &wire.Response{Kind: replyKind, Status: wire.StatusError, Error: text}
	}

	switch cmd.Kind {
	case wire.KindBrightness:
		if v, ok := wire.ToInt64(cmd.Params[wire.FieldBrightness]); ok {
			d.state.Brightness = int(v)
		}
		return nil

	case wire.KindColor:
		if v, ok := cmd.Params[wire.FieldColor].(string); ok {
			d.state.Color = v
		}
		return nil

	case wire.KindEffect:
		if v, ok := cmd.Params[wire.FieldEffect].(string); ok {
			d.state.Effect = v
		}
		return nil

	case wire.KindReset:
		used := d.state.StorageUsed
		d.state = defaultState()
		d.state.StorageUsed = used
		return nil

	case wire.KindTagAck:
		return nil

	case wire.KindGetBrightness:
		return success(replyKind, map[string]any{wire.FieldBrightness: d.state.Brightness})

	case wire.KindSleepTimeout:
		v, ok := wire.ToInt64(cmd.Params[wire.FieldTimeout])
		if !ok || v < 0 || v > 3600 {
			return &wire.Response{Kind: replyKind, Status: wire.StatusError, Error: "Value out of range (0-3600)"}
		}
		d.state.SleepTimeout = int(v)
		return success(replyKind, map[string]any{wire.FieldTimeout: d.state.SleepTimeout})

	case wire.KindGetSleepTimeout:
		return success(replyKind, map[string]any{wire.FieldTimeout: d.state.SleepTimeout})

	case wire.KindGetStorage:
		return success(replyKind, map[string]any{
			wire.FieldTotal: d.config.StorageTotal,
			wire.FieldUsed:  d.state.StorageUsed,
			wire.FieldFree:  d.config.StorageTotal - d.state.StorageUsed,
		})

	case wire.KindReadTag:
		if d.tag == nil {
			return &wire.Response{Kind: replyKind, Status: wire.StatusError, Error: ErrNoTag}
		}
		return success(replyKind, map[string]any{wire.FieldUID: d.tag.UID, wire.FieldContent: d.tag.Content})

	case wire.KindWriteTag:
		content, _ := cmd.Params[wire.FieldContent].(string)
		if d.tag == nil {
			d.nextUID++
			d.tag = &Tag{UID: fmt.Sprintf("04%010X", d.nextUID)}
		}
		d.tag.Content = content
		d.state.StorageUsed += len(content)
		return success(replyKind, map[string]any{wire.FieldUID: d.tag.UID})
	}
	return nil
}

var replyKinds = map[string]string{
	wire.KindGetBrightness:   wire.KindBrightnessGet,
	wire.KindSleepTimeout:    wire.KindSleepTimeoutSet,
	wire.KindGetSleepTimeout: wire.KindSleepTimeoutGet,
	wire.KindGetStorage:      wire.KindStorageGet,
	wire.KindReadTag:         wire.KindTagRead,
	wire.KindWriteTag:        wire.KindTagWritten,
}

func success(kind string, fields map[string]any) *wire.Response {
	return &wire.Response{Kind: kind, Status: wire.StatusSuccess, Fields: fields}
}

func (d *Device) deliverLater(resp *wire.Response) {
	delay := d.config.ReplyDelay
	if v, ok := d.config.Delays[resp.Kind]; ok {
		delay = v
	}
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		return
	}
	if delay <= 0 {
		go d.Inject(data)
		return
	}
	time.AfterFunc(delay, func() { d.Inject(data) })
}

var _ link.Link = (*Device)(nil)
