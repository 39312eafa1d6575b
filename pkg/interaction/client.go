package interaction

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/halo-device/halo-go/pkg/fault"
	"github.com/halo-device/halo-go/pkg/log"
	"github.com/halo-device/halo-go/pkg/wire"
)

// DefaultTimeout is used by SendAndWait when no timeout is given.
const DefaultTimeout = 5 * time.Second

// ErrClientClosed is returned after Close.
var ErrClientClosed = errors.New("client is closed")

// Conn is the link side of a Client. connection.Manager implements it.
type Conn interface {
	// Write sends one encoded frame.
	Write(ctx context.Context, frame []byte) error

	// OnFrame registers a handler for inbound frames.
	OnFrame(fn func(frame []byte)) (unsubscribe func())
}

// Config configures a Client.
type Config struct {
	// DefaultTimeout applies when SendAndWait is called with timeout <= 0.
	DefaultTimeout time.Duration

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// ProtocolLogger receives message and correlation events.
	ProtocolLogger log.Logger
}

// pendingWait is one registered wait for a response kind.
type pendingWait struct {
	expectedKind string
	registered   time.Time
	deadline     time.Time
	ch           chan *wire.Response
}

// Client correlates responses to requests by kind.
//
// The wire format carries no request id, so at most one wait per response
// kind may be registered. SendAndWait callers for the same kind queue on a
// per-kind slot; different kinds proceed concurrently.
type Client struct {
	conn   Conn
	config Config
	logger *slog.Logger
	plog   log.Logger

	mu      sync.Mutex
	pending map[string]*pendingWait
	slots   map[string]chan struct{}
	closed  bool

	// subMu is held for reading while a response is broadcast, so an
	// unsubscribe returns only after any in-flight delivery finished.
	subMu       sync.RWMutex
	subscribers []*Subscription
	nextSubID   uint64

	detach func()
	done   chan struct{}
}

// NewClient creates a client and registers it for conn's inbound frames.
func NewClient(conn Conn, config Config) *Client {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		conn:    conn,
		config:  config,
		logger:  logger,
		plog:    log.OrNoop(config.ProtocolLogger),
		pending: make(map[string]*pendingWait),
		slots:   make(map[string]chan struct{}),
		done:    make(chan struct{}),
	}
	c.detach = conn.OnFrame(c.HandleFrame)
	return c
}

// Close detaches the client from the connection and fails every pending
// wait with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.detach()
	return nil
}

// Pending returns the number of registered waits.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Send encodes cmd and writes it to the link. A nil error means the
// transport accepted the frame; it says nothing about the device.
func (c *Client) Send(ctx context.Context, cmd *wire.Command) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	data, err := wire.EncodeCommand(cmd)
	if err != nil {
		return fault.Wrap(fault.CodeValidationFailed, cmd.Kind, err)
	}
	if err := c.conn.Write(ctx, data); err != nil {
		if fault.CodeOf(err) == fault.CodeNone {
			return fault.Wrap(fault.CodeTransport, cmd.Kind, err)
		}
		return err
	}
	c.logMessage(log.DirectionOut, &log.MessageEvent{
		Type:   log.MessageTypeCommand,
		Kind:   cmd.Kind,
		Fields: cmd.Params,
	})
	return nil
}

// SendAndWait sends cmd and waits for the next response of expectedKind.
//
// The wait is registered before the frame is written and removed on every
// exit path. A response with status "error" resolves the wait and is
// returned as a fault.DeviceReported error. timeout <= 0 selects the
// configured default.
func (c *Client) SendAndWait(ctx context.Context, cmd *wire.Command, expectedKind string, timeout time.Duration) (*wire.Response, error) {
	if expectedKind == "" {
		return nil, fault.New(fault.CodeValidationFailed, cmd.Kind, "no expected response kind")
	}
	if timeout <= 0 {
		timeout = c.config.DefaultTimeout
	}

	release, err := c.acquireSlot(ctx, expectedKind)
	if err != nil {
		return nil, err
	}
	defer release()

	w := &pendingWait{
		expectedKind: expectedKind,
		registered:   time.Now(),
		deadline:     time.Now().Add(timeout),
		ch:           make(chan *wire.Response, 1),
	}
	c.mu.Lock()
	c.pending[expectedKind] = w
	c.mu.Unlock()
	defer c.unregister(w)

	if err := c.Send(ctx, cmd); err != nil {
		c.logCorrelation(w, log.OutcomeSendFailed)
		return nil, err
	}

	timer := time.NewTimer(time.Until(w.deadline))
	defer timer.Stop()

	select {
	case resp := <-w.ch:
		return c.resolved(w, resp)
	case <-timer.C:
		// a response may have landed as the timer fired
		select {
		case resp := <-w.ch:
			return c.resolved(w, resp)
		default:
		}
		c.logCorrelation(w, log.OutcomeTimeout)
		c.logger.Debug("response timed out", "expected", expectedKind, "timeout", timeout)
		return nil, fault.Timeout(expectedKind)
	case <-ctx.Done():
		c.logCorrelation(w, log.OutcomeCanceled)
		return nil, fault.FromContext(expectedKind, ctx.Err())
	case <-c.done:
		c.logCorrelation(w, log.OutcomeCanceled)
		return nil, ErrClientClosed
	}
}

func (c *Client) resolved(w *pendingWait, resp *wire.Response) (*wire.Response, error) {
	c.logCorrelation(w, log.OutcomeResolved)
	if !resp.IsSuccess() {
		return nil, fault.DeviceReported(w.expectedKind, resp.Error)
	}
	return resp, nil
}

// acquireSlot blocks until no other SendAndWait for kind is in flight.
func (c *Client) acquireSlot(ctx context.Context, kind string) (func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	slot, ok := c.slots[kind]
	if !ok {
		slot = make(chan struct{}, 1)
		c.slots[kind] = slot
	}
	c.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, fault.FromContext(kind, ctx.Err())
	case <-c.done:
		return nil, ErrClientClosed
	}
}

// unregister removes w if it is still the registered wait for its kind.
func (c *Client) unregister(w *pendingWait) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[w.expectedKind] == w {
		delete(c.pending, w.expectedKind)
	}
}

// HandleFrame decodes one inbound frame, resolves the matching wait and
// broadcasts the response. Frames that fail to decode are logged and
// dropped.
func (c *Client) HandleFrame(frame []byte) {
	resp, err := wire.DecodeResponse(frame)
	if err != nil {
		c.logger.Debug("dropping undecodable frame", "error", err, "size", len(frame))
		c.plog.Log(log.Event{
			Timestamp: time.Now(),
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerWire,
				Message: err.Error(),
				Code:    fault.CodeDecodeFailed.String(),
				Context: "decode response",
			},
		})
		return
	}
	c.HandleResponse(resp)
}

// HandleResponse resolves the wait registered for resp.Kind, if any, then
// publishes resp to every matching subscriber.
func (c *Client) HandleResponse(resp *wire.Response) {
	c.logMessage(log.DirectionIn, &log.MessageEvent{
		Type:      log.MessageTypeResponse,
		Kind:      resp.Kind,
		Status:    string(resp.Status),
		ErrorText: resp.Error,
		Fields:    resp.Fields,
	})

	c.mu.Lock()
	w, ok := c.pending[resp.Kind]
	if ok {
		delete(c.pending, resp.Kind)
		w.ch <- resp
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("no wait registered for response", "kind", resp.Kind)
		c.logCorrelation(&pendingWait{expectedKind: resp.Kind, registered: time.Now()}, log.OutcomeDiscarded)
	}

	c.broadcast(resp)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) logMessage(dir log.Direction, msg *log.MessageEvent) {
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message:   msg,
	})
}

func (c *Client) logCorrelation(w *pendingWait, outcome log.Outcome) {
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryCorrelation,
		Correlation: &log.CorrelationEvent{
			ExpectedKind: w.expectedKind,
			Outcome:      outcome,
			Elapsed:      time.Since(w.registered),
		},
	})
}
