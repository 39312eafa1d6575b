package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/halo-device/halo-go/pkg/fault"
	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/log"
)

// Reasons attached to transitions.
const (
	ReasonConnectRequested    = "connect requested"
	ReasonConnected           = "link ready"
	ReasonDisconnectRequested = "disconnect requested"
	ReasonSwitchingDevice     = "switching device"
	ReasonLinkLost            = "link lost"
)

// DefaultConnectTimeout bounds the open/ready/subscribe sequence when the
// caller's context has no deadline.
const DefaultConnectTimeout = 20 * time.Second

// Config configures a Manager.
type Config struct {
	// Dialer creates links for descriptors. Required.
	Dialer link.Dialer

	// ConnectTimeout applies when the Connect context has no deadline.
	ConnectTimeout time.Duration

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// ProtocolLogger receives frame and state events.
	ProtocolLogger log.Logger
}

// Manager owns the single link to one device.
//
// Connect and Disconnect are serialized. Write and the inbound frame path
// never wait on them.
type Manager struct {
	config Config
	logger *slog.Logger
	plog   log.Logger

	// opMu serializes Connect, Disconnect and link-loss cleanup.
	opMu sync.Mutex

	mu          sync.RWMutex
	state       State
	desc        link.Descriptor
	link        link.Link
	unsubscribe func() error
	connID      string
	connecting  bool
	stopWatch   chan struct{}

	listenerMu sync.RWMutex
	listeners  []registered[StateListener]
	handlers   []registered[func([]byte)]
	nextID     uint64

	writeMu sync.Mutex
}

// NewManager creates a disconnected manager.
func NewManager(config Config) *Manager {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		config: config,
		logger: logger,
		plog:   log.OrNoop(config.ProtocolLogger),
		state:  StateDisconnected,
	}
}

type registered[F any] struct {
	id uint64
	fn F
}

func remove[F any](list []registered[F], id uint64) []registered[F] {
	out := list[:0:0]
	for _, r := range list {
		if r.id != id {
			out = append(out, r)
		}
	}
	return out
}

func snapshot[F any](list []registered[F]) []F {
	out := make([]F, len(list))
	for i, r := range list {
		out[i] = r.fn
	}
	return out
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports whether the link is usable.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Descriptor returns the bound device, or the zero descriptor.
func (m *Manager) Descriptor() link.Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.desc
}

// ConnectionID returns the id of the current connect cycle, or "".
func (m *Manager) ConnectionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connID
}

// OnStateChange registers a listener and returns a function that removes it.
func (m *Manager) OnStateChange(fn StateListener) (unsubscribe func()) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, registered[StateListener]{id, fn})
	return func() {
		m.listenerMu.Lock()
		m.listeners = remove(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

// OnFrame registers a handler for inbound frames and returns a function
// that removes it.
func (m *Manager) OnFrame(fn func(frame []byte)) (unsubscribe func()) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	id := m.nextID
	m.nextID++
	m.handlers = append(m.handlers, registered[func([]byte)]{id, fn})
	return func() {
		m.listenerMu.Lock()
		m.handlers = remove(m.handlers, id)
		m.listenerMu.Unlock()
	}
}

// Connect binds the manager to desc.
//
// It returns nil immediately if already connected to desc. Connecting to a
// different device disconnects the current one first. The link is opened,
// waited on until ready, and subscribed before the state becomes
// Connected; any failure leaves the manager Disconnected with nothing
// subscribed. Connect never retries.
func (m *Manager) Connect(ctx context.Context, desc link.Descriptor) error {
	if desc.IsZero() {
		return fault.New(fault.CodeValidationFailed, "connect", ErrEmptyDescriptor.Error())
	}
	if m.config.Dialer == nil {
		return ErrNoDialer
	}

	m.mu.Lock()
	if m.connecting {
		m.mu.Unlock()
		return ErrConnectInProgress
	}
	if m.state == StateConnected && m.desc == desc {
		m.mu.Unlock()
		return nil
	}
	m.connecting = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
	}()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State() == StateConnected {
		m.teardown(ReasonSwitchingDevice)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ConnectTimeout)
		defer cancel()
	}

	m.setState(StateConnecting, desc, ReasonConnectRequested)
	connID := uuid.NewString()

	l, unsubscribe, err := m.establish(ctx, desc, connID)
	if err != nil {
		m.logger.Warn("connect failed", "device", desc.String(), "error", err)
		m.mu.Lock()
		m.desc = link.Descriptor{}
		m.mu.Unlock()
		m.setState(StateDisconnected, desc, err.Error())
		return err
	}

	stop := make(chan struct{})
	m.mu.Lock()
	m.link = l
	m.unsubscribe = unsubscribe
	m.connID = connID
	m.stopWatch = stop
	m.mu.Unlock()

	m.setState(StateConnected, desc, ReasonConnected)
	m.logger.Info("connected", "device", desc.String(), "conn_id", connID)

	go m.watch(l, stop)
	return nil
}

// establish runs open, ready and subscribe. On failure everything it set
// up is torn down before returning.
func (m *Manager) establish(ctx context.Context, desc link.Descriptor, connID string) (link.Link, func() error, error) {
	l, err := m.config.Dialer(desc)
	if err != nil {
		return nil, nil, fault.Wrap(fault.CodeTransport, "dial", err)
	}

	if err := l.Open(ctx); err != nil {
		m.closeQuietly(l)
		return nil, nil, stepError(ctx, "open", err)
	}
	if err := l.WaitReady(ctx); err != nil {
		m.closeQuietly(l)
		return nil, nil, stepError(ctx, "wait ready", err)
	}

	unsubscribe, err := l.Subscribe(m.inbound(connID, desc))
	if err != nil {
		m.closeQuietly(l)
		return nil, nil, stepError(ctx, "subscribe", err)
	}

	// The link may have dropped between the steps.
	select {
	case <-l.Done():
		m.unsubscribeQuietly(unsubscribe)
		m.closeQuietly(l)
		return nil, nil, fault.Wrap(fault.CodeTransport, "connect", link.ErrClosed)
	default:
	}
	return l, unsubscribe, nil
}

func stepError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fault.FromContext(op, ctx.Err())
	}
	return fault.Wrap(fault.CodeTransport, op, err)
}

// inbound returns the notify callback for one connect cycle.
func (m *Manager) inbound(connID string, desc link.Descriptor) link.NotifyFunc {
	return func(frame []byte) {
		m.plog.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerLink,
			Category:     log.CategoryMessage,
			Address:      desc.Address,
			DeviceID:     desc.ID,
			Frame:        log.NewFrameEvent(frame),
		})

		m.listenerMu.RLock()
		handlers := snapshot(m.handlers)
		m.listenerMu.RUnlock()

		for _, h := range handlers {
			h(frame)
		}
	}
}

// Write sends one frame on the current link.
func (m *Manager) Write(ctx context.Context, frame []byte) error {
	m.mu.RLock()
	l, state, connID, desc := m.link, m.state, m.connID, m.desc
	m.mu.RUnlock()
	if state != StateConnected || l == nil {
		return fault.LinkUnavailable("write")
	}

	m.writeMu.Lock()
	err := l.Write(ctx, frame)
	m.writeMu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return fault.FromContext("write", ctx.Err())
		}
		if errors.Is(err, link.ErrClosed) || errors.Is(err, link.ErrNotOpen) {
			return fault.Wrap(fault.CodeLinkUnavailable, "write", err)
		}
		return fault.Wrap(fault.CodeTransport, "write", err)
	}

	m.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerLink,
		Category:     log.CategoryMessage,
		Address:      desc.Address,
		DeviceID:     desc.ID,
		Frame:        log.NewFrameEvent(frame),
	})
	return nil
}

// Disconnect tears down the current link. It always leaves the manager
// Disconnected; teardown errors are logged, not returned.
func (m *Manager) Disconnect() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.teardown(ReasonDisconnectRequested)
}

// watch waits for the link to drop on its own.
func (m *Manager) watch(l link.Link, stop chan struct{}) {
	select {
	case <-stop:
		return
	case <-l.Done():
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	current := m.link
	m.mu.RUnlock()
	if current != l {
		return
	}
	m.logger.Warn("link lost", "device", m.Descriptor().String())
	m.teardown(ReasonLinkLost)
}

// teardown releases the current link. Must be called with opMu held.
func (m *Manager) teardown(reason string) {
	m.mu.Lock()
	if m.state == StateDisconnected && m.link == nil {
		m.mu.Unlock()
		return
	}
	l, unsubscribe, desc, stop := m.link, m.unsubscribe, m.desc, m.stopWatch
	m.link = nil
	m.unsubscribe = nil
	m.stopWatch = nil
	m.desc = link.Descriptor{}
	m.connID = ""
	m.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if unsubscribe != nil {
		m.unsubscribeQuietly(unsubscribe)
	}
	if l != nil {
		m.closeQuietly(l)
	}
	m.setState(StateDisconnected, desc, reason)
}

func (m *Manager) closeQuietly(l link.Link) {
	if err := l.Close(); err != nil {
		m.logger.Warn("link close failed", "error", err)
	}
}

func (m *Manager) unsubscribeQuietly(unsubscribe func() error) {
	if err := unsubscribe(); err != nil {
		m.logger.Warn("notification unsubscribe failed", "error", err)
	}
}

// setState records a transition and notifies listeners in registration
// order. Called only with opMu held, so transitions arrive in order.
func (m *Manager) setState(newState State, desc link.Descriptor, reason string) {
	m.mu.Lock()
	old := m.state
	m.state = newState
	if newState != StateDisconnected {
		m.desc = desc
	}
	connID := m.connID
	m.mu.Unlock()

	if old == newState {
		return
	}

	m.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerService,
		Category:     log.CategoryState,
		Address:      desc.Address,
		DeviceID:     desc.ID,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: old.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})

	m.listenerMu.RLock()
	listeners := snapshot(m.listeners)
	m.listenerMu.RUnlock()

	t := Transition{Old: old, New: newState, Descriptor: desc, Reason: reason}
	for _, fn := range listeners {
		fn(t)
	}
}
