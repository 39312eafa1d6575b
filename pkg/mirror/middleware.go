package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/connection"
	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/log"
	"github.com/halo-device/halo-go/pkg/wire"
)

// Defaults.
const (
	DefaultQueueSize     = 32
	DefaultUpdateTimeout = 10 * time.Second
)

// Mirror errors.
var (
	ErrQueueFull  = errors.New("mirror queue full")
	ErrStorePanic = errors.New("config store panicked")
)

// Broadcaster is the correlator's broadcast stream. interaction.Client
// implements it.
type Broadcaster interface {
	Subscribe(fn func(*wire.Response), kinds ...string) (unsubscribe func())
}

// ConnectionSource reports connection state. connection.Manager
// implements it.
type ConnectionSource interface {
	IsConnected() bool
	Descriptor() link.Descriptor
	OnStateChange(fn connection.StateListener) (unsubscribe func())
}

// Update is one store write derived from a response.
type Update struct {
	DeviceID string
	Identity string
	Kind     string
	Patch    configstore.Patch
}

// Config configures a Middleware.
type Config struct {
	// Store receives the updates. Required.
	Store configstore.Store

	// QueueSize bounds pending updates. Defaults to DefaultQueueSize.
	QueueSize int

	// UpdateTimeout bounds each store call. Defaults to DefaultUpdateTimeout.
	UpdateTimeout time.Duration

	// OnSuccess and OnFailure are called from the worker goroutine, except
	// for ErrQueueFull which is reported on the broadcast path.
	OnSuccess func(u Update, cfg configstore.Config)
	OnFailure func(u Update, err error)

	Logger         *slog.Logger
	ProtocolLogger log.Logger
}

// subscription is the live broadcast subscription for one device/identity
// pair.
type subscription struct {
	deviceID    string
	identity    string
	unsubscribe func()
}

// Middleware mirrors syncable responses into a config store.
type Middleware struct {
	stream Broadcaster
	config Config
	logger *slog.Logger
	plog   log.Logger

	mu       sync.Mutex
	deviceID string
	identity string
	linkID   string // id of the connected device, "" while disconnected
	sub      *subscription
	closed   bool

	detach func()
	queue  chan Update
	stop   chan struct{}
	done   chan struct{}
}

// New creates a middleware and starts its worker. It follows conn's state
// changes until Close.
func New(stream Broadcaster, conn ConnectionSource, config Config) *Middleware {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = DefaultUpdateTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Middleware{
		stream: stream,
		config: config,
		logger: logger,
		plog:   log.OrNoop(config.ProtocolLogger),
		queue:  make(chan Update, config.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	if conn.IsConnected() {
		m.linkID = conn.Descriptor().ID
	}
	m.mu.Unlock()
	m.detach = conn.OnStateChange(m.onStateChange)

	go m.worker()
	return m
}

// SetDevice sets the bound device id ("" clears it).
func (m *Middleware) SetDevice(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceID = deviceID
	m.reevaluate("device changed")
}

// SetIdentity sets the external identity ("" clears it).
func (m *Middleware) SetIdentity(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = identity
	m.reevaluate("identity changed")
}

// Active reports whether a subscription is live.
func (m *Middleware) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub != nil
}

// Close tears down the subscription, stops following the connection and
// stops the worker. Updates still queued are dropped.
func (m *Middleware) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.deactivate("closed")
	m.mu.Unlock()

	m.detach()
	close(m.stop)
	<-m.done
}

func (m *Middleware) onStateChange(t connection.Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkID = ""
	if t.New == connection.StateConnected {
		m.linkID = t.Descriptor.ID
	}
	m.reevaluate("connection " + t.New.String())
}

// reevaluate brings the subscription in line with the activation
// predicate. The bound device must be the one on the live link. Must be
// called with m.mu held.
func (m *Middleware) reevaluate(reason string) {
	want := !m.closed && m.deviceID != "" && m.identity != "" && m.deviceID == m.linkID

	if m.sub != nil {
		if want && m.sub.deviceID == m.deviceID && m.sub.identity == m.identity {
			return
		}
		m.deactivate(reason)
	}
	if want {
		m.activate(reason)
	}
}

// activate subscribes for the current pair. Must be called with m.mu held.
func (m *Middleware) activate(reason string) {
	deviceID, identity := m.deviceID, m.identity
	unsubscribe := m.stream.Subscribe(func(resp *wire.Response) {
		m.enqueue(deviceID, identity, resp)
	}, SyncableKinds...)
	m.sub = &subscription{deviceID: deviceID, identity: identity, unsubscribe: unsubscribe}

	m.logger.Info("mirror active", "device", deviceID, "identity", identity)
	m.logState(deviceID, "inactive", "active", reason)
}

// deactivate drops the live subscription. Must be called with m.mu held.
func (m *Middleware) deactivate(reason string) {
	if m.sub == nil {
		return
	}
	sub := m.sub
	m.sub = nil
	m.unsubscribeQuietly(sub)

	m.logger.Info("mirror inactive", "device", sub.deviceID, "reason", reason)
	m.logState(sub.deviceID, "active", "inactive", reason)
}

func (m *Middleware) unsubscribeQuietly(sub *subscription) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("unsubscribe panicked", "device", sub.deviceID, "panic", fmt.Sprint(r))
		}
	}()
	sub.unsubscribe()
}

// enqueue runs on the broadcast path and never blocks.
func (m *Middleware) enqueue(deviceID, identity string, resp *wire.Response) {
	patch, ok := PatchFor(resp)
	if !ok {
		m.logger.Debug("response not mirrored", "kind", resp.Kind, "status", resp.Status)
		return
	}
	u := Update{DeviceID: deviceID, Identity: identity, Kind: resp.Kind, Patch: patch}
	select {
	case m.queue <- u:
	default:
		m.logger.Warn("mirror queue full, update dropped", "kind", resp.Kind, "device", deviceID)
		m.fail(u, ErrQueueFull)
	}
}

func (m *Middleware) worker() {
	defer close(m.done)
	for {
		select {
		case u := <-m.queue:
			m.apply(u)
		case <-m.stop:
			return
		}
	}
}

func (m *Middleware) apply(u Update) {
	cfg, err := m.callStore(u)
	if err != nil {
		m.logger.Warn("mirror update failed", "kind", u.Kind, "device", u.DeviceID, "error", err)
		m.fail(u, err)
		return
	}
	m.logger.Debug("mirror update stored", "kind", u.Kind, "device", u.DeviceID)
	if m.config.OnSuccess != nil {
		m.callback(func() { m.config.OnSuccess(u, cfg) })
	}
}

func (m *Middleware) callStore(u Update) (cfg configstore.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStorePanic, r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), m.config.UpdateTimeout)
	defer cancel()
	return m.config.Store.UpdateDeviceConfig(ctx, u.DeviceID, u.Patch, u.Identity)
}

func (m *Middleware) fail(u Update, err error) {
	m.plog.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		DeviceID:  u.DeviceID,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Context: "mirror " + u.Kind,
		},
	})
	if m.config.OnFailure != nil {
		m.callback(func() { m.config.OnFailure(u, err) })
	}
}

func (m *Middleware) callback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("mirror callback panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

func (m *Middleware) logState(deviceID, from, to, reason string) {
	m.plog.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		DeviceID:  deviceID,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySync,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}
