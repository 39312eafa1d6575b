package device

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/fault"
	"github.com/halo-device/halo-go/pkg/wire"
)

// DefaultTimeout is the response timeout of a Request.
const DefaultTimeout = 5 * time.Second

// Capability sends commands to the device. interaction.Client
// implements it.
type Capability interface {
	Send(ctx context.Context, cmd *wire.Command) error
	SendAndWait(ctx context.Context, cmd *wire.Command, expectedKind string, timeout time.Duration) (*wire.Response, error)
}

// LinkState reports whether the link is usable. connection.Manager
// implements it.
type LinkState interface {
	IsConnected() bool
}

// Config configures a Device.
type Config struct {
	// Model selects the command table. Defaults to ModelHalo.
	Model Model

	// Timeout is the default response timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Store is the optional fallback write path.
	Store configstore.Store

	// DeviceID and Identity bind the device for store writes. Both can be
	// changed later with Bind.
	DeviceID string
	Identity string

	Logger *slog.Logger
}

// Device is the command façade for one HALO device.
type Device struct {
	conn   Capability
	link   LinkState
	model  Model
	table  *commandTable
	config Config
	logger *slog.Logger

	mu       sync.RWMutex
	deviceID string
	identity string
}

// New creates a façade over conn. link may be nil, in which case the link
// is assumed usable and the fallback path is never taken.
func New(conn Capability, link LinkState, config Config) *Device {
	if config.Model == nil {
		config.Model = ModelHalo{}
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Device{
		conn:     conn,
		link:     link,
		model:    config.Model,
		table:    config.Model.commands(),
		config:   config,
		logger:   logger,
		deviceID: config.DeviceID,
		identity: config.Identity,
	}
}

// Model returns the device model.
func (d *Device) Model() Model {
	return d.model
}

// Bind sets the device id and external identity used for store writes.
func (d *Device) Bind(deviceID, identity string) {
	d.mu.Lock()
	d.deviceID, d.identity = deviceID, identity
	d.mu.Unlock()
}

// Binding returns the current device id and identity.
func (d *Device) Binding() (deviceID, identity string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.deviceID, d.identity
}

// SetBrightness sets the LED brightness in percent (10-100). It is
// fire-and-forget and reports AckTransport.
func (d *Device) SetBrightness(ctx context.Context, percent int) (Result, error) {
	op, err := d.table.setBrightness(percent)
	if err != nil {
		return Result{}, err
	}
	return d.notify(ctx, op)
}

// GetBrightness reads the brightness in percent.
func (d *Device) GetBrightness(ctx context.Context, opts ...Option) (int, error) {
	resp, err := d.query(ctx, d.table.getBrightness, opts)
	if err != nil {
		return 0, err
	}
	return intField(resp, wire.FieldBrightness)
}

// SetSleepTimeout sets the sleep timeout in seconds (0 for never, or
// 30-3600). It waits for the device to confirm and reports AckDevice.
func (d *Device) SetSleepTimeout(ctx context.Context, seconds int, opts ...Option) (Result, error) {
	op, err := d.table.setSleepTimeout(seconds)
	if err != nil {
		return Result{}, err
	}
	return d.request(ctx, op, opts)
}

// GetSleepTimeout reads the sleep timeout in seconds.
func (d *Device) GetSleepTimeout(ctx context.Context, opts ...Option) (int, error) {
	resp, err := d.query(ctx, d.table.getSleepTimeout, opts)
	if err != nil {
		return 0, err
	}
	return intField(resp, wire.FieldTimeout)
}

// GetStorage reads the device's storage usage.
func (d *Device) GetStorage(ctx context.Context, opts ...Option) (configstore.Storage, error) {
	resp, err := d.query(ctx, d.table.getStorage, opts)
	if err != nil {
		return configstore.Storage{}, err
	}
	var s configstore.Storage
	for name, dst := range map[string]*int{wire.FieldTotal: &s.Total, wire.FieldUsed: &s.Used, wire.FieldFree: &s.Free} {
		v, err := intField(resp, name)
		if err != nil {
			return configstore.Storage{}, err
		}
		*dst = v
	}
	return s, nil
}

// SetColor applies a #RRGGBB color.
func (d *Device) SetColor(ctx context.Context, hex string) (Result, error) {
	op, err := d.table.setColor(hex)
	if err != nil {
		return Result{}, err
	}
	return d.notify(ctx, op)
}

// SetEffect selects a light effect from the model's effect list.
func (d *Device) SetEffect(ctx context.Context, name string) (Result, error) {
	op, err := d.table.setEffect(name)
	if err != nil {
		return Result{}, err
	}
	return d.notify(ctx, op)
}

// Reset restores the device's default settings.
func (d *Device) Reset(ctx context.Context) (Result, error) {
	op, err := d.table.reset()
	if err != nil {
		return Result{}, err
	}
	return d.notify(ctx, op)
}

// ReadTag reads the tag on the device's relay.
func (d *Device) ReadTag(ctx context.Context, opts ...Option) (uid, content string, err error) {
	resp, err := d.query(ctx, d.table.readTag, opts)
	if err != nil {
		return "", "", err
	}
	uid, err = stringField(resp, wire.FieldUID)
	if err != nil {
		return "", "", err
	}
	content, _ = resp.String(wire.FieldContent)
	return uid, content, nil
}

// WriteTag writes content to the tag on the relay and returns its uid.
func (d *Device) WriteTag(ctx context.Context, content string, opts ...Option) (string, error) {
	op, err := d.table.writeTag(content)
	if err != nil {
		return "", err
	}
	if err := d.linkUp(op); err != nil {
		return "", err
	}
	resp, err := d.conn.SendAndWait(ctx, op.cmd, op.expect, d.timeout(opts))
	if err != nil {
		return "", err
	}
	return stringField(resp, wire.FieldUID)
}

// AckTag acknowledges a completed tag operation.
func (d *Device) AckTag(ctx context.Context) error {
	op, err := d.table.ackTag()
	if err != nil {
		return err
	}
	if err := d.linkUp(op); err != nil {
		return err
	}
	return d.conn.Send(ctx, op.cmd)
}

// notify sends op, or stores its patch when the link is down.
func (d *Device) notify(ctx context.Context, op Notify) (Result, error) {
	if !d.connected() {
		return d.fallback(ctx, op, op.patch)
	}
	if err := d.conn.Send(ctx, op.cmd); err != nil {
		return Result{}, err
	}
	return Result{Ack: op.Ack()}, nil
}

// request sends op and waits, or stores its patch when the link is down.
func (d *Device) request(ctx context.Context, op Request, opts []Option) (Result, error) {
	if !d.connected() {
		return d.fallback(ctx, op, op.patch)
	}
	resp, err := d.conn.SendAndWait(ctx, op.cmd, op.expect, d.timeout(opts))
	if err != nil {
		return Result{}, err
	}
	return Result{Ack: op.Ack(), Response: resp}, nil
}

// query runs a read-only request. Reads have no fallback.
func (d *Device) query(ctx context.Context, build func() (Request, error), opts []Option) (*wire.Response, error) {
	op, err := build()
	if err != nil {
		return nil, err
	}
	if err := d.linkUp(op); err != nil {
		return nil, err
	}
	return d.conn.SendAndWait(ctx, op.cmd, op.expect, d.timeout(opts))
}

func (d *Device) fallback(ctx context.Context, op Operation, patch configstore.Patch) (Result, error) {
	kind := op.Command().Kind
	deviceID, identity := d.Binding()
	if d.config.Store == nil || len(patch) == 0 || deviceID == "" || identity == "" {
		return Result{}, fault.LinkUnavailable(kind)
	}

	cfg, err := d.config.Store.UpdateDeviceConfig(ctx, deviceID, patch, identity)
	if err != nil {
		d.logger.Warn("fallback store write failed", "kind", kind, "device", deviceID, "error", err)
		return Result{}, fault.Wrap(fault.CodeLinkUnavailable, kind, err)
	}
	d.logger.Debug("link unavailable, setting stored", "kind", kind, "device", deviceID, "fields", patch.Fields())
	return Result{Ack: AckStored, Stored: &cfg}, nil
}

func (d *Device) linkUp(op Operation) error {
	if !d.connected() {
		return fault.LinkUnavailable(op.Command().Kind)
	}
	return nil
}

func (d *Device) connected() bool {
	return d.link == nil || d.link.IsConnected()
}

func (d *Device) timeout(opts []Option) time.Duration {
	o := callOptions{timeout: d.config.Timeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o.timeout
}

func intField(resp *wire.Response, name string) (int, error) {
	v, ok := resp.Int(name)
	if !ok {
		return 0, fault.New(fault.CodeDecodeFailed, resp.Kind, "missing or non-integer field "+name)
	}
	return int(v), nil
}

func stringField(resp *wire.Response, name string) (string, error) {
	v, ok := resp.String(name)
	if !ok {
		return "", fault.New(fault.CodeDecodeFailed, resp.Kind, "missing field "+name)
	}
	return v, nil
}
