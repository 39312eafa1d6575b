// Package bluez implements link.Link over BLE GATT using BlueZ on the
// system D-Bus.
//
// The device exposes a UART-style service with a write characteristic (RX,
// controller to device) and a notify characteristic (TX, device to
// controller). Each GATT notification carries exactly one JSON frame.
package bluez

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/halo-device/halo-go/pkg/link"
)

// BlueZ D-Bus names.
const (
	busName            = "org.bluez"
	deviceInterface    = "org.bluez.Device1"
	charInterface      = "org.bluez.GattCharacteristic1"
	propsInterface     = "org.freedesktop.DBus.Properties"
	objectManagerCall  = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
	propertiesChanged  = "PropertiesChanged"
	propertiesSignal   = propsInterface + "." + propertiesChanged
	inProgressErrorTag = "InProgress"
)

// Default HALO GATT UUIDs.
const (
	DefaultServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	DefaultRxCharUUID  = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	DefaultTxCharUUID  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

// Errors.
var (
	ErrServiceNotFound        = errors.New("bluez: HALO GATT service not found")
	ErrCharacteristicNotFound = errors.New("bluez: required characteristic not found")
)

// Config configures a BlueZ link.
type Config struct {
	// Adapter is the HCI adapter name.
	Adapter string

	ServiceUUID string
	RxCharUUID  string
	TxCharUUID  string

	// PollInterval is how often WaitReady checks ServicesResolved.
	PollInterval time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns a config for hci0 and the default UUIDs.
func DefaultConfig() Config {
	return Config{
		Adapter:      "hci0",
		ServiceUUID:  DefaultServiceUUID,
		RxCharUUID:   DefaultRxCharUUID,
		TxCharUUID:   DefaultTxCharUUID,
		PollInterval: 250 * time.Millisecond,
	}
}

// Link is a BlueZ GATT link.Link.
type Link struct {
	address string
	config  Config
	logger  *slog.Logger

	mu         sync.Mutex
	conn       *dbus.Conn
	devicePath dbus.ObjectPath
	rxPath     dbus.ObjectPath
	txPath     dbus.ObjectPath
	done       chan struct{}
	closed     bool
}

// New creates a link to the device at a BLE MAC address.
func New(address string, config Config) *Link {
	if config.Adapter == "" {
		config.Adapter = "hci0"
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 250 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Link{
		address: address,
		config:  config,
		logger:  logger.With("link", "bluez", "address", address),
		done:    make(chan struct{}),
	}
}

// NewDialer returns a link.Dialer for BLE MAC addresses.
func NewDialer(config Config) link.Dialer {
	return func(desc link.Descriptor) (link.Link, error) {
		if desc.Address == "" {
			return nil, errors.New("bluez: descriptor has no address")
		}
		return New(desc.Address, config), nil
	}
}

// DevicePath returns the BlueZ object path for a MAC address on an adapter.
func DevicePath(adapter, address string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("/org/bluez/%s/dev_%s",
		adapter, strings.ReplaceAll(strings.ToUpper(address), ":", "_")))
}

// Open connects the system bus and asks BlueZ to connect the device.
func (l *Link) Open(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bluez: system bus: %w", err)
	}
	devicePath := DevicePath(l.config.Adapter, l.address)

	call := conn.Object(busName, devicePath).CallWithContext(ctx, deviceInterface+".Connect", 0)
	if call.Err != nil && !strings.Contains(call.Err.Error(), inProgressErrorTag) {
		conn.Close()
		return fmt.Errorf("bluez: connect %s: %w", l.address, call.Err)
	}

	l.mu.Lock()
	l.conn = conn
	l.devicePath = devicePath
	l.closed = false
	l.done = make(chan struct{})
	l.mu.Unlock()
	return nil
}

// WaitReady polls until BlueZ has resolved GATT services, then locates the
// HALO characteristics.
func (l *Link) WaitReady(ctx context.Context) error {
	l.mu.Lock()
	conn, devicePath := l.conn, l.devicePath
	l.mu.Unlock()
	if conn == nil {
		return link.ErrNotOpen
	}

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()
	obj := conn.Object(busName, devicePath)
	for {
		v, err := obj.GetProperty(deviceInterface + ".ServicesResolved")
		if err == nil {
			if resolved, ok := v.Value().(bool); ok && resolved {
				break
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", link.ErrNotReady, ctx.Err())
		case <-ticker.C:
		}
	}

	objects := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	if err := conn.Object(busName, "/").CallWithContext(ctx, objectManagerCall, 0).Store(&objects); err != nil {
		return fmt.Errorf("bluez: managed objects: %w", err)
	}
	rx, tx, err := findCharacteristics(objects, devicePath, l.config)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.rxPath, l.txPath = rx, tx
	l.mu.Unlock()
	l.logger.Debug("gatt characteristics resolved", "rx", rx, "tx", tx)
	return nil
}

// findCharacteristics locates the RX and TX characteristics of the HALO
// service under devicePath.
func findCharacteristics(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant, devicePath dbus.ObjectPath, config Config) (rx, tx dbus.ObjectPath, err error) {
	var servicePath dbus.ObjectPath
	prefix := string(devicePath) + "/"
	for path, ifaces := range objects {
		svc, ok := ifaces["org.bluez.GattService1"]
		if !ok || !strings.HasPrefix(string(path), prefix) {
			continue
		}
		if uuidOf(svc) == strings.ToLower(config.ServiceUUID) {
			servicePath = path
			break
		}
	}
	if servicePath == "" {
		return "", "", ErrServiceNotFound
	}

	charPrefix := string(servicePath) + "/"
	for path, ifaces := range objects {
		ch, ok := ifaces[charInterface]
		if !ok || !strings.HasPrefix(string(path), charPrefix) {
			continue
		}
		switch uuidOf(ch) {
		case strings.ToLower(config.RxCharUUID):
			rx = path
		case strings.ToLower(config.TxCharUUID):
			tx = path
		}
	}
	if rx == "" || tx == "" {
		return "", "", ErrCharacteristicNotFound
	}
	return rx, tx, nil
}

func uuidOf(props map[string]dbus.Variant) string {
	v, ok := props["UUID"]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return strings.ToLower(s)
}

// Subscribe enables notifications on the TX characteristic and starts
// watching for PropertiesChanged signals.
func (l *Link) Subscribe(fn link.NotifyFunc) (func() error, error) {
	l.mu.Lock()
	conn, devicePath, txPath := l.conn, l.devicePath, l.txPath
	done := l.done
	l.mu.Unlock()
	if conn == nil || txPath == "" {
		return nil, link.ErrNotOpen
	}

	matchTx := []dbus.MatchOption{
		dbus.WithMatchObjectPath(txPath),
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember(propertiesChanged),
	}
	matchDevice := []dbus.MatchOption{
		dbus.WithMatchObjectPath(devicePath),
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember(propertiesChanged),
	}
	if err := conn.AddMatchSignal(matchTx...); err != nil {
		return nil, fmt.Errorf("bluez: add match: %w", err)
	}
	if err := conn.AddMatchSignal(matchDevice...); err != nil {
		_ = conn.RemoveMatchSignal(matchTx...)
		return nil, fmt.Errorf("bluez: add match: %w", err)
	}

	signals := make(chan *dbus.Signal, 64)
	conn.Signal(signals)

	if err := conn.Object(busName, txPath).Call(charInterface+".StartNotify", 0).Err; err != nil {
		conn.RemoveSignal(signals)
		_ = conn.RemoveMatchSignal(matchTx...)
		_ = conn.RemoveMatchSignal(matchDevice...)
		return nil, fmt.Errorf("bluez: start notify: %w", err)
	}

	stop := make(chan struct{})
	go l.watch(signals, stop, done, devicePath, txPath, fn)

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			close(stop)
			conn.RemoveSignal(signals)
			err = errors.Join(
				conn.Object(busName, txPath).Call(charInterface+".StopNotify", 0).Err,
				conn.RemoveMatchSignal(matchTx...),
				conn.RemoveMatchSignal(matchDevice...),
			)
		})
		return err
	}, nil
}

func (l *Link) watch(signals <-chan *dbus.Signal, stop, done chan struct{}, devicePath, txPath dbus.ObjectPath, fn link.NotifyFunc) {
	for {
		select {
		case <-stop:
			return
		case <-done:
			return
		case sig, ok := <-signals:
			if !ok {
				l.markClosed(done)
				return
			}
			switch {
			case sig.Path == txPath:
				if frame, ok := notificationValue(sig); ok {
					fn(frame)
				}
			case sig.Path == devicePath:
				if isDisconnect(sig) {
					l.logger.Info("device disconnected")
					l.markClosed(done)
					return
				}
			}
		}
	}
}

// notificationValue extracts the characteristic value from a
// PropertiesChanged signal.
func notificationValue(sig *dbus.Signal) ([]byte, bool) {
	changed, ok := changedProps(sig)
	if !ok {
		return nil, false
	}
	v, ok := changed["Value"]
	if !ok {
		return nil, false
	}
	data, ok := v.Value().([]byte)
	if !ok || len(data) == 0 {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// isDisconnect reports whether a device PropertiesChanged signal reports
// Connected=false.
func isDisconnect(sig *dbus.Signal) bool {
	changed, ok := changedProps(sig)
	if !ok {
		return false
	}
	v, ok := changed["Connected"]
	if !ok {
		return false
	}
	connected, ok := v.Value().(bool)
	return ok && !connected
}

func changedProps(sig *dbus.Signal) (map[string]dbus.Variant, bool) {
	if sig == nil || sig.Name != propertiesSignal || len(sig.Body) < 2 {
		return nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	return changed, ok
}

// Write sends one frame to the RX characteristic with a write request.
func (l *Link) Write(ctx context.Context, frame []byte) error {
	l.mu.Lock()
	conn, rxPath, closed := l.conn, l.rxPath, l.closed
	l.mu.Unlock()
	if conn == nil || rxPath == "" {
		return link.ErrNotOpen
	}
	if closed {
		return link.ErrClosed
	}
	options := map[string]dbus.Variant{"type": dbus.MakeVariant("request")}
	if err := conn.Object(busName, rxPath).CallWithContext(ctx, charInterface+".WriteValue", 0, frame, options).Err; err != nil {
		return fmt.Errorf("bluez: write value: %w", err)
	}
	return nil
}

// Done implements link.Link.
func (l *Link) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Close disconnects the device and releases the bus connection.
func (l *Link) Close() error {
	l.mu.Lock()
	conn, devicePath, done := l.conn, l.devicePath, l.done
	l.conn = nil
	l.rxPath, l.txPath = "", ""
	l.mu.Unlock()

	l.markClosed(done)
	if conn == nil {
		return nil
	}
	err := conn.Object(busName, devicePath).Call(deviceInterface+".Disconnect", 0).Err
	return errors.Join(err, conn.Close())
}

func (l *Link) markClosed(done chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if done != l.done || l.closed {
		return
	}
	l.closed = true
	close(done)
}

var _ link.Link = (*Link)(nil)
