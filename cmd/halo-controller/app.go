package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/halo-device/halo-go/cmd/halo-controller/interactive"
	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/configstore/grpcstore"
	"github.com/halo-device/halo-go/pkg/configstore/mqttstore"
	"github.com/halo-device/halo-go/pkg/connection"
	"github.com/halo-device/halo-go/pkg/device"
	"github.com/halo-device/halo-go/pkg/eventhub"
	"github.com/halo-device/halo-go/pkg/interaction"
	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/link/bluez"
	"github.com/halo-device/halo-go/pkg/link/serial"
	"github.com/halo-device/halo-go/pkg/link/sim"
	hlog "github.com/halo-device/halo-go/pkg/log"
	"github.com/halo-device/halo-go/pkg/mirror"
	"github.com/halo-device/halo-go/pkg/persistence"
	"github.com/halo-device/halo-go/pkg/tagbridge"
)

// simDescriptor is the default target for the simulated link.
var simDescriptor = link.Descriptor{ID: "halo-sim", DisplayName: "Simulated HALO", Address: "sim"}

// backend is a config store that also records tag writes.
type backend interface {
	configstore.Store
	configstore.TagRegistry
}

// app holds the wired controller components.
type app struct {
	config  *Config
	logger  *slog.Logger
	session *interactive.Session

	stateStore *persistence.ControllerStateStore
	hub        *eventhub.Hub
	httpSrv    *http.Server

	// closers run in reverse order on shutdown.
	closers []func()
}

func newApp(cfg *Config, logger *slog.Logger) (*app, error) {
	a := &app{config: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	plog, err := a.protocolLogger()
	if err != nil {
		return nil, err
	}

	state, err := a.loadState()
	if err != nil {
		return nil, err
	}
	if cfg.Identity == "" {
		cfg.Identity = state.Identity
	}
	state.Identity = cfg.Identity

	dialer, err := newDialer(cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	model, err := device.ParseModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	mgr := connection.NewManager(connection.Config{
		Dialer:         dialer,
		Logger:         logger.With("component", "connection"),
		ProtocolLogger: plog,
	})
	a.closers = append(a.closers, mgr.Disconnect)

	client := interaction.NewClient(mgr, interaction.Config{
		DefaultTimeout: cfg.Timeout,
		Logger:         logger.With("component", "interaction"),
		ProtocolLogger: plog,
	})
	a.closers = append(a.closers, func() { _ = client.Close() })

	target := cfg.Descriptor()
	if target.IsZero() && cfg.Link == LinkSim {
		target = simDescriptor
	}
	if target.IsZero() {
		if last, ok := state.Last(); ok {
			target = last.Descriptor
		}
	}

	dev := device.New(client, mgr, device.Config{
		Model:    model,
		Timeout:  cfg.Timeout,
		Store:    store,
		DeviceID: target.ID,
		Identity: cfg.Identity,
		Logger:   logger.With("component", "device"),
	})

	mir := mirror.New(client, mgr, mirror.Config{
		Store: store,
		OnSuccess: func(u mirror.Update, _ configstore.Config) {
			logger.Debug("settings mirrored", "device_id", u.DeviceID, "kind", u.Kind, "fields", u.Patch.Fields())
		},
		OnFailure: func(u mirror.Update, err error) {
			logger.Warn("settings mirror failed", "device_id", u.DeviceID, "kind", u.Kind, "error", err)
		},
		Logger:         logger.With("component", "mirror"),
		ProtocolLogger: plog,
	})
	a.closers = append(a.closers, mir.Close)
	mir.SetDevice(target.ID)
	mir.SetIdentity(cfg.Identity)

	tags := tagbridge.New(dev, tagbridge.Config{
		Registry:       store,
		Timeout:        cfg.TagTimeout,
		Logger:         logger.With("component", "tagbridge"),
		ProtocolLogger: plog,
	})

	a.session = &interactive.Session{
		Manager: mgr,
		Client:  client,
		Device:  dev,
		Tags:    tags,
		Mirror:  mir,
		State:   state,
		Target:  target,
	}

	if cfg.HTTPAddr != "" {
		a.serveEvents(mgr, client)
	}
	ok = true
	return a, nil
}

func (a *app) protocolLogger() (hlog.Logger, error) {
	var loggers []hlog.Logger
	if a.config.CaptureFile != "" {
		fl, err := hlog.NewFileLogger(a.config.CaptureFile)
		if err != nil {
			return nil, fmt.Errorf("open capture file: %w", err)
		}
		a.closers = append(a.closers, func() { _ = fl.Close() })
		a.logger.Info("capturing protocol events", "path", a.config.CaptureFile)
		loggers = append(loggers, fl)
	}
	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		loggers = append(loggers, hlog.NewSlogAdapter(a.logger.With("component", "protocol")))
	}
	if len(loggers) == 0 {
		return nil, nil
	}
	return hlog.NewMultiLogger(loggers...), nil
}

func (a *app) loadState() (*persistence.ControllerState, error) {
	if a.config.StateDir == "" {
		return &persistence.ControllerState{}, nil
	}
	a.stateStore = persistence.NewControllerStateStore(filepath.Join(a.config.StateDir, "state.json"))
	if a.config.Reset {
		a.logger.Info("resetting persisted state", "path", a.stateStore.Path())
		if err := a.stateStore.Clear(); err != nil {
			a.logger.Warn("failed to clear state", "error", err)
		}
	}
	state, err := a.stateStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	a.logger.Info("loaded state", "devices", len(state.Devices), "last_device", state.LastDeviceID)
	return state, nil
}

func newDialer(cfg *Config, logger *slog.Logger) (link.Dialer, error) {
	switch cfg.Link {
	case LinkSim:
		simCfg := sim.DefaultConfig()
		simCfg.ReplyDelay = 20 * time.Millisecond
		simCfg.Tag = &sim.Tag{UID: "04A1B2C3D4E5F6"}
		return sim.New(simCfg).Dialer(), nil
	case LinkSerial:
		sc := serial.DefaultConfig()
		if cfg.BaudRate > 0 {
			sc.BaudRate = cfg.BaudRate
		}
		sc.Logger = logger
		return serial.NewDialer(sc), nil
	case LinkBlueZ:
		bc := bluez.DefaultConfig()
		if cfg.Adapter != "" {
			bc.Adapter = cfg.Adapter
		}
		bc.Logger = logger
		return bluez.NewDialer(bc), nil
	default:
		return nil, fmt.Errorf("unknown link %q", cfg.Link)
	}
}

func (a *app) openStore() (backend, error) {
	switch a.config.Store {
	case StoreMemory:
		return configstore.NewMemory(), nil

	case StoreGRPC:
		c, err := grpcstore.Dial(a.config.StoreAddr)
		if err != nil {
			return nil, fmt.Errorf("dial config service: %w", err)
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		a.logger.Info("using gRPC config store", "target", a.config.StoreAddr)
		return c, nil

	case StoreMQTT:
		mc := mqttstore.DefaultConfig()
		if a.config.MQTTPrefix != "" {
			mc.Prefix = a.config.MQTTPrefix
		}
		mc.Logger = a.logger.With("component", "mqttstore")
		s, err := mqttstore.Connect(a.config.StoreAddr, "halo-controller-"+uuid.NewString()[:8], mc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		a.logger.Info("using MQTT config store", "broker", a.config.StoreAddr, "prefix", mc.Prefix)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store %q", a.config.Store)
	}
}

func (a *app) serveEvents(states eventhub.StateSource, responses eventhub.ResponseSource) {
	a.hub = eventhub.New(a.logger.With("component", "eventhub"))
	detach := a.hub.Attach(states, responses)

	mux := http.NewServeMux()
	mux.Handle("/events", a.hub)
	a.httpSrv = &http.Server{
		Addr:              a.config.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("event stream listening", "addr", a.config.HTTPAddr, "path", "/events")
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("event stream stopped", "error", err)
		}
	}()

	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.httpSrv.Shutdown(ctx)
		detach()
		a.hub.Close()
	})
}

// connect connects to the target at startup.
func (a *app) connect(ctx context.Context) {
	target := a.session.Target
	if target.IsZero() {
		a.logger.Warn("auto-connect skipped: no device configured or remembered")
		return
	}
	if err := a.session.Connect(ctx, target, true); err != nil {
		a.logger.Error("auto-connect failed", "device", target.String(), "error", err)
		return
	}
	a.logger.Info("connected", "device", target.String())
}

// saveState persists the controller state if a state directory is set.
func (a *app) saveState() {
	if a.stateStore == nil {
		return
	}
	if err := a.stateStore.Save(a.session.State); err != nil {
		a.logger.Warn("failed to save state", "error", err)
		return
	}
	a.logger.Info("state saved", "path", a.stateStore.Path())
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
