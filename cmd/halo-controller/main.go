// Command halo-controller connects to a HALO companion device and drives it
// from an interactive shell.
//
// Usage:
//
//	halo-controller [flags]
//
// Flags:
//
//	-config string       Configuration file (.yaml, .yml or .toml)
//	-link string         Link type: sim, serial, bluez (default "sim")
//	-address string      Device address (serial port or BLE MAC)
//	-device-id string    Device identifier (defaults to the address)
//	-name string         Device display name
//	-model string        Device model: halo, halo-mini (default "halo")
//	-store string        Config store: memory, grpc, mqtt (default "memory")
//	-store-addr string   gRPC target or MQTT broker host:port
//	-identity string     Identity settings are mirrored for
//	-http string         Serve the websocket event stream on this address
//	-capture string      Write protocol events to this .hlog file
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-state-dir string    Directory for persistent state
//	-reset               Clear persisted state before starting
//	-connect             Connect to the target device at startup
//	-interactive         Enable interactive command mode (default true)
//	-version             Print the release and exit
//
// Flags given on the command line override values from -config.
//
// Examples:
//
//	# Try it against the simulator
//	halo-controller -connect
//
//	# USB-attached device, mirroring settings to an MQTT broker
//	halo-controller -link serial -address /dev/ttyACM0 -store mqtt -store-addr localhost:1883
//
//	# BLE device, remembering it across restarts
//	halo-controller -link bluez -address AA:BB:CC:DD:EE:FF -state-dir ~/.halo
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halo-device/halo-go/cmd/halo-controller/interactive"
	"github.com/halo-device/halo-go/pkg/device"
	"github.com/halo-device/halo-go/pkg/version"
)

var (
	config      Config
	showVersion bool
)

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration file (.yaml, .yml or .toml)")

	flag.StringVar(&config.Link, "link", LinkSim, "Link type: sim, serial, bluez")
	flag.StringVar(&config.Address, "address", "", "Device address (serial port or BLE MAC)")
	flag.StringVar(&config.DeviceID, "device-id", "", "Device identifier (defaults to the address)")
	flag.StringVar(&config.Name, "name", "", "Device display name")
	flag.StringVar(&config.Model, "model", "halo", "Device model: halo, halo-mini")
	flag.StringVar(&config.Adapter, "adapter", "hci0", "BlueZ adapter")
	flag.IntVar(&config.BaudRate, "baud", 0, "Serial baud rate (0 = firmware default)")

	flag.DurationVar(&config.Timeout, "timeout", device.DefaultTimeout, "Response timeout")
	flag.DurationVar(&config.TagTimeout, "tag-timeout", 10*time.Second, "Response timeout for tag operations")

	flag.StringVar(&config.Store, "store", StoreMemory, "Config store: memory, grpc, mqtt")
	flag.StringVar(&config.StoreAddr, "store-addr", "", "gRPC target or MQTT broker host:port")
	flag.StringVar(&config.MQTTPrefix, "mqtt-prefix", "", "MQTT topic prefix (default \"halo\")")
	flag.StringVar(&config.Identity, "identity", "", "Identity settings are mirrored for")

	flag.StringVar(&config.HTTPAddr, "http", "", "Serve the websocket event stream on this address")
	flag.StringVar(&config.CaptureFile, "capture", "", "Write protocol events to this .hlog file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	flag.StringVar(&config.StateDir, "state-dir", "", "Directory for persistent state")
	flag.BoolVar(&config.Reset, "reset", false, "Clear persisted state before starting")

	flag.BoolVar(&config.Interactive, "interactive", true, "Enable interactive command mode")
	flag.BoolVar(&config.AutoConnect, "connect", false, "Connect to the target device at startup")
	flag.BoolVar(&showVersion, "version", false, "Print the release and exit")
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Println(version.Banner("halo-controller"))
		return
	}

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if config.ConfigFile != "" {
		if err := loadConfigFile(config.ConfigFile, &config, explicit); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// slog's default handler writes through the log package, so
	// log.SetOutput below redirects component logs as well.
	level, _ := parseLevel(config.LogLevel)
	slog.SetLogLoggerLevel(level)
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	logger := slog.Default()

	log.Println("HALO Controller")
	log.Println("===============")
	log.Printf("Link: %s  Store: %s  Model: %s", config.Link, config.Store, config.Model)

	a, err := newApp(&config, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.AutoConnect {
		a.connect(ctx)
	}

	if config.Interactive {
		sh, err := interactive.New(a.session)
		if err != nil {
			log.Fatalf("Failed to create interactive shell: %v", err)
		}
		// Redirect log output through readline to avoid interfering with input
		log.SetOutput(sh.Stdout())
		go sh.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	a.saveState()
	cancel()
	a.close()
	log.Println("Goodbye!")
}
