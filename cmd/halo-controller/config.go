package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/halo-device/halo-go/pkg/device"
	"github.com/halo-device/halo-go/pkg/link"
)

// Link kinds.
const (
	LinkSim    = "sim"
	LinkSerial = "serial"
	LinkBlueZ  = "bluez"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreGRPC   = "grpc"
	StoreMQTT   = "mqtt"
)

// Config holds the controller configuration.
type Config struct {
	ConfigFile string

	// Link selection
	Link     string
	Address  string
	DeviceID string
	Name     string
	Model    string
	Adapter  string
	BaudRate int

	// Timeouts
	Timeout    time.Duration
	TagTimeout time.Duration

	// Config store
	Store      string
	StoreAddr  string
	MQTTPrefix string
	Identity   string

	// Observability
	HTTPAddr    string
	CaptureFile string
	LogLevel    string

	// Persistence settings
	StateDir string
	Reset    bool

	Interactive bool
	AutoConnect bool
}

// Descriptor returns the device descriptor named by the link flags, or
// the zero descriptor when no address was given.
func (c *Config) Descriptor() link.Descriptor {
	if c.Address == "" && c.DeviceID == "" {
		return link.Descriptor{}
	}
	d := link.Descriptor{ID: c.DeviceID, DisplayName: c.Name, Address: c.Address}
	if d.ID == "" {
		d.ID = c.Address
	}
	if d.Address == "" {
		d.Address = d.ID
	}
	return d
}

// Validate checks option values that flag parsing cannot.
func (c *Config) Validate() error {
	switch c.Link {
	case LinkSim, LinkSerial, LinkBlueZ:
	default:
		return fmt.Errorf("unknown link %q (use: sim, serial, bluez)", c.Link)
	}
	switch c.Store {
	case StoreMemory:
	case StoreGRPC, StoreMQTT:
		if c.StoreAddr == "" {
			return fmt.Errorf("store %s needs -store-addr", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q (use: memory, grpc, mqtt)", c.Store)
	}
	if _, err := device.ParseModel(c.Model); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeout <= 0 || c.TagTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// fileConfig is the on-disk form of Config. Nil fields are absent from
// the file and leave the flag value alone.
type fileConfig struct {
	Link        *string `yaml:"link" toml:"link"`
	Address     *string `yaml:"address" toml:"address"`
	DeviceID    *string `yaml:"device_id" toml:"device_id"`
	Name        *string `yaml:"name" toml:"name"`
	Model       *string `yaml:"model" toml:"model"`
	Adapter     *string `yaml:"adapter" toml:"adapter"`
	BaudRate    *int    `yaml:"baud_rate" toml:"baud_rate"`
	Timeout     *string `yaml:"timeout" toml:"timeout"`
	TagTimeout  *string `yaml:"tag_timeout" toml:"tag_timeout"`
	Store       *string `yaml:"store" toml:"store"`
	StoreAddr   *string `yaml:"store_addr" toml:"store_addr"`
	MQTTPrefix  *string `yaml:"mqtt_prefix" toml:"mqtt_prefix"`
	Identity    *string `yaml:"identity" toml:"identity"`
	HTTPAddr    *string `yaml:"http_addr" toml:"http_addr"`
	CaptureFile *string `yaml:"capture_file" toml:"capture_file"`
	LogLevel    *string `yaml:"log_level" toml:"log_level"`
	StateDir    *string `yaml:"state_dir" toml:"state_dir"`
	AutoConnect *bool   `yaml:"auto_connect" toml:"auto_connect"`
}

// loadConfigFile overlays the file at path onto c. Flags named in
// explicit were set on the command line and win over the file.
func loadConfigFile(path string, c *Config, explicit map[string]bool) error {
	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("load config %s: unsupported extension (use .yaml, .yml or .toml)", path)
	}

	set := func(name string, dst *string, v *string) {
		if v != nil && !explicit[name] {
			*dst = strings.TrimSpace(*v)
		}
	}
	set("link", &c.Link, raw.Link)
	set("address", &c.Address, raw.Address)
	set("device-id", &c.DeviceID, raw.DeviceID)
	set("name", &c.Name, raw.Name)
	set("model", &c.Model, raw.Model)
	set("adapter", &c.Adapter, raw.Adapter)
	set("store", &c.Store, raw.Store)
	set("store-addr", &c.StoreAddr, raw.StoreAddr)
	set("mqtt-prefix", &c.MQTTPrefix, raw.MQTTPrefix)
	set("identity", &c.Identity, raw.Identity)
	set("http", &c.HTTPAddr, raw.HTTPAddr)
	set("capture", &c.CaptureFile, raw.CaptureFile)
	set("log-level", &c.LogLevel, raw.LogLevel)
	set("state-dir", &c.StateDir, raw.StateDir)

	if raw.BaudRate != nil && !explicit["baud"] {
		c.BaudRate = *raw.BaudRate
	}
	if raw.AutoConnect != nil && !explicit["connect"] {
		c.AutoConnect = *raw.AutoConnect
	}
	for _, d := range []struct {
		name string
		dst  *time.Duration
		v    *string
	}{
		{"timeout", &c.Timeout, raw.Timeout},
		{"tag-timeout", &c.TagTimeout, raw.TagTimeout},
	} {
		if d.v == nil || explicit[d.name] {
			continue
		}
		parsed, err := time.ParseDuration(*d.v)
		if err != nil {
			return fmt.Errorf("load config %s: %s: %w", path, d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (use: debug, info, warn, error)", s)
	}
}
