package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halo-device/halo-go/pkg/link"
)

func defaults() Config {
	return Config{
		Link:       LinkSim,
		Model:      "halo",
		Store:      StoreMemory,
		LogLevel:   "info",
		Timeout:    5 * time.Second,
		TagTimeout: 10 * time.Second,
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"serial", func(c *Config) { c.Link = LinkSerial }, ""},
		{"unknown link", func(c *Config) { c.Link = "usb" }, "unknown link"},
		{"grpc without addr", func(c *Config) { c.Store = StoreGRPC }, "needs -store-addr"},
		{"mqtt with addr", func(c *Config) { c.Store, c.StoreAddr = StoreMQTT, "localhost:1883" }, ""},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "unknown store"},
		{"unknown model", func(c *Config) { c.Model = "halo-max" }, "halo-max"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigDescriptor(t *testing.T) {
	c := defaults()
	assert.True(t, c.Descriptor().IsZero())

	c.Address = "/dev/ttyACM0"
	assert.Equal(t, link.Descriptor{ID: "/dev/ttyACM0", Address: "/dev/ttyACM0"}, c.Descriptor())

	c.DeviceID, c.Name = "halo-7", "Desk"
	assert.Equal(t, link.Descriptor{ID: "halo-7", DisplayName: "Desk", Address: "/dev/ttyACM0"}, c.Descriptor())
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "halo.yaml", `
link: serial
address: /dev/ttyUSB0
model: halo-mini
store: mqtt
store_addr: broker:1883
mqtt_prefix: home/halo
identity: user-9
timeout: 2s
auto_connect: true
`)
		c := defaults()
		require.NoError(t, loadConfigFile(path, &c, nil))

		assert.Equal(t, LinkSerial, c.Link)
		assert.Equal(t, "/dev/ttyUSB0", c.Address)
		assert.Equal(t, "halo-mini", c.Model)
		assert.Equal(t, StoreMQTT, c.Store)
		assert.Equal(t, "broker:1883", c.StoreAddr)
		assert.Equal(t, "home/halo", c.MQTTPrefix)
		assert.Equal(t, "user-9", c.Identity)
		assert.Equal(t, 2*time.Second, c.Timeout)
		assert.Equal(t, 10*time.Second, c.TagTimeout)
		assert.True(t, c.AutoConnect)
		assert.NoError(t, c.Validate())
	})

	t.Run("toml", func(t *testing.T) {
		path := writeFile(t, "halo.toml", `
link = "bluez"
address = "AA:BB:CC:DD:EE:FF"
name = "Desk"
adapter = "hci1"
tag_timeout = "30s"
state_dir = "/var/lib/halo"
`)
		c := defaults()
		require.NoError(t, loadConfigFile(path, &c, nil))

		assert.Equal(t, LinkBlueZ, c.Link)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", c.Address)
		assert.Equal(t, "Desk", c.Name)
		assert.Equal(t, "hci1", c.Adapter)
		assert.Equal(t, 30*time.Second, c.TagTimeout)
		assert.Equal(t, "/var/lib/halo", c.StateDir)
		assert.Equal(t, StoreMemory, c.Store)
	})

	t.Run("flags win", func(t *testing.T) {
		path := writeFile(t, "halo.yml", "link: serial\ntimeout: 9s\nbaud_rate: 9600\n")
		c := defaults()
		c.Timeout = time.Second
		require.NoError(t, loadConfigFile(path, &c, map[string]bool{"link": true, "timeout": true}))

		assert.Equal(t, LinkSim, c.Link)
		assert.Equal(t, time.Second, c.Timeout)
		assert.Equal(t, 9600, c.BaudRate)
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeFile(t, "halo.yaml", "timeout: soon\n")
		c := defaults()
		assert.ErrorContains(t, loadConfigFile(path, &c, nil), "timeout")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "halo.json", "{}")
		c := defaults()
		assert.ErrorContains(t, loadConfigFile(path, &c, nil), "unsupported extension")
	})

	t.Run("missing file", func(t *testing.T) {
		c := defaults()
		assert.Error(t, loadConfigFile(filepath.Join(t.TempDir(), "none.toml"), &c, nil))
	})
}
