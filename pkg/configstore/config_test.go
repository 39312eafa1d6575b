package configstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApply(t *testing.T) {
	base := Config{DeviceID: "halo-1", Brightness: 50, SleepTimeout: 300}

	tests := []struct {
		name  string
		patch Patch
		check func(t *testing.T, c Config)
	}{
		{
			name:  "Brightness",
			patch: Patch{FieldBrightness: 75},
			check: func(t *testing.T, c Config) { assert.Equal(t, 75, c.Brightness) },
		},
		{
			name:  "JSONNumber",
			patch: Patch{FieldSleepTimeout: json.Number("600")},
			check: func(t *testing.T, c Config) { assert.Equal(t, 600, c.SleepTimeout) },
		},
		{
			name:  "Float",
			patch: Patch{FieldSleepTimeout: float64(0)},
			check: func(t *testing.T, c Config) { assert.Equal(t, 0, c.SleepTimeout) },
		},
		{
			name:  "Strings",
			patch: Patch{FieldColor: "#00FF00", FieldEffect: "pulse"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, "#00FF00", c.Color)
				assert.Equal(t, "pulse", c.Effect)
			},
		},
		{
			name:  "StorageStruct",
			patch: Patch{FieldStorage: Storage{Total: 10, Used: 4, Free: 6}},
			check: func(t *testing.T, c Config) { assert.Equal(t, &Storage{Total: 10, Used: 4, Free: 6}, c.Storage) },
		},
		{
			name:  "StorageMap",
			patch: Patch{FieldStorage: map[string]any{"total": json.Number("10"), "used": 1, "free": 9.0}},
			check: func(t *testing.T, c Config) { assert.Equal(t, &Storage{Total: 10, Used: 1, Free: 9}, c.Storage) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Apply(tt.patch)
			require.NoError(t, err)
			tt.check(t, got)
			assert.Equal(t, 50, base.Brightness, "receiver must not change")
		})
	}
}

func TestConfigApplyRejects(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		want  error
	}{
		{"UnknownField", Patch{"volume": 3}, ErrUnknownField},
		{"BrightnessString", Patch{FieldBrightness: "high"}, ErrFieldType},
		{"ColorNumber", Patch{FieldColor: 7}, ErrFieldType},
		{"StorageMissingKey", Patch{FieldStorage: map[string]any{"total": 1}}, ErrFieldType},
		{"StorageNilPointer", Patch{FieldStorage: (*Storage)(nil)}, ErrFieldType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{Brightness: 20}
			got, err := c.Apply(tt.patch)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 20, got.Brightness)
			assert.ErrorIs(t, tt.patch.Validate(), tt.want)
		})
	}
}

func TestConfigApplyCopiesStorage(t *testing.T) {
	c := Config{Storage: &Storage{Total: 10}}
	next, err := c.Apply(Patch{FieldBrightness: 10})
	require.NoError(t, err)
	next.Storage.Total = 99
	assert.Equal(t, 10, c.Storage.Total)
}
