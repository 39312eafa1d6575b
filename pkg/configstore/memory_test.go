package configstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUpdateDeviceConfig(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	_, err := m.GetDeviceConfig(ctx, "halo-1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	c, err := m.UpdateDeviceConfig(ctx, "halo-1", Patch{FieldBrightness: 60}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "halo-1", c.DeviceID)
	assert.Equal(t, 60, c.Brightness)
	assert.Equal(t, "user-1", c.UpdatedBy)
	assert.Equal(t, fixed, c.UpdatedAt)

	c, err = m.UpdateDeviceConfig(ctx, "halo-1", Patch{FieldSleepTimeout: 30}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 60, c.Brightness)
	assert.Equal(t, 30, c.SleepTimeout)
	assert.Equal(t, "user-2", c.UpdatedBy)

	got, err := m.GetDeviceConfig(ctx, "halo-1")
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.Equal(t, 2, m.Updates())
}

func TestMemoryUpdateRejects(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.UpdateDeviceConfig(ctx, "", Patch{FieldBrightness: 60}, "u")
	assert.ErrorIs(t, err, ErrEmptyDeviceID)

	_, err = m.UpdateDeviceConfig(ctx, "halo-1", Patch{FieldBrightness: 60}, "")
	assert.ErrorIs(t, err, ErrEmptyIdentity)

	_, err = m.UpdateDeviceConfig(ctx, "halo-1", Patch{"bogus": 1}, "u")
	assert.ErrorIs(t, err, ErrUnknownField)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.UpdateDeviceConfig(canceled, "halo-1", Patch{FieldBrightness: 60}, "u")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Zero(t, m.Updates())
}

func TestMemoryTagLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.CreateTag(ctx, "halo-1", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, TagPending, rec.State)
	assert.Empty(t, rec.UID)

	written, err := m.MarkTagWritten(ctx, rec.ID, "04AABBCCDD")
	require.NoError(t, err)
	assert.Equal(t, TagWritten, written.State)
	assert.Equal(t, "04AABBCCDD", written.UID)
	assert.Equal(t, "hello", written.Content)

	_, err = m.MarkTagWritten(ctx, rec.ID, "04AABBCCDD")
	assert.ErrorIs(t, err, ErrTagAlreadyWritten)

	_, err = m.MarkTagWritten(ctx, "missing", "04")
	assert.ErrorIs(t, err, ErrTagNotFound)

	_, err = m.CreateTag(ctx, "", "x")
	assert.ErrorIs(t, err, ErrEmptyDeviceID)

	got, ok := m.Tag(rec.ID)
	require.True(t, ok)
	assert.Equal(t, written, got)
	assert.Len(t, m.Tags(), 1)
}
