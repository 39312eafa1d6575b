package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/configstore/mocks"
	"github.com/halo-device/halo-go/pkg/connection"
	"github.com/halo-device/halo-go/pkg/fault"
	"github.com/halo-device/halo-go/pkg/interaction"
	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/link/sim"
	"github.com/halo-device/halo-go/pkg/wire"
)

// recorder is a Capability that records every call.
type recorder struct {
	mu       sync.Mutex
	sent     []*wire.Command
	waits    []string
	timeouts []time.Duration
	reply    *wire.Response
	err      error
}

func (r *recorder) Send(_ context.Context, cmd *wire.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, cmd)
	return r.err
}

func (r *recorder) SendAndWait(_ context.Context, cmd *wire.Command, kind string, timeout time.Duration) (*wire.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, cmd)
	r.waits = append(r.waits, kind)
	r.timeouts = append(r.timeouts, timeout)
	return r.reply, r.err
}

func (r *recorder) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type linkFlag bool

func (l linkFlag) IsConnected() bool { return bool(l) }

// simDevice returns a façade wired to a connected simulator.
func simDevice(t *testing.T, cfg sim.Config, devCfg Config) (*Device, *sim.Device) {
	t.Helper()
	dev := sim.New(cfg)
	m := connection.NewManager(connection.Config{Dialer: dev.Dialer()})
	require.NoError(t, m.Connect(context.Background(), link.Descriptor{ID: "halo-1", Address: "sim"}))
	c := interaction.NewClient(m, interaction.Config{})
	t.Cleanup(func() {
		c.Close()
		m.Disconnect()
	})
	return New(c, m, devCfg), dev
}

func TestValidationFailsBeforeTransport(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(d *Device) error
	}{
		{"BrightnessTooLow", func(d *Device) error { _, err := d.SetBrightness(ctx, 5); return err }},
		{"BrightnessTooHigh", func(d *Device) error { _, err := d.SetBrightness(ctx, 101); return err }},
		{"SleepTooShort", func(d *Device) error { _, err := d.SetSleepTimeout(ctx, 29); return err }},
		{"SleepTooLong", func(d *Device) error { _, err := d.SetSleepTimeout(ctx, 3601); return err }},
		{"SleepNegative", func(d *Device) error { _, err := d.SetSleepTimeout(ctx, -1); return err }},
		{"ColorNoHash", func(d *Device) error { _, err := d.SetColor(ctx, "FF0000"); return err }},
		{"ColorNotHex", func(d *Device) error { _, err := d.SetColor(ctx, "#GG0000"); return err }},
		{"UnknownEffect", func(d *Device) error { _, err := d.SetEffect(ctx, "disco"); return err }},
		{"EmptyTag", func(d *Device) error { _, err := d.WriteTag(ctx, ""); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			d := New(rec, linkFlag(true), Config{})

			err := tt.call(d)
			assert.ErrorIs(t, err, fault.ErrValidationFailed)
			assert.Zero(t, rec.writes())
		})
	}
}

func TestSetBrightnessBelowRangeWithSimulator(t *testing.T) {
	d, dev := simDevice(t, sim.DefaultConfig(), Config{})

	_, err := d.SetBrightness(context.Background(), 5)
	assert.Equal(t, fault.CodeValidationFailed, fault.CodeOf(err))
	assert.Zero(t, dev.WriteCount())
}

func TestNotifyOperationsNeverWait(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	d := New(rec, linkFlag(true), Config{})

	r, err := d.SetBrightness(ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, AckTransport, r.Ack)

	_, err = d.SetColor(ctx, "#ff8800")
	require.NoError(t, err)
	_, err = d.SetEffect(ctx, "rainbow")
	require.NoError(t, err)
	_, err = d.Reset(ctx)
	require.NoError(t, err)
	require.NoError(t, d.AckTag(ctx))

	assert.Equal(t, 5, rec.writes())
	assert.Empty(t, rec.waits, "fire-and-forget commands must not register a wait")
}

func TestRequestKindsAndTimeouts(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{reply: &wire.Response{Status: wire.StatusSuccess, Fields: map[string]any{
		wire.FieldBrightness: 1, wire.FieldTimeout: 0,
		wire.FieldTotal: 1, wire.FieldUsed: 0, wire.FieldFree: 1,
		wire.FieldUID: "04", wire.FieldContent: "x",
	}}}
	d := New(rec, linkFlag(true), Config{})

	_, err := d.GetBrightness(ctx)
	require.NoError(t, err)
	_, err = d.GetSleepTimeout(ctx, WithTimeout(250*time.Millisecond))
	require.NoError(t, err)
	_, err = d.GetStorage(ctx)
	require.NoError(t, err)
	r, err := d.SetSleepTimeout(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, AckDevice, r.Ack)
	_, _, err = d.ReadTag(ctx)
	require.NoError(t, err)
	_, err = d.WriteTag(ctx, "hello")
	require.NoError(t, err)

	assert.Equal(t, []string{
		wire.KindBrightnessGet, wire.KindSleepTimeoutGet, wire.KindStorageGet,
		wire.KindSleepTimeoutSet, wire.KindTagRead, wire.KindTagWritten,
	}, rec.waits)
	assert.Equal(t, DefaultTimeout, rec.timeouts[0])
	assert.Equal(t, 250*time.Millisecond, rec.timeouts[1])
}

func TestDeviceAgainstSimulator(t *testing.T) {
	ctx := context.Background()
	d, dev := simDevice(t, sim.DefaultConfig(), Config{})

	_, err := d.SetBrightness(ctx, 42)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return dev.State().Brightness == 42 }, time.Second, time.Millisecond)

	b, err := d.GetBrightness(ctx, WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 42, b)

	r, err := d.SetSleepTimeout(ctx, 600)
	require.NoError(t, err)
	assert.Equal(t, AckDevice, r.Ack)
	require.NotNil(t, r.Response)
	assert.Equal(t, wire.KindSleepTimeoutSet, r.Response.Kind)

	s, err := d.GetSleepTimeout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 600, s)

	uid, err := d.WriteTag(ctx, "hello")
	require.NoError(t, err)
	gotUID, content, err := d.ReadTag(ctx)
	require.NoError(t, err)
	assert.Equal(t, uid, gotUID)
	assert.Equal(t, "hello", content)

	st, err := d.GetStorage(ctx)
	require.NoError(t, err)
	assert.Equal(t, configstore.Storage{Total: 4096, Used: 5, Free: 4091}, st)
}

func TestDeviceReportedError(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.ErrorReplies = map[string]string{wire.KindSleepTimeout: "Flash busy"}
	d, _ := simDevice(t, cfg, Config{})

	_, err := d.SetSleepTimeout(context.Background(), 60)
	require.ErrorIs(t, err, fault.ErrDeviceReported)
	assert.Equal(t, "Flash busy", fault.UserMessage(err))
}

func TestReadTagWithoutTag(t *testing.T) {
	d, _ := simDevice(t, sim.DefaultConfig(), Config{})

	_, _, err := d.ReadTag(context.Background())
	require.ErrorIs(t, err, fault.ErrDeviceReported)
	assert.Contains(t, err.Error(), sim.ErrNoTag)
}

func TestMiniRejectsUnsupported(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	d := New(rec, linkFlag(true), Config{Model: ModelHaloMini{}})

	_, err := d.GetStorage(ctx)
	assert.ErrorIs(t, err, fault.ErrValidationFailed)
	_, _, err = d.ReadTag(ctx)
	assert.ErrorIs(t, err, fault.ErrValidationFailed)
	_, err = d.WriteTag(ctx, "x")
	assert.ErrorIs(t, err, fault.ErrValidationFailed)
	assert.ErrorIs(t, d.AckTag(ctx), fault.ErrValidationFailed)
	_, err = d.SetEffect(ctx, "rainbow")
	assert.ErrorIs(t, err, fault.ErrValidationFailed)

	_, err = d.SetEffect(ctx, "pulse")
	assert.NoError(t, err)
	assert.Equal(t, 1, rec.writes())
}

func TestLinkUnavailableWithoutStore(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	d := New(rec, linkFlag(false), Config{DeviceID: "halo-1", Identity: "user-1"})

	_, err := d.SetBrightness(ctx, 50)
	assert.ErrorIs(t, err, fault.ErrLinkUnavailable)
	_, err = d.GetBrightness(ctx)
	assert.ErrorIs(t, err, fault.ErrLinkUnavailable)
	_, err = d.SetSleepTimeout(ctx, 60)
	assert.ErrorIs(t, err, fault.ErrLinkUnavailable)
	assert.Zero(t, rec.writes())
}

func TestFallbackWritesToStore(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	store := mocks.NewMockStore(t)
	store.EXPECT().
		UpdateDeviceConfig(mock.Anything, "halo-1", configstore.Patch{configstore.FieldBrightness: 50}, "user-1").
		Return(configstore.Config{DeviceID: "halo-1", Brightness: 50}, nil).
		Once()

	d := New(rec, linkFlag(false), Config{Store: store, DeviceID: "halo-1", Identity: "user-1"})

	r, err := d.SetBrightness(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, AckStored, r.Ack)
	require.NotNil(t, r.Stored)
	assert.Equal(t, 50, r.Stored.Brightness)
	assert.Zero(t, rec.writes())
}

func TestFallbackCoversSettingCommands(t *testing.T) {
	ctx := context.Background()
	store := configstore.NewMemory()
	d := New(&recorder{}, linkFlag(false), Config{Store: store})

	_, err := d.SetColor(ctx, "#123456")
	assert.ErrorIs(t, err, fault.ErrLinkUnavailable, "unbound device has no fallback")

	d.Bind("halo-1", "user-1")
	for _, call := range []func() (Result, error){
		func() (Result, error) { return d.SetColor(ctx, "#123456") },
		func() (Result, error) { return d.SetEffect(ctx, "chase") },
		func() (Result, error) { return d.SetSleepTimeout(ctx, 120) },
	} {
		r, err := call()
		require.NoError(t, err)
		assert.Equal(t, AckStored, r.Ack)
	}

	_, err = d.Reset(ctx)
	assert.ErrorIs(t, err, fault.ErrLinkUnavailable, "reset has nothing to store")

	c, err := store.GetDeviceConfig(ctx, "halo-1")
	require.NoError(t, err)
	assert.Equal(t, "#123456", c.Color)
	assert.Equal(t, "chase", c.Effect)
	assert.Equal(t, 120, c.SleepTimeout)
	assert.Equal(t, "user-1", c.UpdatedBy)
}

func TestFallbackStoreFailure(t *testing.T) {
	store := mocks.NewMockStore(t)
	store.EXPECT().
		UpdateDeviceConfig(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(configstore.Config{}, errors.New("store offline"))

	d := New(&recorder{}, linkFlag(false), Config{Store: store, DeviceID: "halo-1", Identity: "u"})
	_, err := d.SetBrightness(context.Background(), 50)
	assert.ErrorIs(t, err, fault.ErrLinkUnavailable)
	assert.Contains(t, err.Error(), "store offline")
}

func TestTransportErrorsPropagate(t *testing.T) {
	rec := &recorder{err: fault.Timeout(wire.KindBrightnessGet)}
	d := New(rec, nil, Config{})

	_, err := d.GetBrightness(context.Background())
	assert.ErrorIs(t, err, fault.ErrTimeout)
}

func TestMissingResponseField(t *testing.T) {
	rec := &recorder{reply: &wire.Response{Kind: wire.KindBrightnessGet, Status: wire.StatusSuccess}}
	d := New(rec, nil, Config{})

	_, err := d.GetBrightness(context.Background())
	assert.ErrorIs(t, err, fault.ErrDecodeFailed)
}
