package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDevice(t *testing.T, cfg Config) (*Device, chan *wire.Response) {
	t.Helper()
	d := New(cfg)
	ctx := context.Background()
	require.NoError(t, d.Open(ctx))
	require.NoError(t, d.WaitReady(ctx))

	frames := make(chan *wire.Response, 16)
	_, err := d.Subscribe(func(frame []byte) {
		resp, err := wire.DecodeResponse(frame)
		if err == nil {
			frames <- resp
		}
	})
	require.NoError(t, err)
	return d, frames
}

func send(t *testing.T, d *Device, kind string, params map[string]any) {
	t.Helper()
	data, err := wire.EncodeCommand(wire.NewCommand(kind, params))
	require.NoError(t, err)
	require.NoError(t, d.Write(context.Background(), data))
}

func next(t *testing.T, frames chan *wire.Response) *wire.Response {
	t.Helper()
	select {
	case r := <-frames:
		return r
	case <-time.After(time.Second):
		t.Fatal("no reply")
		return nil
	}
}

func TestDeviceAnswersRequests(t *testing.T) {
	d, frames := openDevice(t, DefaultConfig())

	send(t, d, wire.KindBrightness, map[string]any{wire.FieldBrightness: 42})
	send(t, d, wire.KindGetBrightness, nil)
	resp := next(t, frames)
	assert.Equal(t, wire.KindBrightnessGet, resp.Kind)
	v, ok := resp.Int(wire.FieldBrightness)
	assert.True(t, ok)
	assert.EqualValues(t, 42, v)

	send(t, d, wire.KindGetStorage, nil)
	resp = next(t, frames)
	assert.Equal(t, wire.KindStorageGet, resp.Kind)
	total, _ := resp.Int(wire.FieldTotal)
	assert.EqualValues(t, 4096, total)

	assert.Equal(t, 3, d.WriteCount())
}

func TestDeviceFireAndForgetIsSilent(t *testing.T) {
	d, frames := openDevice(t, DefaultConfig())

	send(t, d, wire.KindColor, map[string]any{wire.FieldColor: "#00FF00"})
	send(t, d, wire.KindEffect, map[string]any{wire.FieldEffect: "pulse"})
	send(t, d, wire.KindTagAck, nil)

	select {
	case r := <-frames:
		t.Fatalf("unexpected reply %v", r.Kind)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, "#00FF00", d.State().Color)
	assert.Equal(t, "pulse", d.State().Effect)
}

func TestDeviceSleepTimeoutRange(t *testing.T) {
	d, frames := openDevice(t, DefaultConfig())

	send(t, d, wire.KindSleepTimeout, map[string]any{wire.FieldTimeout: 7200})
	resp := next(t, frames)
	assert.Equal(t, wire.KindSleepTimeoutSet, resp.Kind)
	assert.False(t, resp.IsSuccess())
	assert.Contains(t, resp.Error, "out of range")
}

func TestDeviceSilentAndErrorReplies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Silent = map[string]bool{wire.KindGetBrightness: true}
	cfg.ErrorReplies = map[string]string{wire.KindGetStorage: "flash busy"}
	d, frames := openDevice(t, cfg)

	send(t, d, wire.KindGetBrightness, nil)
	send(t, d, wire.KindGetStorage, nil)

	resp := next(t, frames)
	assert.Equal(t, wire.KindStorageGet, resp.Kind)
	assert.Equal(t, "flash busy", resp.Error)

	select {
	case r := <-frames:
		t.Fatalf("silent kind answered with %v", r.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeviceTagReadWrite(t *testing.T) {
	d, frames := openDevice(t, DefaultConfig())

	send(t, d, wire.KindReadTag, nil)
	resp := next(t, frames)
	assert.Equal(t, ErrNoTag, resp.Error)

	send(t, d, wire.KindWriteTag, map[string]any{wire.FieldContent: "hello"})
	resp = next(t, frames)
	require.True(t, resp.IsSuccess())
	uid, ok := resp.String(wire.FieldUID)
	require.True(t, ok)

	send(t, d, wire.KindReadTag, nil)
	resp = next(t, frames)
	got, _ := resp.String(wire.FieldUID)
	content, _ := resp.String(wire.FieldContent)
	assert.Equal(t, uid, got)
	assert.Equal(t, "hello", content)
}

func TestDeviceReplyDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delays = map[string]time.Duration{wire.KindBrightnessGet: 50 * time.Millisecond}
	d, frames := openDevice(t, cfg)

	start := time.Now()
	send(t, d, wire.KindGetBrightness, nil)
	next(t, frames)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestDeviceDropAndReopen(t *testing.T) {
	d, _ := openDevice(t, DefaultConfig())
	done := d.Done()

	d.Drop()
	select {
	case <-done:
	default:
		t.Fatal("Done not closed after Drop")
	}

	data, _ := wire.EncodeCommand(wire.NewCommand(wire.KindReset, nil))
	assert.True(t, errors.Is(d.Write(context.Background(), data), link.ErrClosed))

	require.NoError(t, d.Open(context.Background()))
	assert.Equal(t, 2, d.Opens())
	select {
	case <-d.Done():
		t.Fatal("Done closed after reopen")
	default:
	}
}

func TestDeviceForcedStepFailures(t *testing.T) {
	boom := errors.New("boom")

	d := New(Config{OpenErr: boom})
	assert.ErrorIs(t, d.Open(context.Background()), boom)

	d = New(Config{ReadyErr: link.ErrNotReady})
	require.NoError(t, d.Open(context.Background()))
	assert.ErrorIs(t, d.WaitReady(context.Background()), link.ErrNotReady)

	d = New(Config{SubscribeErr: boom})
	require.NoError(t, d.Open(context.Background()))
	_, err := d.Subscribe(func([]byte) {})
	assert.ErrorIs(t, err, boom)
}

func TestDeviceFailWrites(t *testing.T) {
	d, _ := openDevice(t, DefaultConfig())
	boom := errors.New("gatt write failed")
	d.FailWrites(boom)

	data, _ := wire.EncodeCommand(wire.NewCommand(wire.KindReset, nil))
	assert.ErrorIs(t, d.Write(context.Background(), data), boom)
	assert.Equal(t, 0, d.WriteCount())
}
