package mirror

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
	"github.com/halo-device/halo-go/pkg/interaction"
	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/link/sim"
	"github.com/halo-device/halo-go/pkg/wire"
)

var testDesc = link.Descriptor{ID: "D", Address: "sim"}

// fakeStream records subscribe and unsubscribe calls in order.
type fakeStream struct {
	mu     sync.Mutex
	calls  []string
	active map[int]func(*wire.Response)
	next   int
}

func newFakeStream() *fakeStream {
	return &fakeStream{active: make(map[int]func(*wire.Response))}
}

func (f *fakeStream) Subscribe(fn func(*wire.Response), kinds ...string) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	f.active[id] = fn
	f.calls = append(f.calls, "subscribe")
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.active, id)
		f.calls = append(f.calls, "unsubscribe")
	}
}

func (f *fakeStream) publish(resp *wire.Response) {
	f.mu.Lock()
	fns := make([]func(*wire.Response), 0, len(f.active))
	for _, fn := range f.active {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(resp)
	}
}

func (f *fakeStream) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func (f *fakeStream) history() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeConn is a ConnectionSource driven by the test.
type fakeConn struct {
	mu        sync.Mutex
	connected bool
	desc      link.Descriptor
	listener  connection.StateListener
}

func (f *fakeConn) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConn) Descriptor() link.Descriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.desc.ID == "" {
		return testDesc
	}
	return f.desc
}

func (f *fakeConn) OnStateChange(fn connection.StateListener) func() {
	f.mu.Lock()
	f.listener = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.listener = nil
		f.mu.Unlock()
	}
}

func (f *fakeConn) set(connected bool) {
	f.switchTo(f.Descriptor(), connected)
}

func (f *fakeConn) switchTo(desc link.Descriptor, connected bool) {
	f.mu.Lock()
	old := f.connected
	f.connected = connected
	f.desc = desc
	fn := f.listener
	f.mu.Unlock()

	t := connection.Transition{Old: stateOf(old), New: stateOf(connected), Descriptor: desc}
	if fn != nil {
		fn(t)
	}
}

func stateOf(connected bool) connection.State {
	if connected {
		return connection.StateConnected
	}
	return connection.StateDisconnected
}

func brightness(v int) *wire.Response {
	return &wire.Response{Kind: wire.KindBrightnessGet, Status: wire.StatusSuccess,
		Fields: map[string]any{wire.FieldBrightness: v}}
}

func TestActivationPredicate(t *testing.T) {
	stream := newFakeStream()
	conn := &fakeConn{}
	m := New(stream, conn, Config{Store: configstore.NewMemory()})
	defer m.Close()

	m.SetDevice("D")
	assert.False(t, m.Active())
	m.SetIdentity("U")
	assert.False(t, m.Active(), "not connected")

	conn.set(true)
	assert.True(t, m.Active())
	assert.Equal(t, 1, stream.live())

	conn.set(false)
	assert.False(t, m.Active())
	assert.Equal(t, 0, stream.live())

	conn.set(true)
	m.SetIdentity("")
	assert.False(t, m.Active())
	assert.Equal(t, 0, stream.live())
}

func TestReactivationIsNoop(t *testing.T) {
	stream := newFakeStream()
	conn := &fakeConn{connected: true}
	m := New(stream, conn, Config{Store: configstore.NewMemory()})
	defer m.Close()

	m.SetDevice("D")
	m.SetIdentity("U")
	require.True(t, m.Active())

	m.SetDevice("D")
	m.SetIdentity("U")
	conn.set(true)

	assert.Equal(t, []string{"subscribe"}, stream.history())
	assert.Equal(t, 1, stream.live())
}

func TestIdentityChangeUnsubscribesFirst(t *testing.T) {
	stream := newFakeStream()
	conn := &fakeConn{connected: true}
	m := New(stream, conn, Config{Store: configstore.NewMemory()})
	defer m.Close()

	m.SetDevice("D")
	m.SetIdentity("U1")
	m.SetIdentity("U2")
	conn.switchTo(link.Descriptor{ID: "D2", Address: "sim"}, true)
	m.SetDevice("D2")

	assert.Equal(t, []string{"subscribe", "unsubscribe", "subscribe", "unsubscribe", "subscribe"}, stream.history())
	assert.Equal(t, 1, stream.live())
}

func TestBoundDeviceMustBeConnected(t *testing.T) {
	stream := newFakeStream()
	conn := &fakeConn{connected: true}
	m := New(stream, conn, Config{Store: configstore.NewMemory()})
	defer m.Close()

	m.SetIdentity("U")
	m.SetDevice("other")
	assert.False(t, m.Active(), "bound device is not the connected one")

	m.SetDevice("D")
	assert.True(t, m.Active())

	conn.switchTo(link.Descriptor{ID: "D2", Address: "sim"}, true)
	assert.False(t, m.Active())
	assert.Equal(t, 0, stream.live())
}

func TestDeviceSwitchDoesNotMirrorUnderOldID(t *testing.T) {
	devA := sim.New(sim.DefaultConfig())
	devB := sim.New(sim.DefaultConfig())
	descA := link.Descriptor{ID: "A", Address: "sim-a"}
	descB := link.Descriptor{ID: "B", Address: "sim-b"}
	dial := func(d link.Descriptor) (link.Link, error) {
		if d == descB {
			return devB, nil
		}
		return devA, nil
	}
	mgr := connection.NewManager(connection.Config{Dialer: dial})
	client := interaction.NewClient(mgr, interaction.Config{})
	defer mgr.Disconnect()
	defer client.Close()

	store := configstore.NewMemory()
	stored := make(chan Update, 4)
	m := New(client, mgr, Config{
		Store:     store,
		OnSuccess: func(u Update, _ configstore.Config) { stored <- u },
	})
	defer m.Close()

	m.SetIdentity("U")
	require.NoError(t, mgr.Connect(context.Background(), descA))
	m.SetDevice("A")
	require.True(t, m.Active())

	require.NoError(t, mgr.Connect(context.Background(), descB))
	assert.False(t, m.Active(), "still bound to A while B is connected")
	assert.Equal(t, 0, client.Subscribers())

	require.NoError(t, devB.Push(brightness(42)))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, stored, 0)
	_, err := store.GetDeviceConfig(context.Background(), "A")
	assert.ErrorIs(t, err, configstore.ErrDeviceNotFound)

	m.SetDevice("B")
	require.True(t, m.Active())
	require.NoError(t, devB.Push(brightness(55)))

	select {
	case u := <-stored:
		assert.Equal(t, "B", u.DeviceID)
		assert.Equal(t, configstore.Patch{configstore.FieldBrightness: 55}, u.Patch)
	case <-time.After(time.Second):
		t.Fatal("no update for B")
	}
}

func TestUpdatesCarrySubscriptionPair(t *testing.T) {
	stream := newFakeStream()
	conn := &fakeConn{connected: true}
	got := make(chan Update, 4)
	m := New(stream, conn, Config{
		Store:     configstore.NewMemory(),
		OnSuccess: func(u Update, _ configstore.Config) { got <- u },
	})
	defer m.Close()

	m.SetDevice("D")
	m.SetIdentity("U")
	stream.publish(brightness(70))

	select {
	case u := <-got:
		assert.Equal(t, "D", u.DeviceID)
		assert.Equal(t, "U", u.Identity)
		assert.Equal(t, configstore.Patch{configstore.FieldBrightness: 70}, u.Patch)
	case <-time.After(time.Second):
		t.Fatal("no update")
	}
}

func TestSyncOneUpdatePerResponse(t *testing.T) {
	store := mocks.NewMockStore(t)
	called := make(chan struct{}, 4)
	store.EXPECT().
		UpdateDeviceConfig(mock.Anything, "D", configstore.Patch{configstore.FieldBrightness: 80}, "U").
		Run(func(context.Context, string, configstore.Patch, string) { called <- struct{}{} }).
		Return(configstore.Config{DeviceID: "D", Brightness: 80}, nil).
		Once()

	dev := sim.New(sim.DefaultConfig())
	mgr := connection.NewManager(connection.Config{Dialer: dev.Dialer()})
	require.NoError(t, mgr.Connect(context.Background(), testDesc))
	client := interaction.NewClient(mgr, interaction.Config{})
	defer mgr.Disconnect()
	defer client.Close()

	m := New(client, mgr, Config{Store: store})
	defer m.Close()

	m.SetDevice("D")
	m.SetIdentity("U")
	require.True(t, m.Active())
	assert.Equal(t, 1, client.Subscribers())

	// a second activation for the same pair adds no subscription
	m.SetDevice("D")
	assert.Equal(t, 1, client.Subscribers())

	_, err := client.SendAndWait(context.Background(),
		wire.NewCommand(wire.KindGetBrightness, nil), wire.KindBrightnessGet, time.Second)
	require.NoError(t, err)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("store not called")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, called, 0)
}

func TestLinkLossDeactivates(t *testing.T) {
	dev := sim.New(sim.DefaultConfig())
	mgr := connection.NewManager(connection.Config{Dialer: dev.Dialer()})
	require.NoError(t, mgr.Connect(context.Background(), testDesc))
	client := interaction.NewClient(mgr, interaction.Config{})
	defer client.Close()

	m := New(client, mgr, Config{Store: configstore.NewMemory()})
	defer m.Close()
	m.SetDevice("D")
	m.SetIdentity("U")
	require.True(t, m.Active())

	dev.Drop()
	require.Eventually(t, func() bool { return !m.Active() }, time.Second, time.Millisecond)
	assert.Equal(t, 0, client.Subscribers())

	require.NoError(t, mgr.Connect(context.Background(), testDesc))
	assert.True(t, m.Active())
	assert.Equal(t, 1, client.Subscribers())
	mgr.Disconnect()
	assert.False(t, m.Active())
}

func TestStoreFailureIsReported(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T) configstore.Store
		want  error
	}{
		{
			name: "Error",
			store: func(t *testing.T) configstore.Store {
				s := mocks.NewMockStore(t)
				s.EXPECT().UpdateDeviceConfig(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(configstore.Config{}, errors.New("backend down"))
				return s
			},
		},
		{
			name: "Panic",
			store: func(t *testing.T) configstore.Store {
				s := mocks.NewMockStore(t)
				s.EXPECT().UpdateDeviceConfig(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Run(func(context.Context, string, configstore.Patch, string) { panic("boom") }).
					Return(configstore.Config{}, nil)
				return s
			},
			want: ErrStorePanic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := newFakeStream()
			failures := make(chan error, 1)
			m := New(stream, &fakeConn{connected: true}, Config{
				Store:     tt.store(t),
				OnFailure: func(_ Update, err error) { failures <- err },
			})
			defer m.Close()
			m.SetDevice("D")
			m.SetIdentity("U")

			assert.NotPanics(t, func() { stream.publish(brightness(50)) })

			select {
			case err := <-failures:
				require.Error(t, err)
				if tt.want != nil {
					assert.ErrorIs(t, err, tt.want)
				}
			case <-time.After(time.Second):
				t.Fatal("failure not reported")
			}
			assert.True(t, m.Active(), "a store failure must not tear down the subscription")
		})
	}
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	release := make(chan struct{})
	store := mocks.NewMockStore(t)
	store.EXPECT().UpdateDeviceConfig(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(context.Context, string, configstore.Patch, string) { <-release }).
		Return(configstore.Config{}, nil)

	var mu sync.Mutex
	var dropped int
	stream := newFakeStream()
	m := New(stream, &fakeConn{connected: true}, Config{
		Store:     store,
		QueueSize: 1,
		OnFailure: func(_ Update, err error) {
			if errors.Is(err, ErrQueueFull) {
				mu.Lock()
				dropped++
				mu.Unlock()
			}
		},
	})
	m.SetDevice("D")
	m.SetIdentity("U")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			stream.publish(brightness(10 + i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast path blocked")
	}

	mu.Lock()
	assert.GreaterOrEqual(t, dropped, 3)
	mu.Unlock()

	close(release)
	m.Close()
}

func TestPanickingCallbackIsIsolated(t *testing.T) {
	stream := newFakeStream()
	stored := make(chan struct{}, 2)
	m := New(stream, &fakeConn{connected: true}, Config{
		Store: configstore.NewMemory(),
		OnSuccess: func(Update, configstore.Config) {
			stored <- struct{}{}
			panic("callback")
		},
	})
	defer m.Close()
	m.SetDevice("D")
	m.SetIdentity("U")

	stream.publish(brightness(20))
	stream.publish(brightness(30))

	for i := 0; i < 2; i++ {
		select {
		case <-stored:
		case <-time.After(time.Second):
			t.Fatal("worker stopped after callback panic")
		}
	}
}

func TestCloseDeactivates(t *testing.T) {
	stream := newFakeStream()
	conn := &fakeConn{connected: true}
	m := New(stream, conn, Config{Store: configstore.NewMemory()})
	m.SetDevice("D")
	m.SetIdentity("U")

	m.Close()
	m.Close()
	assert.False(t, m.Active())
	assert.Equal(t, 0, stream.live())

	conn.set(true)
	assert.Equal(t, 0, stream.live())
}

func TestPatchFor(t *testing.T) {
	tests := []struct {
		name string
		resp *wire.Response
		want configstore.Patch
	}{
		{"Brightness", brightness(42), configstore.Patch{configstore.FieldBrightness: 42}},
		{
			"TimeoutSet",
			&wire.Response{Kind: wire.KindSleepTimeoutSet, Status: wire.StatusSuccess, Fields: map[string]any{wire.FieldTimeout: 600}},
			configstore.Patch{configstore.FieldSleepTimeout: 600},
		},
		{
			"TimeoutGet",
			&wire.Response{Kind: wire.KindSleepTimeoutGet, Status: wire.StatusSuccess, Fields: map[string]any{wire.FieldTimeout: 0}},
			configstore.Patch{configstore.FieldSleepTimeout: 0},
		},
		{
			"Storage",
			&wire.Response{Kind: wire.KindStorageGet, Status: wire.StatusSuccess, Fields: map[string]any{
				wire.FieldTotal: 100, wire.FieldUsed: 40, wire.FieldFree: 60}},
			configstore.Patch{configstore.FieldStorage: configstore.Storage{Total: 100, Used: 40, Free: 60}},
		},
		{"ErrorStatus", &wire.Response{Kind: wire.KindSleepTimeoutSet, Status: wire.StatusError, Error: "x"}, nil},
		{"MissingField", &wire.Response{Kind: wire.KindBrightnessGet, Status: wire.StatusSuccess}, nil},
		{"NotSyncable", &wire.Response{Kind: wire.KindTagRead, Status: wire.StatusSuccess}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PatchFor(tt.resp)
			assert.Equal(t, tt.want != nil, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
