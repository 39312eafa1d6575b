package interaction

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halo-device/halo-go/pkg/wire"
)

func TestSubscriptionKindFilter(t *testing.T) {
	tests := []struct {
		name  string
		kinds []string
		kind  string
		want  bool
	}{
		{"AllKinds", nil, wire.KindTagRead, true},
		{"Listed", []string{wire.KindTagRead, wire.KindTagWritten}, wire.KindTagWritten, true},
		{"NotListed", []string{wire.KindTagRead}, wire.KindBrightnessGet, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subscription{}
			if len(tt.kinds) > 0 {
				s.Kinds = map[string]bool{}
				for _, k := range tt.kinds {
					s.Kinds[k] = true
				}
			}
			assert.Equal(t, tt.want, s.IsSubscribedTo(tt.kind))
		})
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, Config{})
	defer c.Close()

	var mu sync.Mutex
	var all, tags []string
	c.Subscribe(func(r *wire.Response) {
		mu.Lock()
		all = append(all, r.Kind)
		mu.Unlock()
	})
	c.Subscribe(func(r *wire.Response) {
		mu.Lock()
		tags = append(tags, r.Kind)
		mu.Unlock()
	}, wire.KindTagRead)
	assert.Equal(t, 2, c.Subscribers())

	conn.deliver(`{"message":"BRIGHTNESS_GET","status":"success","brightness":5}`)
	conn.deliver(`{"message":"TAG_READ","status":"error","error":"No tag present"}`)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{wire.KindBrightnessGet, wire.KindTagRead}, all)
	assert.Equal(t, []string{wire.KindTagRead}, tags)
}

func TestBroadcastAlsoSeesResolvedResponses(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, Config{})
	defer c.Close()

	got := make(chan *wire.Response, 1)
	c.Subscribe(func(r *wire.Response) { got <- r }, wire.KindStorageGet)

	go c.SendAndWait(t.Context(), wire.NewCommand(wire.KindGetStorage, nil), wire.KindStorageGet, time.Second)
	require.Eventually(t, func() bool { return c.Pending() == 1 }, time.Second, time.Millisecond)

	conn.deliver(`{"message":"STORAGE_GET","status":"success","total":10,"used":2,"free":8}`)

	select {
	case r := <-got:
		v, _ := r.Int(wire.FieldFree)
		assert.Equal(t, int64(8), v)
	case <-time.After(time.Second):
		t.Fatal("subscriber not called")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, Config{})
	defer c.Close()

	calls := 0
	unsubscribe := c.Subscribe(func(*wire.Response) { calls++ })

	conn.deliver(`{"message":"TAG_WRITTEN","status":"success","uid":"04"}`)
	unsubscribe()
	unsubscribe()
	conn.deliver(`{"message":"TAG_WRITTEN","status":"success","uid":"04"}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, c.Subscribers())
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, Config{})
	defer c.Close()

	c.Subscribe(func(*wire.Response) { panic("boom") })
	calls := 0
	c.Subscribe(func(*wire.Response) { calls++ })

	assert.NotPanics(t, func() {
		conn.deliver(`{"message":"TAG_READ","status":"success","uid":"04","content":"x"}`)
	})
	assert.Equal(t, 1, calls)
}
