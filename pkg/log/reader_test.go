package log

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.hlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, e)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, ConnectionID: "c1", Direction: DirectionOut, Layer: LayerWire, Category: CategoryMessage,
			DeviceID: "halo-1", Message: &MessageEvent{Type: MessageTypeCommand, Kind: "GET_STORAGE"}},
		{Timestamp: base.Add(time.Second), ConnectionID: "c1", Direction: DirectionIn, Layer: LayerWire, Category: CategoryMessage,
			DeviceID: "halo-1", Message: &MessageEvent{Type: MessageTypeResponse, Kind: "STORAGE_GET", Status: "success"}},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "c1", Layer: LayerService, Category: CategoryCorrelation,
			DeviceID: "halo-1", Correlation: &CorrelationEvent{ExpectedKind: "STORAGE_GET", Outcome: OutcomeResolved}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "c2", Layer: LayerService, Category: CategoryState,
			DeviceID: "halo-2", StateChange: &StateChangeEvent{Entity: StateEntityConnection, NewState: "Connected"}},
	}
	path := createTestLogFile(t, events)

	in := DirectionIn
	state := CategoryState
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"All", Filter{}, 4},
		{"Connection", Filter{ConnectionID: "c1"}, 3},
		{"Direction", Filter{Direction: &in}, 1},
		{"Category", Filter{Category: &state}, 1},
		{"Device", Filter{DeviceID: "halo-2"}, 1},
		{"KindMatchesMessageAndCorrelation", Filter{Kind: "STORAGE_GET"}, 2},
		{"TimeWindow", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"NoMatch", Filter{ConnectionID: "missing"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			if got := len(readAll(t, r)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderPreservesOrder(t *testing.T) {
	path := createTestLogFile(t, []Event{
		{ConnectionID: "conn-1"}, {ConnectionID: "conn-2"}, {ConnectionID: "conn-3"},
	})
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got := readAll(t, r)
	if len(got) != 3 || got[0].ConnectionID != "conn-1" || got[2].ConnectionID != "conn-3" {
		t.Errorf("events = %v", got)
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.hlog")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewReaderChecksHeader(t *testing.T) {
	dir := t.TempDir()

	t.Run("Empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.hlog")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewReader(path); !errors.Is(err, ErrNotCapture) {
			t.Errorf("err = %v, want ErrNotCapture", err)
		}
	})

	t.Run("BareEvents", func(t *testing.T) {
		path := filepath.Join(dir, "bare.hlog")
		data, err := EncodeEvent(Event{Timestamp: time.Now(), ConnectionID: "c"})
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewReader(path); !errors.Is(err, ErrNotCapture) {
			t.Errorf("err = %v, want ErrNotCapture", err)
		}
	})

	t.Run("NewerVersion", func(t *testing.T) {
		path := filepath.Join(dir, "future.hlog")
		var buf bytes.Buffer
		h := newHeader(time.Now(), "")
		h.Version = FormatVersion + 1
		if err := NewEncoder(&buf).Encode(h); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewReader(path); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("err = %v, want ErrUnsupportedVersion", err)
		}
	})
}
