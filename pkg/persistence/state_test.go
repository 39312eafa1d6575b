package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/halo-device/halo-go/pkg/link"
)

var (
	desk = link.Descriptor{ID: "halo-1", DisplayName: "Desk", Address: "AA:BB:CC:DD:EE:01"}
	bed  = link.Descriptor{ID: "halo-2", DisplayName: "Bed", Address: "/dev/ttyACM0"}
)

func TestControllerStateStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewControllerStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got == nil || len(got.Devices) != 0 {
			t.Errorf("Load() = %+v, want empty state", got)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store := NewControllerStateStore(filepath.Join(t.TempDir(), "nested", "state.json"))

		now := time.Now().Truncate(time.Second)
		state := &ControllerState{Identity: "user-1"}
		state.Remember(desk, "halo", now)
		state.Remember(bed, "halo-mini", now.Add(time.Minute))

		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.Identity != "user-1" {
			t.Errorf("Identity = %q, want user-1", got.Identity)
		}
		if len(got.Devices) != 2 {
			t.Fatalf("len(Devices) = %d, want 2", len(got.Devices))
		}
		last, ok := got.Last()
		if !ok || last.Descriptor != bed || last.Model != "halo-mini" {
			t.Errorf("Last() = %+v, %v", last, ok)
		}
	})

	t.Run("NoTempFilesLeft", func(t *testing.T) {
		dir := t.TempDir()
		store := NewControllerStateStore(filepath.Join(dir, "state.json"))
		for i := 0; i < 3; i++ {
			if err := store.Save(&ControllerState{}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("dir has %d entries, want 1", len(entries))
		}
	})

	t.Run("RejectsNewerVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewControllerStateStore(path).Load(); err == nil {
			t.Error("Load() should reject a newer version")
		}
	})

	t.Run("RejectsGarbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewControllerStateStore(path).Load(); err == nil {
			t.Error("Load() should fail on invalid JSON")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewControllerStateStore(filepath.Join(t.TempDir(), "state.json"))
		if err := store.Save(&ControllerState{}); err != nil {
			t.Fatal(err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Errorf("Clear() on missing file error = %v", err)
		}
		if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
			t.Error("state file still exists")
		}
	})
}

func TestControllerStateDevices(t *testing.T) {
	t.Run("RememberUpdatesExisting", func(t *testing.T) {
		first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		s := &ControllerState{}
		s.Remember(desk, "halo", first)

		moved := desk
		moved.Address = "AA:BB:CC:DD:EE:99"
		s.Remember(moved, "", first.Add(time.Hour))

		if len(s.Devices) != 1 {
			t.Fatalf("len(Devices) = %d, want 1", len(s.Devices))
		}
		d := s.Devices[0]
		if d.Address != moved.Address {
			t.Errorf("Address = %q, want %q", d.Address, moved.Address)
		}
		if d.Model != "halo" {
			t.Errorf("Model = %q, want halo", d.Model)
		}
		if !d.FirstSeenAt.Equal(first) || !d.LastSeenAt.Equal(first.Add(time.Hour)) {
			t.Errorf("seen = %v..%v", d.FirstSeenAt, d.LastSeenAt)
		}
	})

	t.Run("FindByIDOrName", func(t *testing.T) {
		s := &ControllerState{}
		s.Remember(desk, "", time.Now())
		s.Remember(bed, "", time.Now())

		if d, ok := s.Find("halo-2"); !ok || d.ID != "halo-2" {
			t.Errorf("Find(id) = %+v, %v", d, ok)
		}
		if d, ok := s.Find("desk"); !ok || d.ID != "halo-1" {
			t.Errorf("Find(name) = %+v, %v", d, ok)
		}
		if _, ok := s.Find("kitchen"); ok {
			t.Error("Find(unknown) should fail")
		}
	})

	t.Run("Forget", func(t *testing.T) {
		s := &ControllerState{}
		s.Remember(desk, "", time.Now())

		if !s.Forget("halo-1") {
			t.Fatal("Forget() = false")
		}
		if s.Forget("halo-1") {
			t.Error("second Forget() = true")
		}
		if _, ok := s.Last(); ok {
			t.Error("Last() should be empty after forgetting it")
		}
	})
}
