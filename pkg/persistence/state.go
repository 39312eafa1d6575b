package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/halo-device/halo-go/pkg/link"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ControllerState is the persisted controller state.
type ControllerState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Identity is the external identity settings are mirrored for.
	Identity string `json:"identity,omitempty"`

	// LastDeviceID is the device bound when the controller last exited.
	LastDeviceID string `json:"last_device_id,omitempty"`

	// Devices lists every device the controller has connected to.
	Devices []KnownDevice `json:"devices,omitempty"`
}

// KnownDevice is a device the controller has connected to before.
type KnownDevice struct {
	link.Descriptor

	// Model is the device model name ("halo", "halo-mini").
	Model string `json:"model,omitempty"`

	// FirstSeenAt is when the device was first connected.
	FirstSeenAt time.Time `json:"first_seen_at"`

	// LastSeenAt is when the device was last connected.
	LastSeenAt time.Time `json:"last_seen_at,omitempty"`
}

// Remember records a connection to desc and makes it the last device.
func (s *ControllerState) Remember(desc link.Descriptor, model string, at time.Time) {
	s.LastDeviceID = desc.ID
	for i := range s.Devices {
		if s.Devices[i].ID == desc.ID {
			s.Devices[i].Descriptor = desc
			if model != "" {
				s.Devices[i].Model = model
			}
			s.Devices[i].LastSeenAt = at
			return
		}
	}
	s.Devices = append(s.Devices, KnownDevice{
		Descriptor:  desc,
		Model:       model,
		FirstSeenAt: at,
		LastSeenAt:  at,
	})
}

// Find returns the known device whose id or display name matches key
// (names compare case-insensitively).
func (s *ControllerState) Find(key string) (KnownDevice, bool) {
	for _, d := range s.Devices {
		if d.ID == key || (d.DisplayName != "" && strings.EqualFold(d.DisplayName, key)) {
			return d, true
		}
	}
	return KnownDevice{}, false
}

// Last returns the last bound device, if it is still known.
func (s *ControllerState) Last() (KnownDevice, bool) {
	if s.LastDeviceID == "" {
		return KnownDevice{}, false
	}
	return s.Find(s.LastDeviceID)
}

// Forget removes a device. It returns false if the device was unknown.
func (s *ControllerState) Forget(id string) bool {
	i := slices.IndexFunc(s.Devices, func(d KnownDevice) bool { return d.ID == id })
	if i < 0 {
		return false
	}
	s.Devices = slices.Delete(s.Devices, i, i+1)
	if s.LastDeviceID == id {
		s.LastDeviceID = ""
	}
	return true
}

// ControllerStateStore manages persistence of controller state to a JSON
// file.
type ControllerStateStore struct {
	mu   sync.Mutex
	path string
}

// NewControllerStateStore creates a new controller state store.
func NewControllerStateStore(path string) *ControllerStateStore {
	return &ControllerStateStore{path: path}
}

// Path returns the state file path.
func (s *ControllerStateStore) Path() string {
	return s.path
}

// Save persists the controller state to disk. The file is replaced
// atomically.
func (s *ControllerStateStore) Save(state *ControllerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load reads the controller state from disk.
// Returns an empty state if the file doesn't exist.
func (s *ControllerStateStore) Load() (*ControllerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &ControllerState{Version: StateVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ControllerState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%s: state version %d is newer than supported %d", s.path, state.Version, StateVersion)
	}

	return state, nil
}

// Clear removes the state file.
func (s *ControllerStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
