package configstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store and TagRegistry.
type Memory struct {
	mu      sync.Mutex
	configs map[string]Config
	tags    map[string]TagRecord
	updates int
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		configs: make(map[string]Config),
		tags:    make(map[string]TagRecord),
		now:     time.Now,
	}
}

// UpdateDeviceConfig implements Store.
func (m *Memory) UpdateDeviceConfig(ctx context.Context, deviceID string, patch Patch, identity string) (Config, error) {
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}
	if err := ValidateUpdate(deviceID, patch, identity); err != nil {
		return Config{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.configs[deviceID]
	if !ok {
		cur = Config{DeviceID: deviceID}
	}
	next, err := cur.Apply(patch)
	if err != nil {
		return Config{}, err
	}
	next.UpdatedAt = m.now()
	next.UpdatedBy = identity
	m.configs[deviceID] = next
	m.updates++
	return next, nil
}

// GetDeviceConfig implements Store.
func (m *Memory) GetDeviceConfig(ctx context.Context, deviceID string) (Config, error) {
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.configs[deviceID]
	if !ok {
		return Config{}, ErrDeviceNotFound
	}
	return c, nil
}

// Updates returns the number of successful UpdateDeviceConfig calls.
func (m *Memory) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// CreateTag implements TagRegistry.
func (m *Memory) CreateTag(ctx context.Context, deviceID, content string) (TagRecord, error) {
	if err := ctx.Err(); err != nil {
		return TagRecord{}, err
	}
	if deviceID == "" {
		return TagRecord{}, ErrEmptyDeviceID
	}
	now := m.now()
	rec := TagRecord{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Content:   content,
		State:     TagPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	m.tags[rec.ID] = rec
	m.mu.Unlock()
	return rec, nil
}

// MarkTagWritten implements TagRegistry.
func (m *Memory) MarkTagWritten(ctx context.Context, id, uid string) (TagRecord, error) {
	if err := ctx.Err(); err != nil {
		return TagRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tags[id]
	if !ok {
		return TagRecord{}, ErrTagNotFound
	}
	if rec.State == TagWritten {
		return TagRecord{}, ErrTagAlreadyWritten
	}
	rec.UID = uid
	rec.State = TagWritten
	rec.UpdatedAt = m.now()
	m.tags[id] = rec
	return rec, nil
}

// Tag returns the record with id.
func (m *Memory) Tag(id string) (TagRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tags[id]
	return rec, ok
}

// Tags returns all records, in no particular order.
func (m *Memory) Tags() []TagRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TagRecord, 0, len(m.tags))
	for _, r := range m.tags {
		out = append(out, r)
	}
	return out
}

var (
	_ Store       = (*Memory)(nil)
	_ TagRegistry = (*Memory)(nil)
)
