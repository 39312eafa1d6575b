package configstore

import (
	"context"
	"errors"
	"time"
)

// Store errors.
var (
	ErrEmptyDeviceID     = errors.New("device id is empty")
	ErrEmptyIdentity     = errors.New("external identity is empty")
	ErrDeviceNotFound    = errors.New("device config not found")
	ErrTagNotFound       = errors.New("tag record not found")
	ErrTagAlreadyWritten = errors.New("tag record already written")
)

// Store is the external persistence collaborator for device configs.
type Store interface {
	// UpdateDeviceConfig merges patch into the device's record on behalf
	// of identity and returns the resulting config.
	UpdateDeviceConfig(ctx context.Context, deviceID string, patch Patch, identity string) (Config, error)

	// GetDeviceConfig returns the device's current record.
	GetDeviceConfig(ctx context.Context, deviceID string) (Config, error)
}

// TagState is the lifecycle state of a TagRecord.
type TagState string

const (
	TagPending TagState = "pending"
	TagWritten TagState = "written"
)

// TagRecord tracks one proxied tag write.
type TagRecord struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	UID       string    `json:"uid,omitempty"`
	Content   string    `json:"content"`
	State     TagState  `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TagRegistry records proxied tag writes.
type TagRegistry interface {
	// CreateTag creates a pending record before the tag is touched.
	CreateTag(ctx context.Context, deviceID, content string) (TagRecord, error)

	// MarkTagWritten stores the tag uid and moves the record to written.
	MarkTagWritten(ctx context.Context, id, uid string) (TagRecord, error)
}

// ValidateUpdate checks the arguments common to every UpdateDeviceConfig
// implementation.
func ValidateUpdate(deviceID string, patch Patch, identity string) error {
	if deviceID == "" {
		return ErrEmptyDeviceID
	}
	if identity == "" {
		return ErrEmptyIdentity
	}
	return patch.Validate()
}
