package configstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/halo-device/halo-go/pkg/wire"
)

// Patch field names.
const (
	FieldBrightness   = "brightness"
	FieldSleepTimeout = "sleepTimeout"
	FieldColor        = "color"
	FieldEffect       = "effect"
	FieldStorage      = "storage"
)

// Patch errors.
var (
	ErrUnknownField = errors.New("unknown config field")
	ErrFieldType    = errors.New("config field has wrong type")
)

// Storage is the device's storage usage in bytes.
type Storage struct {
	Total int `json:"total" yaml:"total"`
	Used  int `json:"used" yaml:"used"`
	Free  int `json:"free" yaml:"free"`
}

// Config is the persisted configuration record of one device.
type Config struct {
	DeviceID     string    `json:"deviceId"`
	Brightness   int       `json:"brightness,omitempty"`
	SleepTimeout int       `json:"sleepTimeout"`
	Color        string    `json:"color,omitempty"`
	Effect       string    `json:"effect,omitempty"`
	Storage      *Storage  `json:"storage,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
}

// Patch is a partial config update: field name to new value.
type Patch map[string]any

// Fields returns the patch's field names.
func (p Patch) Fields() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	return out
}

// Validate checks that every field is known and carries a usable value.
func (p Patch) Validate() error {
	var c Config
	return c.apply(p)
}

// Apply returns c with p merged in. Integer fields accept any JSON number
// representation; storage accepts a Storage, *Storage or a map with
// total/used/free.
func (c Config) Apply(p Patch) (Config, error) {
	out := c
	if c.Storage != nil {
		s := *c.Storage
		out.Storage = &s
	}
	if err := out.apply(p); err != nil {
		return c, err
	}
	return out, nil
}

func (c *Config) apply(p Patch) error {
	for field, v := range p {
		switch field {
		case FieldBrightness:
			n, ok := wire.ToInt64(v)
			if !ok {
				return fieldError(field, v)
			}
			c.Brightness = int(n)
		case FieldSleepTimeout:
			n, ok := wire.ToInt64(v)
			if !ok {
				return fieldError(field, v)
			}
			c.SleepTimeout = int(n)
		case FieldColor:
			s, ok := v.(string)
			if !ok {
				return fieldError(field, v)
			}
			c.Color = s
		case FieldEffect:
			s, ok := v.(string)
			if !ok {
				return fieldError(field, v)
			}
			c.Effect = s
		case FieldStorage:
			s, err := toStorage(v)
			if err != nil {
				return err
			}
			c.Storage = s
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	return nil
}

func toStorage(v any) (*Storage, error) {
	switch s := v.(type) {
	case Storage:
		return &s, nil
	case *Storage:
		if s == nil {
			return nil, fieldError(FieldStorage, v)
		}
		cp := *s
		return &cp, nil
	case map[string]any:
		var out Storage
		for key, dst := range map[string]*int{"total": &out.Total, "used": &out.Used, "free": &out.Free} {
			n, ok := wire.ToInt64(s[key])
			if !ok {
				return nil, fieldError(FieldStorage+"."+key, s[key])
			}
			*dst = int(n)
		}
		return &out, nil
	}
	return nil, fieldError(FieldStorage, v)
}

func fieldError(field string, v any) error {
	return fmt.Errorf("%w: %s = %v (%T)", ErrFieldType, field, v, v)
}
