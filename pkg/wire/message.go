package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Command is an outbound frame from controller to device.
//
// JSON encoding:
//
//	{
//	  "command": "<kind>",
//	  ...params
//	}
type Command struct {
	Kind   string
	Params map[string]any
}

// NewCommand creates a command with optional key/value params.
func NewCommand(kind string, params map[string]any) *Command {
	return &Command{Kind: kind, Params: params}
}

// Validate checks if the command can be encoded.
func (c *Command) Validate() error {
	if c.Kind == "" {
		return fmt.Errorf("command kind is empty")
	}
	if _, ok := c.Params[KeyCommand]; ok {
		return fmt.Errorf("param %q is reserved", KeyCommand)
	}
	return nil
}

// Response is an inbound frame from device to controller.
//
// JSON encoding:
//
//	{
//	  "message": "<kind>",
//	  "status": "success" | "error",
//	  "error": "<text>",   // optional
//	  ...fields
//	}
type Response struct {
	Kind   string
	Status Status

	// Error is the device-supplied error text (status=error only).
	Error string

	// Fields holds every key other than message/status/error.
	// Numbers are kept as json.Number to avoid precision loss.
	Fields map[string]any
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Has returns true if the response carries the named field.
func (r *Response) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// Int returns the named field as an integer.
func (r *Response) Int(name string) (int64, bool) {
	return ToInt64(r.Fields[name])
}

// String returns the named field as a string.
func (r *Response) String(name string) (string, bool) {
	s, ok := r.Fields[name].(string)
	return s, ok
}

// Bool returns the named field as a bool.
func (r *Response) Bool(name string) (bool, bool) {
	b, ok := r.Fields[name].(bool)
	return b, ok
}

// Decode unmarshals the response fields into v (a pointer to a struct with
// json tags).
func (r *Response) Decode(v any) error {
	data, err := json.Marshal(r.Fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ToInt64 converts a decoded JSON value to int64.
// Non-integral floats are rejected.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// floatToInt64 accepts only whole numbers inside the int64 range.
func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
