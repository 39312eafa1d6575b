package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Codec errors.
var (
	ErrNotObject     = errors.New("frame is not a JSON object")
	ErrMissingKind   = errors.New("frame has no kind")
	ErrMissingStatus = errors.New("frame has no status")
	ErrInvalidStatus = errors.New("frame has invalid status")
	ErrInvalidError  = errors.New("frame error text is not a string")
)

// DecodeError wraps any failure to turn raw bytes into a frame.
type DecodeError struct {
	Frame []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeCommand encodes a command to a JSON text frame.
func EncodeCommand(cmd *Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	m := make(map[string]any, len(cmd.Params)+1)
	for k, v := range cmd.Params {
		m[k] = v
	}
	m[KeyCommand] = cmd.Kind
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Kind, err)
	}
	return data, nil
}

// DecodeCommand decodes a JSON text frame into a command.
// Used by device-side code (the simulator) and capture tooling.
func DecodeCommand(data []byte) (*Command, error) {
	m, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	kind, ok := m[KeyCommand].(string)
	if !ok || kind == "" {
		return nil, &DecodeError{Frame: data, Err: ErrMissingKind}
	}
	delete(m, KeyCommand)
	if len(m) == 0 {
		m = nil
	}
	return &Command{Kind: kind, Params: m}, nil
}

// EncodeResponse encodes a response to a JSON text frame.
func EncodeResponse(resp *Response) ([]byte, error) {
	if resp.Kind == "" {
		return nil, ErrMissingKind
	}
	if !resp.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	m := make(map[string]any, len(resp.Fields)+3)
	for k, v := range resp.Fields {
		m[k] = v
	}
	m[KeyMessage] = resp.Kind
	m[KeyStatus] = string(resp.Status)
	if resp.Error != "" {
		m[KeyError] = resp.Error
	}
	return json.Marshal(m)
}

// DecodeResponse decodes a JSON text frame into a response.
// Frames without a message kind or a valid status are rejected rather
// than guessed at.
func DecodeResponse(data []byte) (*Response, error) {
	m, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	kind, ok := m[KeyMessage].(string)
	if !ok || kind == "" {
		return nil, &DecodeError{Frame: data, Err: ErrMissingKind}
	}
	rawStatus, ok := m[KeyStatus]
	if !ok {
		return nil, &DecodeError{Frame: data, Err: ErrMissingStatus}
	}
	status, ok := rawStatus.(string)
	if !ok || !Status(status).IsValid() {
		return nil, &DecodeError{Frame: data, Err: fmt.Errorf("%w: %v", ErrInvalidStatus, rawStatus)}
	}

	resp := &Response{Kind: kind, Status: Status(status)}
	if rawError, ok := m[KeyError]; ok && rawError != nil {
		e, ok := rawError.(string)
		if !ok {
			return nil, &DecodeError{Frame: data, Err: fmt.Errorf("%w: %v", ErrInvalidError, rawError)}
		}
		resp.Error = e
	}

	delete(m, KeyMessage)
	delete(m, KeyStatus)
	delete(m, KeyError)
	if len(m) > 0 {
		resp.Fields = m
	}
	return resp, nil
}

func decodeObject(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &DecodeError{Frame: data, Err: ErrNotObject}
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &DecodeError{Frame: data, Err: err}
	}
	if dec.More() {
		return nil, &DecodeError{Frame: data, Err: errors.New("trailing data after frame")}
	}
	return m, nil
}
