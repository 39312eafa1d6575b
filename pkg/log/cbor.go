package log

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Capture file identification.
const (
	FileMagic     = "HALO-CAPTURE"
	FormatVersion = 1
)

// Capture file errors.
var (
	ErrNotCapture         = errors.New("not a HALO capture file")
	ErrUnsupportedVersion = errors.New("unsupported capture format version")
)

// Header is the first record of every capture file.
type Header struct {
	Magic   string    `cbor:"1,keyasint"`
	Version uint8     `cbor:"2,keyasint"`
	Created time.Time `cbor:"3,keyasint"`
	Host    string    `cbor:"4,keyasint,omitempty"`
}

func newHeader(now time.Time, host string) Header {
	return Header{Magic: FileMagic, Version: FormatVersion, Created: now.UTC(), Host: host}
}

func (h Header) check() error {
	if h.Magic != FileMagic {
		return ErrNotCapture
	}
	if h.Version == 0 || h.Version > FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return nil
}

// Events are written with sorted integer keys and RFC 3339 timestamps so
// two captures of the same session compare byte for byte.
var (
	encMode = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	decMode = mustDecMode(cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyQuiet,
		IndefLength:    cbor.IndefLengthAllowed,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture encoder options: %v", err))
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture decoder options: %v", err))
	}
	return m
}

// EncodeEvent returns the CBOR form of one event.
func EncodeEvent(event Event) ([]byte, error) {
	return encMode.Marshal(event)
}

// DecodeEvent parses one CBOR event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// NewEncoder returns a stream encoder using the capture options.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder using the capture options.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// readHeader consumes and checks the header record at the start of dec.
func readHeader(dec *cbor.Decoder) (Header, error) {
	var h Header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return Header{}, ErrNotCapture
		}
		return Header{}, fmt.Errorf("%w: %v", ErrNotCapture, err)
	}
	if err := h.check(); err != nil {
		return Header{}, err
	}
	return h, nil
}
