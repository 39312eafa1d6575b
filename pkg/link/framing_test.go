package link

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLineRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)

	frames := []string{
		`{"command":"GET_BRIGHTNESS"}`,
		`{"command":"COLOR","color":"#FF0000"}`,
		`{"command":"RESET"}`,
	}
	for _, f := range frames {
		if err := w.WriteFrame([]byte(f)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	r := NewLineReader(&buf)
	for i, want := range frames {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("frame %d = %q, want %q", i, got, want)
		}
	}
	if _, err := r.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestLineWriterRejects(t *testing.T) {
	w := NewLineWriter(io.Discard)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"Empty", nil, ErrFrameEmpty},
		{"Newline", []byte("a\nb"), ErrFrameContainsNewline},
		{"TooLarge", bytes.Repeat([]byte("x"), DefaultMaxFrameSize+1), ErrFrameTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.WriteFrame(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLineReaderSkipsBlankAndCR(t *testing.T) {
	r := NewLineReader(strings.NewReader("\r\n\n{\"a\":1}\r\n\n{\"b\":2}\n"))

	for _, want := range []string{`{"a":1}`, `{"b":2}`} {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestLineReaderRecoversFromOversizedFrame(t *testing.T) {
	input := strings.Repeat("x", 64) + "\n" + `{"ok":true}` + "\n"
	r := NewLineReaderWithMaxSize(strings.NewReader(input), 32)

	if _, err := r.ReadFrame(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame after oversized: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("got %q", got)
	}
}

func TestLineReaderTruncatedFrame(t *testing.T) {
	r := NewLineReader(strings.NewReader(`{"message":"BRIGHTNESS_GET"`))
	if _, err := r.ReadFrame(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestDescriptor(t *testing.T) {
	d := Descriptor{ID: "halo-1", DisplayName: "Desk Halo", Address: "AA:BB:CC:DD:EE:FF"}
	if d.IsZero() {
		t.Error("non-empty descriptor reported zero")
	}
	if !(Descriptor{}).IsZero() {
		t.Error("empty descriptor not zero")
	}
	if d.String() != "Desk Halo (AA:BB:CC:DD:EE:FF)" {
		t.Errorf("String = %q", d.String())
	}
	if (Descriptor{Address: "/dev/ttyACM0"}).String() != "/dev/ttyACM0" {
		t.Error("String without name should be the address")
	}
}
