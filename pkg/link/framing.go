package link

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultMaxFrameSize is the longest frame accepted on a stream link.
const DefaultMaxFrameSize = 4096

// Framing errors.
var (
	// ErrFrameTooLarge indicates a frame exceeds the maximum size.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrFrameEmpty indicates an empty frame.
	ErrFrameEmpty = errors.New("frame is empty")

	// ErrFrameContainsNewline indicates a frame would break line framing.
	ErrFrameContainsNewline = errors.New("frame contains newline")
)

// LineWriter writes newline-terminated frames to a byte stream.
type LineWriter struct {
	w            io.Writer
	maxFrameSize int
	mu           sync.Mutex
}

// NewLineWriter creates a writer with DefaultMaxFrameSize.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w, maxFrameSize: DefaultMaxFrameSize}
}

// WriteFrame writes data followed by '\n' in a single Write call.
// Thread-safe.
func (lw *LineWriter) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrFrameEmpty
	}
	if len(data) > lw.maxFrameSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(data), lw.maxFrameSize)
	}
	if bytes.IndexByte(data, '\n') >= 0 {
		return ErrFrameContainsNewline
	}

	buf := make([]byte, len(data)+1)
	copy(buf, data)
	buf[len(data)] = '\n'

	lw.mu.Lock()
	defer lw.mu.Unlock()
	if _, err := lw.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// LineReader splits a byte stream into newline-terminated frames.
// Carriage returns and blank lines are skipped.
type LineReader struct {
	r            *bufio.Reader
	maxFrameSize int
}

// NewLineReader creates a reader with DefaultMaxFrameSize.
func NewLineReader(r io.Reader) *LineReader {
	return NewLineReaderWithMaxSize(r, DefaultMaxFrameSize)
}

// NewLineReaderWithMaxSize creates a reader with a custom max frame size.
func NewLineReaderWithMaxSize(r io.Reader, maxSize int) *LineReader {
	return &LineReader{
		r:            bufio.NewReaderSize(r, maxSize+1),
		maxFrameSize: maxSize,
	}
}

// ReadFrame returns the next non-empty frame without its terminator.
// An oversized line is consumed and reported as ErrFrameTooLarge so the
// caller can keep reading.
func (lr *LineReader) ReadFrame() ([]byte, error) {
	for {
		line, err := lr.r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if derr := lr.discardLine(); derr != nil {
				return nil, derr
			}
			return nil, fmt.Errorf("%w: > %d", ErrFrameTooLarge, lr.maxFrameSize)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)
		return frame, nil
	}
}

func (lr *LineReader) discardLine() error {
	for {
		_, err := lr.r.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
