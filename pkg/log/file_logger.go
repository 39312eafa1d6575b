package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a .hlog capture file. Safe for concurrent
// use.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	enc     *cbor.Encoder
	header  Header
	written int
	failed  int
	closed  bool
}

// NewFileLogger opens path for appending, creating it and any missing
// parent directories. A new file starts with a Header record; an existing
// one must already be a capture file.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	l := &FileLogger{file: f}
	if err := l.init(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

func (l *FileLogger) init() error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() > 0 {
		if l.header, err = readHeader(NewDecoder(l.file)); err != nil {
			return err
		}
		if _, err := l.file.Seek(0, io.SeekEnd); err != nil {
			return err
		}
		l.enc = NewEncoder(l.file)
		return nil
	}

	host, _ := os.Hostname()
	l.header = newHeader(time.Now(), host)
	l.enc = NewEncoder(l.file)
	return l.enc.Encode(l.header)
}

// Header returns the file's header record.
func (l *FileLogger) Header() Header {
	return l.header
}

// Log appends event. Events logged after Close are dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if err := l.enc.Encode(event); err != nil {
		l.failed++
		return
	}
	l.written++
}

// Close closes the file. Further calls are no-ops.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

// Count returns the number of events written by this logger.
func (l *FileLogger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Failed returns the number of events that could not be encoded.
func (l *FileLogger) Failed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failed
}

var _ Logger = (*FileLogger)(nil)
