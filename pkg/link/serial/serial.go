// Package serial implements link.Link over a USB-CDC or UART port.
// Frames are newline-delimited JSON.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	bugserial "go.bug.st/serial"

	"github.com/halo-device/halo-go/pkg/link"
)

// Config configures a serial link.
type Config struct {
	// BaudRate for the port. Ignored by USB-CDC devices.
	BaudRate int

	// SettleDelay is how long WaitReady waits after opening. Many
	// USB-CDC boards reset when the port opens.
	SettleDelay time.Duration

	// MaxFrameSize bounds a single inbound line.
	MaxFrameSize int

	// Opener opens the port. Defaults to go.bug.st/serial.
	Opener func(path string, mode *bugserial.Mode) (io.ReadWriteCloser, error)

	Logger *slog.Logger
}

// DefaultConfig returns the settings used by HALO firmware.
func DefaultConfig() Config {
	return Config{
		BaudRate:     115200,
		SettleDelay:  1500 * time.Millisecond,
		MaxFrameSize: link.DefaultMaxFrameSize,
	}
}

// Link is a serial link.Link.
type Link struct {
	path   string
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	port    io.ReadWriteCloser
	writer  *link.LineWriter
	reading bool
	notify  link.NotifyFunc
	done    chan struct{}
	closed  bool
}

// New creates a serial link for a port path such as /dev/ttyACM0.
func New(path string, config Config) *Link {
	if config.Opener == nil {
		config.Opener = openPort
	}
	if config.MaxFrameSize <= 0 {
		config.MaxFrameSize = link.DefaultMaxFrameSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Link{
		path:   path,
		config: config,
		logger: logger.With("link", "serial", "port", path),
		done:   make(chan struct{}),
	}
}

// NewDialer returns a link.Dialer that opens the descriptor's address as a
// serial port path.
func NewDialer(config Config) link.Dialer {
	return func(desc link.Descriptor) (link.Link, error) {
		if desc.Address == "" {
			return nil, errors.New("serial: descriptor has no port path")
		}
		return New(desc.Address, config), nil
	}
}

func openPort(path string, mode *bugserial.Mode) (io.ReadWriteCloser, error) {
	port, err := bugserial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	// CDC ACM firmware waits for DTR before talking.
	_ = port.SetDTR(true)
	_ = port.SetRTS(true)
	return port, nil
}

// Open implements link.Link.
func (l *Link) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	port, err := l.config.Opener(l.path, &bugserial.Mode{
		BaudRate: l.config.BaudRate,
		DataBits: 8,
		Parity:   bugserial.NoParity,
		StopBits: bugserial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, describePortError(err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.port = port
	l.writer = link.NewLineWriter(port)
	l.closed = false
	l.done = make(chan struct{})
	return nil
}

// WaitReady implements link.Link.
func (l *Link) WaitReady(ctx context.Context) error {
	l.mu.Lock()
	port := l.port
	l.mu.Unlock()
	if port == nil {
		return link.ErrNotOpen
	}
	if l.config.SettleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(l.config.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe implements link.Link. The first call starts the read loop.
func (l *Link) Subscribe(fn link.NotifyFunc) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil || l.closed {
		return nil, link.ErrNotOpen
	}
	l.notify = fn
	if !l.reading {
		l.reading = true
		go l.readLoop(l.port, l.done)
	}
	return func() error {
		l.mu.Lock()
		l.notify = nil
		l.mu.Unlock()
		return nil
	}, nil
}

func (l *Link) readLoop(port io.Reader, done chan struct{}) {
	reader := link.NewLineReaderWithMaxSize(port, l.config.MaxFrameSize)
	for {
		frame, err := reader.ReadFrame()
		if errors.Is(err, link.ErrFrameTooLarge) {
			l.logger.Warn("dropping oversized frame", "error", err)
			continue
		}
		if err != nil {
			l.mu.Lock()
			closedLocally := l.closed
			l.mu.Unlock()
			if !closedLocally {
				l.logger.Info("serial read ended", "error", err)
			}
			l.markClosed(done)
			return
		}

		l.mu.Lock()
		fn := l.notify
		l.mu.Unlock()
		if fn != nil {
			fn(frame)
		}
	}
}

// Write implements link.Link.
func (l *Link) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	w := l.writer
	closed := l.closed
	l.mu.Unlock()
	if w == nil {
		return link.ErrNotOpen
	}
	if closed {
		return link.ErrClosed
	}
	return w.WriteFrame(frame)
}

// Done implements link.Link.
func (l *Link) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Close implements link.Link.
func (l *Link) Close() error {
	l.mu.Lock()
	port := l.port
	done := l.done
	l.port = nil
	l.writer = nil
	l.reading = false
	l.notify = nil
	l.mu.Unlock()

	l.markClosed(done)
	if port == nil {
		return nil
	}
	return port.Close()
}

func (l *Link) markClosed(done chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if done != l.done {
		return
	}
	if !l.closed {
		l.closed = true
		close(done)
	}
}

// describePortError adds a human-readable reason for go.bug.st/serial
// port errors.
func describePortError(err error) error {
	var portErr *bugserial.PortError
	if !errors.As(err, &portErr) {
		return err
	}
	switch portErr.Code() {
	case bugserial.PortNotFound:
		return fmt.Errorf("port not found: %w", err)
	case bugserial.PortBusy:
		return fmt.Errorf("port busy: %w", err)
	case bugserial.PermissionDenied:
		return fmt.Errorf("permission denied: %w", err)
	default:
		return err
	}
}

var _ link.Link = (*Link)(nil)
