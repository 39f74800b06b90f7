// Package serial adapts github.com/tarm/serial to the transport.Transport
// contract for the line-oriented text family of drivers (driver/fitstatusb).
package serial

import (
	"fmt"
	"sync"
	"time"

	goserial "github.com/tarm/serial"

	"ledctl.dev/transport"
)

// DefaultBaud matches the baud rate the text-over-serial family's firmware
// expects; a non-zero Config.Baud overrides it. The registry opens every
// port with the zero Config, so this rate is the one in use.
const DefaultBaud = 9600

// Config configures how the port is opened. Zero value uses DefaultBaud and
// no read timeout.
type Config struct {
	Baud        int
	ReadTimeout time.Duration
}

// Transport is a single opened serial port.
type Transport struct {
	mu     sync.Mutex
	port   *goserial.Port
	closed bool
}

// Open opens the serial device at loc.Path.
func Open(loc transport.Locator, cfg Config) (*Transport, error) {
	if loc.Path == "" {
		return nil, fmt.Errorf("serial: open: %w: empty path", transport.ErrNotFound)
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := goserial.OpenPort(&goserial.Config{
		Name:        loc.Path,
		Baud:        baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", loc.Path, classifyOpenErr(err))
	}
	return &Transport{port: port}, nil
}

// Write sends frame as-is; driver/fitstatusb appends the line terminator
// itself before calling Write, matching spec.md §4.2's "short ASCII command
// terminated by a line separator."
func (t *Transport) Write(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return transport.ErrClosed
	}
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("serial: write: %w", classifyIOErr(err))
	}
	return nil
}

// Read is rarely used by serial drivers (spec.md §4.1); it is provided for
// completeness and symmetry with transport/hid. The timeout argument is
// ignored: the port's Config.ReadTimeout, fixed at Open, applies instead.
func (t *Transport) Read(buf []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, transport.ErrClosed
	}
	n, err := t.port.Read(buf)
	if err != nil {
		return n, fmt.Errorf("serial: read: %w", classifyIOErr(err))
	}
	return n, nil
}

// Close releases the OS handle. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.port.Close()
}

func classifyOpenErr(err error) error {
	return fmt.Errorf("%w: %v", transport.ErrPermissionDenied, err)
}

func classifyIOErr(err error) error {
	return fmt.Errorf("%w: %v", transport.ErrDisconnected, err)
}
