package serial

import (
	"fmt"
	"io"
	"sync"

	"github.com/tarm/serial"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// Link is the write-only byte channel to the stage/LED microcontroller.
// Commands are fire-and-forget: nothing is ever read back.
type Link interface {
	io.Writer
	Close() error
}

// Config holds serial port configuration.
type Config struct {
	Device string // e.g. "/dev/ttyACM0"
	Baud   int    // 57600 for the Arduino stage controller
}

// Port is a Link backed by a real serial device.
type Port struct {
	port   *serial.Port
	device string
}

// Open opens the serial device once at start-up.
func Open(cfg Config) (*Port, error) {
	debug.Info("Opening serial link %s at %d baud", cfg.Device, cfg.Baud)
	p, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	return &Port{port: p, device: cfg.Device}, nil
}

func (p *Port) Write(b []byte) (int, error) {
	debug.Trace("serial %s write % x", p.device, b)
	return p.port.Write(b)
}

// Close flushes pending output and closes the device.
func (p *Port) Close() error {
	debug.Trace("serial %s close", p.device)
	if err := p.port.Flush(); err != nil {
		debug.Verbose("serial flush failed: %v", err)
	}
	return p.port.Close()
}

// MockLink logs and records every write.
// Used when no microcontroller is attached (development) and in tests.
type MockLink struct {
	mu     sync.Mutex
	writes []string
	closed bool
	// Err, when set, is returned by Write.
	Err error
}

func (m *MockLink) Write(b []byte) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	debug.Trace("serial (mock) write %q", b)
	m.mu.Lock()
	m.writes = append(m.writes, string(b))
	m.mu.Unlock()
	return len(b), nil
}

func (m *MockLink) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Writes returns a copy of all recorded writes.
func (m *MockLink) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// Closed reports whether Close was called.
func (m *MockLink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset forgets recorded writes.
func (m *MockLink) Reset() {
	m.mu.Lock()
	m.writes = nil
	m.mu.Unlock()
}
