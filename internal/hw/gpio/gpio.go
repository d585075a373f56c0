// Package gpio abstracts the Raspberry Pi header. The console only needs it
// to dim the illumination LED with hardware PWM when no stage controller is
// attached.
package gpio

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// Driver defines the abstract interface for the PWM pins the console uses.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	// SetupPWM switches pin to hardware PWM.
	SetupPWM(pin int) error
	// SetDuty sets a PWM pin's duty cycle to duty/cycle at freq Hz.
	SetDuty(pin int, freq int, duty, cycle uint32) error
	Close() error
}

// NewDriver creates a GPIO driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool) (Driver, error) {
	if mock {
		debug.Info("Using MOCK GPIO driver (development mode)")
		return NewMockDriver(), nil
	}
	d, err := NewRPiRealDriver()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Duty is the last duty cycle set on a PWM pin.
type Duty struct {
	Freq        int
	Duty, Cycle uint32
}

// MockDriver logs actions and remembers pin state so that tests can
// inspect it. Used for development on PC or testing.
type MockDriver struct {
	mu     sync.Mutex
	pwm    map[int]bool
	duties map[int]Duty
	closed bool
}

func NewMockDriver() *MockDriver {
	return &MockDriver{
		pwm:    make(map[int]bool),
		duties: make(map[int]Duty),
	}
}

func (m *MockDriver) SetupPWM(pin int) error {
	debug.GPIO("SetupPWM", pin, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pwm[pin] = true
	return nil
}

func (m *MockDriver) SetDuty(pin int, freq int, duty, cycle uint32) error {
	debug.GPIO("SetDuty", pin, []uint32{duty, cycle})
	if cycle == 0 || duty > cycle {
		return fmt.Errorf("invalid duty cycle %d/%d", duty, cycle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pwm[pin] {
		return fmt.Errorf("pin %d is not set up for PWM", pin)
	}
	m.duties[pin] = Duty{Freq: freq, Duty: duty, Cycle: cycle}
	return nil
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsPWM reports whether pin was set up for PWM.
func (m *MockDriver) IsPWM(pin int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pwm[pin]
}

// DutyOf returns the last duty cycle set on pin.
func (m *MockDriver) DutyOf(pin int) Duty {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duties[pin]
}

// Closed reports whether Close was called.
func (m *MockDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
