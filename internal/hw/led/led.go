// Package led drives the illumination source.
//
// Levels run from 0 (off) to 20 (full) in 5% steps, matching the
// potentiometer range of the joystick box on the stage controller.
package led

import (
	"fmt"

	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/hw/gpio"
)

// MaxLevel is full intensity.
const MaxLevel = 20

// Driver sets the LED intensity.
type Driver interface {
	SetLevel(level int) error
}

// None discards levels. Used when no illumination driver is attached.
type None struct{}

func (None) SetLevel(level int) error {
	debug.Verbose("LED (none): level %d ignored", level)
	return nil
}

// PWMFrequency is the LED PWM frequency in Hz.
const PWMFrequency = 1000

// PWM drives the LED from a Raspberry Pi hardware PWM pin. Unlike the stage
// controller, the duty cycle is not inverted: level 20 is 100% duty.
type PWM struct {
	gpio gpio.Driver
	pin  int
}

// NewPWM configures pin for hardware PWM.
func NewPWM(g gpio.Driver, pin int) (*PWM, error) {
	if err := g.SetupPWM(pin); err != nil {
		return nil, fmt.Errorf("setup PWM pin %d: %w", pin, err)
	}
	return &PWM{gpio: g, pin: pin}, nil
}

func (p *PWM) SetLevel(level int) error {
	if level < 0 || level > MaxLevel {
		return fmt.Errorf("LED level %d out of range [0,%d]", level, MaxLevel)
	}
	debug.Verbose("LED (PWM pin %d): level %d", p.pin, level)
	return p.gpio.SetDuty(p.pin, PWMFrequency, uint32(level), MaxLevel)
}
