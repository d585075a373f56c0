package gpio

import (
	"fmt"

	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver is the real implementation for Raspberry Pi using go-rpio.
type RPiDriver struct {
	pins map[int]rpio.Pin
	pwm  bool // PWM clock started
}

// NewRPiRealDriver creates a real GPIO driver for Raspberry Pi.
// Requires running on a Raspberry Pi with access to /dev/gpiomem, or as root
// when hardware PWM is used.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins: make(map[int]rpio.Pin),
	}, nil
}

func (r *RPiDriver) SetupPWM(pin int) error {
	debug.GPIO("SetupPWM", pin, nil)

	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)
	r.pins[pin] = p
	if !r.pwm {
		rpio.StartPwm()
		r.pwm = true
	}
	return nil
}

func (r *RPiDriver) SetDuty(pin int, freq int, duty, cycle uint32) error {
	debug.GPIO("SetDuty", pin, []uint32{duty, cycle})

	if cycle == 0 || duty > cycle {
		return fmt.Errorf("invalid duty cycle %d/%d", duty, cycle)
	}
	p, ok := r.pins[pin]
	if !ok {
		if err := r.SetupPWM(pin); err != nil {
			return err
		}
		p = r.pins[pin]
	}
	// The PWM clock runs at freq*cycle so one period is cycle ticks.
	p.Freq(freq * int(cycle))
	p.DutyCycle(duty, cycle)
	return nil
}

func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")

	if r.pwm {
		rpio.StopPwm()
	}
	// Reset all pins to input (safe state)
	for pin, p := range r.pins {
		debug.Verbose("Resetting pin %d to input", pin)
		p.Input()
	}

	return rpio.Close()
}
