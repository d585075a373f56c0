package motion

import (
	"io"

	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/fault"
	"github.com/cjeanneret/microscopy/internal/input"
	"github.com/cjeanneret/microscopy/internal/logic/settings"
)

// Controller sends stage and LED commands to the microcontroller.
// It sits between the key dispatcher and the serial link; the link is
// fire-and-forget, so a failed write is reported and never retried.
type Controller struct {
	link io.Writer
}

func NewController(link io.Writer) *Controller {
	return &Controller{link: link}
}

// Send writes one command.
func (c *Controller) Send(cmd Command) error {
	debug.Command(cmd.String())
	if _, err := c.link.Write(cmd.Bytes()); err != nil {
		return fault.Transient("serial write "+cmd.String(), err)
	}
	return nil
}

// Press starts the motor bound to k. Keys that do not drive an axis are ignored.
func (c *Controller) Press(k input.Key, rotateTilt bool, speed settings.Speed) (bool, error) {
	cmd, ok := Encode(k, rotateTilt, speed)
	if !ok {
		return false, nil
	}
	return true, c.Send(cmd)
}

// Release stops the motors when a directional key is let go.
func (c *Controller) Release(k input.Key) (bool, error) {
	if !k.Directional() {
		return false, nil
	}
	return true, c.Send(Stop)
}

// SetLevel sends an LED intensity level; it makes the controller usable as
// an led.Driver.
func (c *Controller) SetLevel(level int) error {
	return c.Send(LEDLevel(level))
}
