package motion

import (
	"strconv"

	"github.com/cjeanneret/microscopy/internal/input"
	"github.com/cjeanneret/microscopy/internal/logic/settings"
)

// Axis is the letter that selects a motor (or the LED) on the controller.
type Axis byte

const (
	AxisX    Axis = 'X' // stage translation X
	AxisY    Axis = 'Y' // stage translation Y
	AxisZ    Axis = 'Z' // stage elevation
	AxisC    Axis = 'C' // camera/focus axis
	AxisR    Axis = 'R' // rotate
	AxisT    Axis = 'T' // tilt
	AxisStop Axis = 'O' // stop all motors
	AxisLED  Axis = 'L' // LED PWM level
)

// Command is one controller instruction: a signed value and an axis letter.
// On the wire it is "<value><axis>," in ASCII, e.g. "-100X," or "0O,".
type Command struct {
	Value int
	Axis  Axis
}

// Stop halts every motor.
var Stop = Command{Value: 0, Axis: AxisStop}

// String returns the wire form.
func (c Command) String() string {
	return strconv.Itoa(c.Value) + string(rune(c.Axis)) + ","
}

// Bytes returns the wire form as ASCII bytes.
func (c Command) Bytes() []byte {
	return []byte(c.String())
}

// axisFor maps a directional key to its signed axis. rotateTilt selects the
// rotate/tilt mapping for the arrow keys.
func axisFor(k input.Key, rotateTilt bool) (Axis, int, bool) {
	switch k {
	case input.KeyLeft:
		if rotateTilt {
			return AxisR, -1, true
		}
		return AxisX, -1, true
	case input.KeyRight:
		if rotateTilt {
			return AxisR, 1, true
		}
		return AxisX, 1, true
	case input.KeyDown:
		if rotateTilt {
			return AxisT, -1, true
		}
		return AxisY, -1, true
	case input.KeyUp:
		if rotateTilt {
			return AxisT, 1, true
		}
		return AxisY, 1, true
	case input.KeyPageUp:
		return AxisZ, 1, true
	case input.KeyPageDown:
		return AxisZ, -1, true
	case input.KeyHome:
		return AxisC, 1, true
	case input.KeyEnd:
		return AxisC, -1, true
	}
	return 0, 0, false
}

// Encode returns the move command for a directional key press, or false for
// any other key.
func Encode(k input.Key, rotateTilt bool, speed settings.Speed) (Command, bool) {
	axis, sign, ok := axisFor(k, rotateTilt)
	if !ok {
		return Command{}, false
	}
	return Command{Value: sign * int(speed), Axis: axis}, true
}

// LEDLevel returns the LED command for an intensity level in [0,20]. The
// controller's PWM runs inverted, so full intensity is sent as 0.
func LEDLevel(level int) Command {
	return Command{Value: settings.MaxLED - level, Axis: AxisLED}
}
