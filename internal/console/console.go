// Package console turns key events into camera settings, stage commands and
// captures. One goroutine owns the Console and handles every event to
// completion before reading the next.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cjeanneret/microscopy/internal/config"
	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/dialog"
	"github.com/cjeanneret/microscopy/internal/fault"
	"github.com/cjeanneret/microscopy/internal/hw/camera"
	"github.com/cjeanneret/microscopy/internal/hw/led"
	"github.com/cjeanneret/microscopy/internal/input"
	"github.com/cjeanneret/microscopy/internal/logic/capture"
	"github.com/cjeanneret/microscopy/internal/logic/motion"
	"github.com/cjeanneret/microscopy/internal/logic/settings"
)

// Deps are the collaborators of a Console. Motion, Serial and GPIO may be nil.
type Deps struct {
	Settings *settings.Settings
	Camera   camera.Camera
	Motion   *motion.Controller // nil when the stage is not attached
	LED      led.Driver
	Capture  *capture.Orchestrator
	Dialogs  dialog.Dialogs
	Input    input.Source

	// Closed during shutdown, after the preview stops.
	Serial io.Closer
	GPIO   io.Closer

	MaxResolution config.Resolution
	Rotation      int
	AnnotateSize  int
}

// Console is the input-to-command dispatcher.
type Console struct {
	Deps
	done bool
}

func New(d Deps) *Console {
	if d.LED == nil {
		d.LED = led.None{}
	}
	return &Console{Deps: d}
}

// Done reports whether Escape was released and the console shut down.
func (c *Console) Done() bool {
	return c.done
}

// Start applies the start-up settings to the camera and starts the preview.
func (c *Console) Start() error {
	debug.Section("Camera start-up")
	if err := c.applyAll(c.resolution()); err != nil {
		return err
	}
	return c.Camera.StartPreview()
}

// Run reads events until Escape is released, the source fails or ctx is done.
// The console is shut down on return.
func (c *Console) Run(ctx context.Context) error {
	for !c.done {
		ev, err := c.Input.Next(ctx)
		if err != nil {
			c.Shutdown()
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		c.report(c.Handle(ev))
	}
	return nil
}

// Handle dispatches one event.
func (c *Console) Handle(ev input.Event) error {
	debug.Key(ev.Kind.String(), ev.Key)
	if ev.Kind == input.Release {
		return c.release(ev.Key)
	}
	return c.press(ev.Key)
}

func (c *Console) report(err error) {
	if err == nil {
		return
	}
	debug.Error(err)
}

func (c *Console) press(k input.Key) error {
	switch k {
	case input.KeyF1:
		c.ShowHelp()
		return nil
	case input.KeyTab:
		return c.toggleVideoMode()
	case input.Rune('P'):
		return c.camErr("start preview", c.Camera.StartPreview())
	case input.Rune('p'):
		return c.camErr("stop preview", c.Camera.StopPreview())
	case input.Rune('B'):
		return c.adjust(settings.Brightness, +1)
	case input.Rune('b'):
		return c.adjust(settings.Brightness, -1)
	case input.Rune('C'):
		return c.adjust(settings.Contrast, +1)
	case input.Rune('c'):
		return c.adjust(settings.Contrast, -1)
	case input.Rune('V'):
		return c.adjust(settings.ExposureCompensation, +1)
	case input.Rune('v'):
		return c.adjust(settings.ExposureCompensation, -1)
	case input.Rune('S'):
		return c.adjust(settings.Saturation, +1)
	case input.Rune('s'):
		return c.adjust(settings.Saturation, -1)
	case input.Rune('+'):
		// Zooming in shrinks the cropped region.
		return c.adjust(settings.Zoom, -1)
	case input.Rune('-'):
		return c.adjust(settings.Zoom, +1)
	case input.Rune('L'):
		return c.adjust(settings.LED, +1)
	case input.Rune('l'):
		return c.adjust(settings.LED, -1)
	case input.Rune('i'):
		return c.chooseISO()
	case input.Rune('e'):
		return c.chooseExposureTime()
	case input.Rune('r'):
		return c.chooseFramerate()
	case input.Rune('E'):
		return c.chooseExposureMode()
	case input.Rune('W'):
		return c.chooseWhiteBalance()
	case input.Rune('0'):
		return c.reset()
	case input.Rune('F'):
		c.chooseFolder()
		return nil
	case input.Rune('f'):
		c.choosePrefix()
		return nil
	case input.KeyCtrlL, input.KeyCtrlR:
		c.Settings.CycleSpeed()
		debug.Live("motor speed %v", c.Settings.Speed)
		return c.annotate(c.Settings.SpeedAnnotation())
	case input.KeyAltL, input.KeyAltR:
		c.Settings.ToggleArrowMode()
		debug.Live("arrow keys drive %s", c.Settings.ArrowModeAnnotation())
		return c.annotate(c.Settings.ArrowModeAnnotation())
	}
	if k.Directional() && c.Motion != nil {
		_, err := c.Motion.Press(k, c.Settings.RotateTilt, c.Settings.Speed)
		return err
	}
	return nil
}

func (c *Console) release(k input.Key) error {
	switch {
	case k == input.KeyEnter:
		_, err := c.Capture.Trigger(c.Settings.Path, c.Settings.Prefix, c.Settings.VideoMode)
		return err
	case k == input.KeyEscape:
		c.Shutdown()
		return nil
	case k.Directional() && c.Motion != nil:
		_, err := c.Motion.Release(k)
		return err
	}
	return nil
}

// adjust steps a clamped setting and pushes it out. At the edge of the range
// nothing is sent and the overlay is left alone.
func (c *Console) adjust(set settings.Setting, dir int) error {
	if !c.Settings.Adjust(set, dir) {
		debug.Live("%v at limit (%d)", set, c.Settings.Value(set))
		return nil
	}
	if err := c.apply(set); err != nil {
		c.annotate(fmt.Sprintf("Setting %v failed", set))
		return err
	}
	return c.annotate(c.Settings.Annotation(set))
}

// apply pushes one setting to the device that owns it.
func (c *Console) apply(set settings.Setting) error {
	s := c.Settings
	var err error
	switch set {
	case settings.Brightness:
		err = c.Camera.SetBrightness(s.Brightness)
	case settings.Contrast:
		err = c.Camera.SetContrast(s.Contrast)
	case settings.ExposureCompensation:
		err = c.Camera.SetExposureCompensation(s.ExposureCompensation)
	case settings.Saturation:
		err = c.Camera.SetSaturation(s.Saturation)
	case settings.Zoom:
		err = c.Camera.SetZoom(ZoomRect(s.ZoomFactor()))
	case settings.LED:
		err = c.LED.SetLevel(s.LED)
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		return err
	}
	return fault.Transient("set "+set.String(), err)
}

// ZoomRect is the crop region for a zoom factor, anchored at the top-left
// corner of the sensor.
func ZoomRect(factor float64) camera.Rect {
	return camera.Rect{X: 0, Y: 0, W: factor, H: factor}
}

// applyAll pushes every camera setting at resolution res, used at start-up
// and on reset.
func (c *Console) applyAll(res config.Resolution) error {
	s := c.Settings
	steps := []struct {
		name string
		err  error
	}{
		{"brightness", c.Camera.SetBrightness(s.Brightness)},
		{"contrast", c.Camera.SetContrast(s.Contrast)},
		{"saturation", c.Camera.SetSaturation(s.Saturation)},
		{"exposure compensation", c.Camera.SetExposureCompensation(s.ExposureCompensation)},
		{"zoom", c.Camera.SetZoom(ZoomRect(s.ZoomFactor()))},
		{"resolution", c.Camera.SetResolution(res.Width, res.Height)},
		{"rotation", c.Camera.SetRotation(c.Rotation)},
		{"annotate size", c.Camera.SetAnnotateSize(c.AnnotateSize)},
		{"annotate", c.Camera.Annotate("")},
		{"ISO", c.Camera.SetISO(s.ISO)},
		{"shutter speed", c.Camera.SetShutterSpeed(s.ShutterMs * 1000)},
		{"framerate", c.Camera.SetFramerate(s.Framerate)},
		{"exposure mode", c.Camera.SetExposureMode(s.ExposureMode)},
		{"white balance", c.Camera.SetWhiteBalance(s.WhiteBalance)},
		{"white balance gain", c.Camera.SetWhiteBalanceGain(s.WhiteBalanceGain)},
	}
	var errs []error
	for _, st := range steps {
		if st.err != nil {
			errs = append(errs, fault.Transient("set "+st.name, st.err))
		}
	}
	return errors.Join(errs...)
}

func (c *Console) resolution() config.Resolution {
	if c.Settings.VideoMode {
		return config.ReducedResolution
	}
	return c.MaxResolution
}

// reset restores the image settings at full sensor resolution and restarts
// the preview. An open recording is stopped first. The photo/video mode is
// kept; the next Tab re-applies the mode's resolution.
func (c *Console) reset() error {
	debug.Live("reset camera settings")
	if c.Capture.Recording() {
		if err := c.Capture.Stop(); err != nil {
			return err
		}
	}
	c.Settings.Reset()
	if err := c.applyAll(c.MaxResolution); err != nil {
		return err
	}
	return c.camErr("start preview", c.Camera.StartPreview())
}

// toggleVideoMode switches between stills at full resolution and video at
// Full HD. An open recording is stopped first.
func (c *Console) toggleVideoMode() error {
	var errs []error
	if c.Capture.Recording() {
		errs = append(errs, c.Capture.Stop())
	}
	c.Settings.ToggleVideoMode()
	res := c.resolution()
	debug.Live("%s, resolution %dx%d", c.Settings.ModeAnnotation(), res.Width, res.Height)
	errs = append(errs,
		c.camErr("set resolution", c.Camera.SetResolution(res.Width, res.Height)),
		c.annotate(c.Settings.ModeAnnotation()),
	)
	return errors.Join(errs...)
}

func (c *Console) annotate(text string) error {
	return c.camErr("annotate", c.Camera.Annotate(text))
}

func (c *Console) camErr(op string, err error) error {
	return fault.Transient(op, err)
}

// Shutdown stops the recording and the preview, then closes the serial link,
// the GPIO driver and the camera, in that order. It is safe to call twice.
func (c *Console) Shutdown() {
	if c.done {
		return
	}
	c.done = true
	debug.Section("Shutdown")
	c.report(c.Capture.Stop())
	c.report(c.camErr("stop preview", c.Camera.StopPreview()))
	if c.Serial != nil {
		c.report(fault.Transient("close serial", c.Serial.Close()))
	}
	if c.GPIO != nil {
		c.report(fault.Transient("close GPIO", c.GPIO.Close()))
	}
	c.report(fault.Transient("close camera", c.Camera.Close()))
}
