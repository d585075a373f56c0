package console

import (
	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/dialog"
	"github.com/cjeanneret/microscopy/internal/fault"
)

// HelpText lists the key bindings.
const HelpText = `F1: keyboard shortcuts
----------------------------------------------------------
Tab: toggle between photo and video modes
P: start camera preview, p: stop camera preview
----------------------------------------------------------
B: increase brightness, b: decrease brightness
C: increase contrast, c: decrease contrast
V: increase EV, v: decrease EV
S: increase saturation, s: decrease saturation
----------------------------------------------------------
+: digital zoom in, -: digital zoom out
----------------------------------------------------------
i: ISO, e: exposure time, r: framerate
E: exposure mode, W: white-balance mode
----------------------------------------------------------
0: reset camera settings
----------------------------------------------------------
F: select folder, f: enter filename prefix (optional)
----------------------------------------------------------
Enter: save image or start/stop video depending on the mode
----------------------------------------------------------
Arrow keys: X-Y or Rotate-Tilt
Page up and Page down: Z up and down
Home and End: Camera up and down
L: increase LED intensity, l: decrease LED intensity
----------------------------------------------------------
Ctrl: change motor speed (3 predefined speeds)
Alt: toggle between X-Y and Rotate-Tilt
----------------------------------------------------------
Esc: exit`

// modal hides the preview while fn shows a dialog, then drops the keys
// typed into it.
func (c *Console) modal(fn func()) {
	c.report(c.camErr("hide preview", c.Camera.SetPreviewVisible(false)))
	fn()
	c.report(c.camErr("show preview", c.Camera.SetPreviewVisible(true)))
	c.Input.Flush()
}

// ShowHelp displays the key bindings.
func (c *Console) ShowHelp() {
	c.modal(func() {
		c.Dialogs.Message("Keyboard shortcuts", HelpText)
	})
}

func (c *Console) chooseISO() error {
	var err error
	c.modal(func() {
		iso, ok := dialog.Select(c.Dialogs, "ISO", "Select ISO (default: 0 for auto)", dialog.ISOPresets, dialog.ParseISO)
		if !ok {
			return
		}
		c.Settings.ISO = iso
		debug.Verbose("ISO %d", iso)
		err = fault.Transient("set ISO", c.Camera.SetISO(iso))
	})
	return err
}

func (c *Console) chooseExposureTime() error {
	var err error
	c.modal(func() {
		ms, ok := dialog.Select(c.Dialogs, "Exposure time (shutter speed)",
			"Select exposure time in ms (default: 0, auto)\nMaximum exposure time is determined by the framerate",
			dialog.ExposurePresets, dialog.ParseExposureMs)
		if !ok {
			return
		}
		c.Settings.ShutterMs = ms
		debug.Verbose("exposure time %d ms", ms)
		err = fault.Transient("set shutter speed", c.Camera.SetShutterSpeed(ms*1000))
	})
	return err
}

func (c *Console) chooseFramerate() error {
	var err error
	c.modal(func() {
		fps, ok := dialog.Select(c.Dialogs, "Framerate", "Select framerate", dialog.FrameratePresets, dialog.ParseFramerate)
		if !ok {
			return
		}
		c.Settings.Framerate = fps
		debug.Verbose("framerate %g", fps)
		err = fault.Transient("set framerate", c.Camera.SetFramerate(fps))
	})
	return err
}

func (c *Console) chooseExposureMode() error {
	var err error
	c.modal(func() {
		mode, ok := c.Dialogs.Choice("Exposure mode", "Exposure mode", dialog.ExposureModePresets)
		if !ok {
			return
		}
		c.Settings.ExposureMode = mode
		debug.Verbose("exposure mode %s", mode)
		err = fault.Transient("set exposure mode", c.Camera.SetExposureMode(mode))
	})
	return err
}

// chooseWhiteBalance also asks for a gain when automatic white balance is
// turned off.
func (c *Console) chooseWhiteBalance() error {
	var err error
	c.modal(func() {
		mode, ok := c.Dialogs.Choice("White Balance", "Select white balance mode (default: auto)", dialog.WhiteBalancePresets)
		if !ok {
			return
		}
		c.Settings.WhiteBalance = mode
		debug.Verbose("white balance %s", mode)
		if err = fault.Transient("set white balance", c.Camera.SetWhiteBalance(mode)); err != nil || mode != "off" {
			return
		}
		gain, ok := dialog.Ask(c.Dialogs, "White balance gain",
			"White balance gain - typical values between 0.9 and 1.9", "1.0", dialog.ParseWBGain)
		if !ok {
			return
		}
		c.Settings.WhiteBalanceGain = gain
		err = fault.Transient("set white balance gain", c.Camera.SetWhiteBalanceGain(gain))
	})
	return err
}

func (c *Console) chooseFolder() {
	c.modal(func() {
		if dir, ok := c.Dialogs.Directory(c.Settings.Path); ok {
			c.Settings.Path = dir
			debug.Info("Saving to %s", dir)
		}
	})
}

func (c *Console) choosePrefix() {
	c.modal(func() {
		if prefix, ok := c.Dialogs.Text("Input", "Filename prefix", c.Settings.Prefix); ok {
			c.Settings.Prefix = prefix
			debug.Verbose("filename prefix %q", prefix)
		}
	})
}
