package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cjeanneret/microscopy/internal/fault"
	"github.com/cjeanneret/microscopy/internal/hw/camera"
)

// Manual is the preset entry that opens free-text input.
const Manual = "manual"

// Preset lists offered by the camera dialogs.
var (
	ISOPresets          = []string{"0", "100", "200", "320", "400", "500", "640", "800"}
	FrameratePresets    = []string{"30", "20", "15", "10", "5", "2", "1", "0.5", "0.1", Manual}
	ExposurePresets     = []string{"0", "10", "20", "50", "100", "200", "500", "1000", Manual}
	ExposureModePresets = camera.ExposureModes
	WhiteBalancePresets = camera.WhiteBalanceModes
)

// Ranges accepted for manual entry.
const (
	MaxFramerate  = 120.0
	MaxExposureMs = 10000
	MaxWBGain     = 8.0
)

// ParseISO parses an ISO preset. 0 means automatic.
func ParseISO(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 || v > 800 {
		return 0, fault.Input("ISO", fmt.Errorf("%q is not an ISO value between 0 and 800", s))
	}
	return v, nil
}

// ParseFramerate parses frames per second in (0, MaxFramerate].
func ParseFramerate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || v > MaxFramerate {
		return 0, fault.Input("framerate", fmt.Errorf("%q is not a framerate in (0, %g] fps", s, MaxFramerate))
	}
	return v, nil
}

// ParseExposureMs parses an exposure time in [0, MaxExposureMs] ms.
// 0 means automatic.
func ParseExposureMs(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 || v > MaxExposureMs {
		return 0, fault.Input("exposure time", fmt.Errorf("%q is not an exposure time in [0, %d] ms", s, MaxExposureMs))
	}
	return v, nil
}

// ParseWBGain parses a white balance gain in (0, MaxWBGain].
func ParseWBGain(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || v > MaxWBGain {
		return 0, fault.Input("white balance gain", fmt.Errorf("%q is not a gain in (0, %g]", s, MaxWBGain))
	}
	return v, nil
}

// Ask shows a text entry until parse accepts the answer or the operator
// cancels. Rejections are explained in a message box.
func Ask[T any](d Dialogs, title, prompt, def string, parse func(string) (T, error)) (T, bool) {
	for {
		s, ok := d.Text(title, prompt, def)
		if !ok {
			var zero T
			return zero, false
		}
		v, err := parse(s)
		if err == nil {
			return v, true
		}
		d.Message("Invalid value", err.Error())
		def = s
	}
}

// Select shows a preset list and, for Manual, a text entry. The chosen value
// goes through parse either way.
func Select[T any](d Dialogs, title, prompt string, presets []string, parse func(string) (T, error)) (T, bool) {
	choice, ok := d.Choice(title, prompt, presets)
	if !ok {
		var zero T
		return zero, false
	}
	if choice == Manual {
		return Ask(d, title, prompt, "", parse)
	}
	v, err := parse(choice)
	if err != nil {
		d.Message("Invalid value", err.Error())
		var zero T
		return zero, false
	}
	return v, true
}
