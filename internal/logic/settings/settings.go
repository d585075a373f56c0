// Package settings holds the operator-adjustable state of the console.
//
// Everything here is pure: adjusting a value never touches hardware. The
// dispatcher pushes the resulting value to the camera or serial link.
package settings

import (
	"fmt"
	"math"
)

// Setting identifies one clamped numeric setting.
type Setting int

const (
	Brightness Setting = iota
	Contrast
	ExposureCompensation
	Saturation
	Zoom
	LED
)

func (s Setting) String() string {
	switch s {
	case Brightness:
		return "brightness"
	case Contrast:
		return "contrast"
	case ExposureCompensation:
		return "exposure compensation"
	case Saturation:
		return "saturation"
	case Zoom:
		return "zoom"
	case LED:
		return "LED"
	default:
		return fmt.Sprintf("setting(%d)", int(s))
	}
}

// Bounds is the legal range and step of a setting.
type Bounds struct {
	Min, Max, Step int
}

// Zoom is kept in tenths of the full field of view so repeated steps do not
// drift: 10 is the whole sensor, 3 the tightest crop (factor 0.3).
var bounds = map[Setting]Bounds{
	Brightness:           {Min: 0, Max: 100, Step: 5},
	Contrast:             {Min: -100, Max: 100, Step: 5},
	ExposureCompensation: {Min: -25, Max: 25, Step: 1},
	Saturation:           {Min: -100, Max: 100, Step: 5},
	Zoom:                 {Min: 3, Max: 10, Step: 1},
	LED:                  {Min: 0, Max: 20, Step: 1},
}

// BoundsOf returns the range of s.
func BoundsOf(s Setting) Bounds {
	return bounds[s]
}

// Speed is a motor speed tier in controller units.
type Speed int

const (
	Slow   Speed = 10
	Medium Speed = 100
	Fast   Speed = 500
)

func (s Speed) String() string {
	switch s {
	case Slow:
		return "slow"
	case Medium:
		return "medium"
	case Fast:
		return "fast"
	default:
		return fmt.Sprintf("speed(%d)", int(s))
	}
}

// Defaults applied at start-up and by Reset.
const (
	DefaultBrightness   = 50
	DefaultISO          = 0 // auto
	DefaultShutterMs    = 0 // auto
	DefaultFramerate    = 30.0
	DefaultExposureMode = "auto"
	DefaultWhiteBalance = "auto"
	DefaultWBGain       = 1.0
	MaxLED              = 20
	FullZoom            = 10
)

// Settings is the single settings record owned by the control loop.
type Settings struct {
	Brightness           int
	Contrast             int
	ExposureCompensation int
	Saturation           int
	ZoomTenths           int
	LED                  int
	Speed                Speed

	RotateTilt bool // arrow keys drive rotate/tilt instead of X/Y
	VideoMode  bool // Enter records video instead of taking a still

	ISO              int
	ShutterMs        int
	Framerate        float64
	ExposureMode     string
	WhiteBalance     string
	WhiteBalanceGain float64

	Path   string
	Prefix string
}

// New returns the start-up settings with captures going to path.
func New(path string) *Settings {
	s := &Settings{
		LED:   MaxLED,
		Speed: Medium,
		Path:  path,
	}
	s.Reset()
	return s
}

// Reset restores the image settings to their neutral defaults and the zoom to
// the full field of view. Motor speed, LED, modes and output path are kept.
func (s *Settings) Reset() {
	s.Brightness = DefaultBrightness
	s.Contrast = 0
	s.ExposureCompensation = 0
	s.Saturation = 0
	s.ZoomTenths = FullZoom
	s.ISO = DefaultISO
	s.ShutterMs = DefaultShutterMs
	s.Framerate = DefaultFramerate
	s.ExposureMode = DefaultExposureMode
	s.WhiteBalance = DefaultWhiteBalance
	s.WhiteBalanceGain = DefaultWBGain
}

func (s *Settings) field(set Setting) *int {
	switch set {
	case Brightness:
		return &s.Brightness
	case Contrast:
		return &s.Contrast
	case ExposureCompensation:
		return &s.ExposureCompensation
	case Saturation:
		return &s.Saturation
	case Zoom:
		return &s.ZoomTenths
	case LED:
		return &s.LED
	}
	return nil
}

// Value returns the current value of set.
func (s *Settings) Value(set Setting) int {
	if p := s.field(set); p != nil {
		return *p
	}
	return 0
}

// Adjust moves set one step up (dir > 0) or down (dir < 0). At the edge of the
// range it does nothing and returns false.
func (s *Settings) Adjust(set Setting, dir int) bool {
	p := s.field(set)
	b, ok := bounds[set]
	if p == nil || !ok || dir == 0 {
		return false
	}
	next := *p + b.Step
	if dir < 0 {
		next = *p - b.Step
	}
	if next < b.Min || next > b.Max {
		return false
	}
	*p = next
	return true
}

// ZoomFactor is the cropped fraction of the sensor, in (0.2, 1.0].
func (s *Settings) ZoomFactor() float64 {
	return float64(s.ZoomTenths) / 10
}

// Magnification is 1/ZoomFactor rounded to two decimals.
func (s *Settings) Magnification() float64 {
	return math.Round(100/s.ZoomFactor()) / 100
}

// CycleSpeed steps slow -> medium -> fast -> slow.
func (s *Settings) CycleSpeed() Speed {
	switch s.Speed {
	case Slow:
		s.Speed = Medium
	case Medium:
		s.Speed = Fast
	default:
		s.Speed = Slow
	}
	return s.Speed
}

// ToggleArrowMode flips between X/Y translation and rotate/tilt.
func (s *Settings) ToggleArrowMode() bool {
	s.RotateTilt = !s.RotateTilt
	return s.RotateTilt
}

// ToggleVideoMode flips between photo and video capture.
func (s *Settings) ToggleVideoMode() bool {
	s.VideoMode = !s.VideoMode
	return s.VideoMode
}

// Annotation renders the overlay text shown after set changed.
func (s *Settings) Annotation(set Setting) string {
	switch set {
	case Brightness:
		return fmt.Sprintf("Brightness:%d%%", s.Brightness)
	case Contrast:
		return fmt.Sprintf("Contrast:%d%%", s.Contrast)
	case ExposureCompensation:
		return fmt.Sprintf("EV:%d", s.ExposureCompensation)
	case Saturation:
		return fmt.Sprintf("Saturation:%d%%", s.Saturation)
	case Zoom:
		return "Digital zoom:" + formatFloat(s.Magnification()) + "X"
	case LED:
		return fmt.Sprintf("LED intensity:%d%%", s.LED*5)
	}
	return ""
}

// SpeedAnnotation renders the overlay text for the motor speed tier.
func (s *Settings) SpeedAnnotation() string {
	return "Motor speed = " + s.Speed.String()
}

// ArrowModeAnnotation renders the overlay text for the arrow-key mode.
func (s *Settings) ArrowModeAnnotation() string {
	if s.RotateTilt {
		return "Rotate-Tilt"
	}
	return "X-Y"
}

// ModeAnnotation renders the overlay text for the capture mode.
func (s *Settings) ModeAnnotation() string {
	if s.VideoMode {
		return "Video mode"
	}
	return "Photo mode"
}

// formatFloat prints 1.0 as "1.0" and 1.25 as "1.25".
func formatFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprintf("%g", f)
}
