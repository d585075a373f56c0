package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Resolution is a sensor capture size in pixels.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

var (
	// MaxResolution is the Pi camera v2 full sensor, 8MP.
	MaxResolution = Resolution{Width: 3280, Height: 2464}
	// ReducedResolution is Full HD, for Pi Zero / Pi 3 and for video.
	ReducedResolution = Resolution{Width: 1920, Height: 1080}
)

// CameraConfig describes how to talk to the camera module.
// Type selects a concrete implementation ("opencv" or "mock").
type CameraConfig struct {
	Type              string `yaml:"type"`                 // "opencv" or "mock"
	Device            int    `yaml:"device"`               // V4L2 device index (/dev/videoN)
	HighResolution    bool   `yaml:"high_resolution"`      // true: 3280x2464, false: 1920x1080
	Rotation          int    `yaml:"rotation"`             // 0, 90, 180, 270
	AnnotateSize      int    `yaml:"annotate_size"`        // overlay text size (6-160)
	PhotoSettleMs     int    `yaml:"photo_settle_ms"`      // delay before a still
	VideoStartDelayMs int    `yaml:"video_start_delay_ms"` // delay before recording starts
}

// MotionConfig describes the serial link to the stage/LED microcontroller.
type MotionConfig struct {
	Enabled bool   `yaml:"enabled"` // false: no microcontroller attached, no serial port opened
	Device  string `yaml:"device"`  // e.g. /dev/ttyACM0 ("ls /dev/tty*" to find it)
	Baud    int    `yaml:"baud"`
	Mock    bool   `yaml:"mock"` // log commands instead of writing them
}

// LEDConfig selects how illumination is driven.
type LEDConfig struct {
	Driver string `yaml:"driver"`  // "serial", "gpio_pwm" or "none"
	PWMPin int    `yaml:"pwm_pin"` // BCM pin with hardware PWM (12, 13, 18 or 19)
}

// CaptureConfig holds output defaults for stills and video.
type CaptureConfig struct {
	Path string `yaml:"path"` // default output directory
}

// DisplayConfig selects where dialogs are drawn.
type DisplayConfig struct {
	Mode  string `yaml:"mode"`  // "terminal" (raw stdin/stdout) or "window" (desktop window)
	Title string `yaml:"title"` // window title
}

// InputConfig selects the keyboard source and its repeat policy.
type InputConfig struct {
	Source           string `yaml:"source"`             // "terminal", "window" or "evdev"
	EvdevDevice      string `yaml:"evdev_device"`       // e.g. /dev/input/event0
	Repeat           string `yaml:"repeat"`             // "pass" or "coalesce"
	ReleaseTimeoutMs int    `yaml:"release_timeout_ms"` // terminal only: synthesized release delay
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Motion   MotionConfig   `yaml:"motion"`
	LED      LEDConfig      `yaml:"led"`
	Capture  CaptureConfig  `yaml:"capture"`
	Input    InputConfig    `yaml:"input"`
	Display  DisplayConfig  `yaml:"display"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Default returns the configuration used when no file is given.
// It matches the rig the console was written for: Pi camera v2 at full
// resolution, Arduino on /dev/ttyACM0 at 57600 baud.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Type:              "opencv",
			HighResolution:    true,
			Rotation:          180,
			AnnotateSize:      100,
			PhotoSettleMs:     1000,
			VideoStartDelayMs: 2000,
		},
		Motion: MotionConfig{
			Enabled: true,
			Device:  "/dev/ttyACM0",
			Baud:    57600,
		},
		LED:     LEDConfig{Driver: "serial", PWMPin: 18},
		Capture: CaptureConfig{Path: "/home/pi/Pictures"},
		Input: InputConfig{
			Source:           "", // follows display.mode
			EvdevDevice:      "/dev/input/event0",
			Repeat:           "pass",
			ReleaseTimeoutMs: 600,
		},
		Display:  DisplayConfig{Mode: "terminal", Title: "Microscope"},
		Defaults: DefaultsConfig{DebugLevel: 1},
	}
}

// Load reads a YAML file and returns the configuration.
// Keys missing from the file keep their Default() value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default() when the file does not
// exist and optional is true.
func LoadOrDefault(path string, optional bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && optional && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks ranges and fills zero values with defaults.
func (c *Config) Validate() error {
	switch c.Camera.Type {
	case "opencv", "mock":
	case "":
		return fmt.Errorf("camera.type is required")
	default:
		return fmt.Errorf("unsupported camera.type %q", c.Camera.Type)
	}
	switch c.Camera.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("camera.rotation must be 0, 90, 180 or 270, got %d", c.Camera.Rotation)
	}
	if c.Camera.AnnotateSize <= 0 {
		c.Camera.AnnotateSize = 100
	}
	if c.Camera.AnnotateSize < 6 || c.Camera.AnnotateSize > 160 {
		return fmt.Errorf("camera.annotate_size must be between 6 and 160, got %d", c.Camera.AnnotateSize)
	}
	if c.Camera.PhotoSettleMs < 0 {
		return fmt.Errorf("camera.photo_settle_ms must be >= 0, got %d", c.Camera.PhotoSettleMs)
	}
	if c.Camera.VideoStartDelayMs < 0 {
		return fmt.Errorf("camera.video_start_delay_ms must be >= 0, got %d", c.Camera.VideoStartDelayMs)
	}

	if c.Motion.Enabled {
		if c.Motion.Device == "" {
			return fmt.Errorf("motion.device is required when motion is enabled")
		}
		if c.Motion.Baud <= 0 {
			c.Motion.Baud = 57600
		}
	}

	switch c.LED.Driver {
	case "":
		c.LED.Driver = "serial"
	case "serial", "none":
	case "gpio_pwm":
		switch c.LED.PWMPin {
		case 12, 13, 18, 19:
		default:
			return fmt.Errorf("led.pwm_pin must be a hardware PWM pin (12, 13, 18, 19), got %d", c.LED.PWMPin)
		}
	default:
		return fmt.Errorf("unsupported led.driver %q", c.LED.Driver)
	}
	if c.LED.Driver == "serial" && !c.Motion.Enabled {
		// No microcontroller attached: nothing to send LED levels to.
		c.LED.Driver = "none"
	}

	if c.Capture.Path == "" {
		return fmt.Errorf("capture.path is required")
	}

	switch c.Display.Mode {
	case "":
		c.Display.Mode = "terminal"
	case "terminal", "window":
	default:
		return fmt.Errorf("unsupported display.mode %q", c.Display.Mode)
	}
	if c.Display.Title == "" {
		c.Display.Title = "Microscope"
	}

	switch c.Input.Source {
	case "":
		c.Input.Source = c.Display.Mode
	case "terminal", "window":
		if c.Input.Source != c.Display.Mode {
			return fmt.Errorf("input.source %q needs display.mode %q, got %q", c.Input.Source, c.Input.Source, c.Display.Mode)
		}
	case "evdev":
		if c.Input.EvdevDevice == "" {
			return fmt.Errorf("input.evdev_device is required for the evdev source")
		}
	default:
		return fmt.Errorf("unsupported input.source %q", c.Input.Source)
	}
	switch c.Input.Repeat {
	case "":
		c.Input.Repeat = "pass"
	case "pass", "coalesce":
	default:
		return fmt.Errorf("input.repeat must be pass or coalesce, got %q", c.Input.Repeat)
	}
	if c.Input.ReleaseTimeoutMs <= 0 {
		c.Input.ReleaseTimeoutMs = 600
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

// ValidateConfigPath rejects config paths outside a configs/ directory or
// without a .yaml extension.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path must have .yaml extension: %s", path)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file must live in a configs/ directory: %s", path)
	}
	return nil
}

// MaxResolution returns the still resolution selected by high_resolution.
func (c *Config) MaxResolution() Resolution {
	if c.Camera.HighResolution {
		return MaxResolution
	}
	return ReducedResolution
}

// PhotoSettle returns the delay before a still capture.
func (c *Config) PhotoSettle() time.Duration {
	return time.Duration(c.Camera.PhotoSettleMs) * time.Millisecond
}

// VideoStartDelay returns the delay before recording starts.
func (c *Config) VideoStartDelay() time.Duration {
	return time.Duration(c.Camera.VideoStartDelayMs) * time.Millisecond
}

// ReleaseTimeout returns how long the terminal source waits for a key repeat
// before it synthesizes a release.
func (c *Config) ReleaseTimeout() time.Duration {
	return time.Duration(c.Input.ReleaseTimeoutMs) * time.Millisecond
}
