package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "default.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateConfigPath(path); err != nil {
		t.Errorf("expected valid path, got error: %v", err)
	}
}

func TestValidateConfigPath_PathTraversal(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"configs/../../../etc/shadow",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for traversal path %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_WrongExtension(t *testing.T) {
	cases := []string{
		"configs/default.json",
		"configs/default.yml",
		"configs/default",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for extension in %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_NotInConfigsDir(t *testing.T) {
	cases := []string{
		"other/default.yaml",
		"/tmp/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for path outside configs/ %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_EmptyPath(t *testing.T) {
	if err := ValidateConfigPath(""); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
camera:
  type: "mock"
  device: 1
  high_resolution: false
  rotation: 0
  annotate_size: 50
  photo_settle_ms: 10
  video_start_delay_ms: 20
motion:
  enabled: true
  device: "/dev/ttyUSB0"
  baud: 115200
led:
  driver: "gpio_pwm"
  pwm_pin: 12
capture:
  path: "/tmp/shots"
input:
  source: "evdev"
  evdev_device: "/dev/input/event3"
  repeat: "coalesce"
  release_timeout_ms: 400
defaults:
  debug_level: 3
  mock_gpio: true
`

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.Type != "mock" {
		t.Errorf("camera.type = %q, want %q", cfg.Camera.Type, "mock")
	}
	if cfg.Camera.Device != 1 {
		t.Errorf("camera.device = %d, want 1", cfg.Camera.Device)
	}
	if cfg.Motion.Device != "/dev/ttyUSB0" || cfg.Motion.Baud != 115200 {
		t.Errorf("motion = %+v", cfg.Motion)
	}
	if cfg.LED.Driver != "gpio_pwm" || cfg.LED.PWMPin != 12 {
		t.Errorf("led = %+v", cfg.LED)
	}
	if cfg.Capture.Path != "/tmp/shots" {
		t.Errorf("capture.path = %q", cfg.Capture.Path)
	}
	if cfg.Input.Source != "evdev" || cfg.Input.Repeat != "coalesce" {
		t.Errorf("input = %+v", cfg.Input)
	}
	if cfg.MaxResolution() != ReducedResolution {
		t.Errorf("MaxResolution() = %v, want %v", cfg.MaxResolution(), ReducedResolution)
	}
	if cfg.PhotoSettle() != 10*time.Millisecond {
		t.Errorf("PhotoSettle() = %v", cfg.PhotoSettle())
	}
	if cfg.VideoStartDelay() != 20*time.Millisecond {
		t.Errorf("VideoStartDelay() = %v", cfg.VideoStartDelay())
	}
	if cfg.ReleaseTimeout() != 400*time.Millisecond {
		t.Errorf("ReleaseTimeout() = %v", cfg.ReleaseTimeout())
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	path := writeConfig(t, "defaults:\n  debug_level: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.Type != "opencv" {
		t.Errorf("camera.type default = %q, want opencv", cfg.Camera.Type)
	}
	if cfg.MaxResolution() != MaxResolution {
		t.Errorf("MaxResolution() default = %v, want %v", cfg.MaxResolution(), MaxResolution)
	}
	if cfg.Camera.Rotation != 180 {
		t.Errorf("rotation default = %d, want 180", cfg.Camera.Rotation)
	}
	if cfg.Motion.Device != "/dev/ttyACM0" || cfg.Motion.Baud != 57600 {
		t.Errorf("motion defaults = %+v", cfg.Motion)
	}
	if cfg.Capture.Path != "/home/pi/Pictures" {
		t.Errorf("capture.path default = %q", cfg.Capture.Path)
	}
	if cfg.PhotoSettle() != time.Second {
		t.Errorf("PhotoSettle() default = %v, want 1s", cfg.PhotoSettle())
	}
	if cfg.VideoStartDelay() != 2*time.Second {
		t.Errorf("VideoStartDelay() default = %v, want 2s", cfg.VideoStartDelay())
	}
	if cfg.Input.Repeat != "pass" {
		t.Errorf("input.repeat default = %q, want pass", cfg.Input.Repeat)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/configs/missing.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestLoadOrDefault_MissingOptionalFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "configs", "default.yaml"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.Type != "opencv" {
		t.Errorf("expected built-in defaults, got %+v", cfg.Camera)
	}
}

func TestLoadOrDefault_MissingRequiredFile(t *testing.T) {
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "configs", "x.yaml"), false); err == nil {
		t.Error("expected error for missing explicit config, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "camera: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"empty camera type", "camera:\n  type: \"\"\n", "camera.type"},
		{"unknown camera type", "camera:\n  type: \"nikon\"\n", "camera.type"},
		{"bad rotation", "camera:\n  rotation: 45\n", "rotation"},
		{"annotate too large", "camera:\n  annotate_size: 500\n", "annotate_size"},
		{"negative settle", "camera:\n  photo_settle_ms: -1\n", "photo_settle_ms"},
		{"missing serial device", "motion:\n  enabled: true\n  device: \"\"\n", "motion.device"},
		{"unknown led driver", "led:\n  driver: \"dmx\"\n", "led.driver"},
		{"non pwm pin", "led:\n  driver: \"gpio_pwm\"\n  pwm_pin: 4\n", "pwm_pin"},
		{"empty capture path", "capture:\n  path: \"\"\n", "capture.path"},
		{"unknown input source", "input:\n  source: \"joystick\"\n", "input.source"},
		{"unknown display mode", "display:\n  mode: \"framebuffer\"\n", "display.mode"},
		{"window keys on terminal", "input:\n  source: \"window\"\n", "input.source"},
		{"bad repeat policy", "input:\n  repeat: \"debounce\"\n", "input.repeat"},
		{"debug level", "defaults:\n  debug_level: 7\n", "debug_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestValidate_SerialLEDWithoutMotionIsDisabled(t *testing.T) {
	path := writeConfig(t, "motion:\n  enabled: false\nled:\n  driver: \"serial\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LED.Driver != "none" {
		t.Errorf("led.driver = %q, want none when motion is disabled", cfg.LED.Driver)
	}
}

func TestValidate_InputFollowsDisplayMode(t *testing.T) {
	cfg, err := Load(writeConfig(t, "display:\n  mode: \"window\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input.Source != "window" || cfg.Display.Title != "Microscope" {
		t.Errorf("input.source = %q, title = %q", cfg.Input.Source, cfg.Display.Title)
	}

	cfg, err = Load(writeConfig(t, "display:\n  mode: \"window\"\ninput:\n  source: \"evdev\"\n"))
	if err != nil {
		t.Fatalf("evdev keys with window dialogs: %v", err)
	}
	if cfg.Input.Source != "evdev" {
		t.Errorf("input.source = %q, want evdev", cfg.Input.Source)
	}
}

func TestValidate_ZeroValuesFilled(t *testing.T) {
	path := writeConfig(t, "camera:\n  annotate_size: 0\nmotion:\n  baud: 0\ninput:\n  release_timeout_ms: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.AnnotateSize != 100 {
		t.Errorf("annotate_size = %d, want 100", cfg.Camera.AnnotateSize)
	}
	if cfg.Motion.Baud != 57600 {
		t.Errorf("baud = %d, want 57600", cfg.Motion.Baud)
	}
	if cfg.Input.ReleaseTimeoutMs != 600 {
		t.Errorf("release_timeout_ms = %d, want 600", cfg.Input.ReleaseTimeoutMs)
	}
}

func TestLoad_ShippedDefaultConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "default.yaml"))
	if err != nil {
		t.Fatalf("shipped config should load: %v", err)
	}
	if cfg.Camera.Type != "opencv" || !cfg.Motion.Enabled {
		t.Errorf("unexpected shipped config: %+v", cfg)
	}
}
