package main

import (
	"context"
	"testing"

	"github.com/cjeanneret/microscopy/internal/config"
	"github.com/cjeanneret/microscopy/internal/hw/camera"
	"github.com/cjeanneret/microscopy/internal/hw/led"
	"github.com/cjeanneret/microscopy/internal/hw/serial"
	"github.com/cjeanneret/microscopy/internal/logic/motion"
)

// ---------- newCameraFromConfig ----------

func TestNewCameraFromConfig_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.Type = "mock"
	cam, err := newCameraFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cam.(*camera.Mock); !ok {
		t.Errorf("camera = %T, want *camera.Mock", cam)
	}
}

func TestNewCameraFromConfig_Unsupported(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.Type = "nikon"
	if _, err := newCameraFromConfig(cfg); err == nil {
		t.Error("expected error for unsupported camera type")
	}
}

// ---------- newSerialLink ----------

func TestNewSerialLink_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Motion.Enabled = false
	link, err := newSerialLink(cfg)
	if err != nil || link != nil {
		t.Errorf("disabled stage: link=%v err=%v, want nil, nil", link, err)
	}
}

func TestNewSerialLink_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Motion.Mock = true
	link, err := newSerialLink(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := link.(*serial.MockLink); !ok {
		t.Errorf("link = %T, want *serial.MockLink", link)
	}
}

// ---------- newLEDDriver ----------

func TestNewLEDDriver(t *testing.T) {
	ctrl := motion.NewController(&serial.MockLink{})

	cases := []struct {
		name     string
		driver   string
		ctrl     *motion.Controller
		wantType string
		wantGPIO bool
	}{
		{"serial", "serial", ctrl, "*motion.Controller", false},
		{"serial_without_stage", "serial", nil, "led.None", false},
		{"pwm", "gpio_pwm", nil, "*led.PWM", true},
		{"none", "none", ctrl, "led.None", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.LED.Driver = tc.driver
			cfg.Defaults.MockGPIO = true
			g, d, err := newLEDDriver(cfg, tc.ctrl)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(d); got != tc.wantType {
				t.Errorf("LED driver = %s, want %s", got, tc.wantType)
			}
			if (g != nil) != tc.wantGPIO {
				t.Errorf("GPIO driver = %v, want present=%v", g, tc.wantGPIO)
			}
		})
	}
}

func TestNewLEDDriver_Unsupported(t *testing.T) {
	cfg := config.Default()
	cfg.LED.Driver = "laser"
	if _, _, err := newLEDDriver(cfg, nil); err == nil {
		t.Error("expected error for unsupported LED driver")
	}
}

func typeName(d led.Driver) string {
	switch d.(type) {
	case *motion.Controller:
		return "*motion.Controller"
	case led.None:
		return "led.None"
	case *led.PWM:
		return "*led.PWM"
	}
	return "unknown"
}

// ---------- newFrontEnd ----------

func TestNewFrontEnd_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"repeat policy", func(c *config.Config) { c.Input.Repeat = "debounce" }},
		{"display mode", func(c *config.Config) { c.Display.Mode = "framebuffer" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			if fe, err := newFrontEnd(cfg); err == nil {
				fe.close()
				t.Error("expected error")
			}
		})
	}
}

func TestFrontEnd_TerminalModeRunsInline(t *testing.T) {
	fe := &frontEnd{}
	called := false
	err := fe.run(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("run: called=%v err=%v", called, err)
	}
}
