package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cjeanneret/microscopy/internal/config"
	"github.com/cjeanneret/microscopy/internal/console"
	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/fault"
	"github.com/cjeanneret/microscopy/internal/hw/camera"
	"github.com/cjeanneret/microscopy/internal/hw/camera/cvcam"
	"github.com/cjeanneret/microscopy/internal/hw/gpio"
	"github.com/cjeanneret/microscopy/internal/hw/led"
	"github.com/cjeanneret/microscopy/internal/hw/serial"
	"github.com/cjeanneret/microscopy/internal/logic/capture"
	"github.com/cjeanneret/microscopy/internal/logic/motion"
	"github.com/cjeanneret/microscopy/internal/logic/settings"
)

const defaultConfigPath = "configs/default.yaml"

func main() {
	// CLI flags
	cfgPath := flag.String("config", filepath.FromSlash(defaultConfigPath), "path to config file")
	showHelp := flag.Bool("shortcuts", true, "show the keyboard shortcuts at start-up")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A missing default file falls back to built-in defaults; an explicit
	// path must exist.
	optional := !isFlagSet("config")
	if !optional {
		if err := config.ValidateConfigPath(*cfgPath); err != nil {
			log.Fatalf("invalid -config: %v", err)
		}
	}
	cfg, err := config.LoadOrDefault(*cfgPath, optional)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	debug.Init(cfg.Defaults.DebugLevel)
	defer debug.Sync()

	if err := run(ctx, cfg, *cfgPath, *showHelp); err != nil {
		debug.Sync()
		log.Fatalf("microscopy: %v", err)
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// run opens every boundary, hands them to the console and blocks until
// Escape. The console's shutdown closes serial, GPIO and camera; deferred
// closes only cover a failed start-up.
func run(ctx context.Context, cfg *config.Config, cfgPath string, showHelp bool) error {
	debug.Section("Initialization")
	debug.Value("Config path", cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.PrintStruct("Config", *cfg)

	debug.Step(1, "Opening camera")
	cam, err := newCameraFromConfig(cfg)
	if err != nil {
		return fault.Boundary("open camera", err)
	}
	debug.Value("Camera type", cfg.Camera.Type)

	debug.Step(2, "Opening serial link")
	link, err := newSerialLink(cfg)
	if err != nil {
		cam.Close()
		return fault.Boundary("open serial link", err)
	}
	var ctrl *motion.Controller
	if link != nil {
		ctrl = motion.NewController(link)
	}

	debug.Step(3, "Initializing LED driver")
	gpioDriver, ledDriver, err := newLEDDriver(cfg, ctrl)
	if err != nil {
		closeAll(cam, link)
		return fault.Boundary("init LED driver", err)
	}
	debug.Value("LED driver", cfg.LED.Driver)

	debug.Step(4, "Opening keyboard and dialogs")
	fe, err := newFrontEnd(cfg)
	if err != nil {
		closeAll(cam, link, gpioDriver)
		return fault.Boundary("open keyboard", err)
	}
	defer fe.close()
	debug.Value("Display mode", cfg.Display.Mode)

	orch := capture.NewOrchestrator(cam, cfg.PhotoSettle(), cfg.VideoStartDelay())
	con := console.New(console.Deps{
		Settings:      settings.New(cfg.Capture.Path),
		Camera:        cam,
		Motion:        ctrl,
		LED:           ledDriver,
		Capture:       orch,
		Dialogs:       fe.dialogs,
		Input:         fe.keys,
		Serial:        link,
		GPIO:          gpioDriver,
		MaxResolution: cfg.MaxResolution(),
		Rotation:      cfg.Camera.Rotation,
		AnnotateSize:  cfg.Camera.AnnotateSize,
	})

	return fe.run(ctx, func(ctx context.Context) error {
		debug.Step(5, "Starting preview")
		if err := con.Start(); err != nil {
			// Properties the device rejects are not fatal.
			debug.Error(err)
		}
		if showHelp {
			con.ShowHelp()
		}
		debug.Summary("Ready: F1 for shortcuts, Esc to quit")
		return con.Run(ctx)
	})
}

// newCameraFromConfig selects a camera implementation based on configuration.
func newCameraFromConfig(cfg *config.Config) (camera.Camera, error) {
	switch cfg.Camera.Type {
	case "opencv":
		return cvcam.Open(cfg.Camera.Device)
	case "mock":
		return camera.NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}

// newSerialLink opens the stage controller link, or returns nil when the
// stage is disabled.
func newSerialLink(cfg *config.Config) (serial.Link, error) {
	if !cfg.Motion.Enabled {
		debug.Info("Keyboard stage control disabled")
		return nil, nil
	}
	if cfg.Motion.Mock {
		debug.Info("Using MOCK serial link (development mode)")
		return &serial.MockLink{}, nil
	}
	return serial.Open(serial.Config{Device: cfg.Motion.Device, Baud: cfg.Motion.Baud})
}

// newLEDDriver returns the LED sink and, for the PWM driver, the GPIO driver
// it owns.
func newLEDDriver(cfg *config.Config, ctrl *motion.Controller) (gpio.Driver, led.Driver, error) {
	switch cfg.LED.Driver {
	case "serial":
		if ctrl == nil {
			return nil, led.None{}, nil
		}
		return nil, ctrl, nil
	case "gpio_pwm":
		g, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
		if err != nil {
			return nil, nil, err
		}
		p, err := led.NewPWM(g, cfg.LED.PWMPin)
		if err != nil {
			g.Close()
			return nil, nil, err
		}
		return g, p, nil
	case "none", "":
		return nil, led.None{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported LED driver: %s", cfg.LED.Driver)
	}
}

type closer interface{ Close() error }

func closeAll(cs ...closer) {
	for _, c := range cs {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			debug.Error(err)
		}
	}
}
