// Package cvcam implements camera.Camera on top of gocv (OpenCV).
package cvcam

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/hw/camera"
)

const previewWindow = "Microscope"

var rotateFlags = map[int]gocv.RotateFlag{
	90:  gocv.Rotate90Clockwise,
	180: gocv.Rotate180Clockwise,
	270: gocv.Rotate90CounterClockwise,
}

// White-balance presets in Kelvin for V4L2 drivers without named AWB modes.
var wbTemperature = map[string]float64{
	"sunlight":    5200,
	"cloudy":      6000,
	"shade":       7000,
	"tungsten":    3200,
	"fluorescent": 4000,
	"flash":       5500,
	"horizon":     2500,
}

// Device drives a V4L2 camera module (Pi camera through bcm2835-v4l2 or
// libcamera's V4L2 compatibility layer) with gocv.
//
// Sensor controls go straight to the driver. Digital zoom, rotation, exposure
// compensation, white-balance gain and the overlay are applied to each frame
// by a pump goroutine, which also feeds the preview window and the video
// writer.
type Device struct {
	capMu sync.Mutex
	cap   *gocv.VideoCapture

	mu          sync.Mutex
	zoom        camera.Rect
	rotation    int
	ev          int
	wbOff       bool
	wbGain      float64
	overlay     string
	overlaySize int
	preview     bool
	visible     bool
	fps         float64
	writer      *gocv.VideoWriter
	last        gocv.Mat // latest processed frame, without overlay

	stop chan struct{}
	done chan struct{}
}

// Open opens /dev/video<device> and starts the frame pump.
func Open(device int) (*Device, error) {
	debug.Info("Opening camera /dev/video%d (gocv)", device)
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: device not opened", device)
	}
	c := &Device{
		cap:     vc,
		zoom:    camera.FullFrame,
		wbGain:  1,
		visible: true,
		fps:     30,
		last:    gocv.NewMat(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.pump()
	return c, nil
}

func (c *Device) setProp(name string, prop gocv.VideoCaptureProperties, v float64) error {
	c.capMu.Lock()
	defer c.capMu.Unlock()
	if c.cap == nil {
		return errors.New("camera closed")
	}
	debug.Verbose("Camera: %s = %v", name, v)
	c.cap.Set(prop, v)
	return nil
}

func (c *Device) SetBrightness(p int) error {
	return c.setProp("brightness", gocv.VideoCaptureBrightness, float64(p))
}

func (c *Device) SetContrast(p int) error {
	return c.setProp("contrast", gocv.VideoCaptureContrast, float64(p))
}

func (c *Device) SetSaturation(p int) error {
	return c.setProp("saturation", gocv.VideoCaptureSaturation, float64(p))
}

// SetExposureCompensation applies EV in software, 1/6 stop per step.
func (c *Device) SetExposureCompensation(ev int) error {
	c.mu.Lock()
	c.ev = ev
	c.mu.Unlock()
	debug.Verbose("Camera: exposure_compensation = %d", ev)
	return nil
}

func (c *Device) SetZoom(r camera.Rect) error {
	if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 || r.X+r.W > 1 || r.Y+r.H > 1 {
		return fmt.Errorf("zoom rect out of range: %+v", r)
	}
	c.mu.Lock()
	c.zoom = r
	c.mu.Unlock()
	debug.Verbose("Camera: zoom = %+v", r)
	return nil
}

func (c *Device) SetResolution(w, h int) error {
	if err := c.setProp("frame_width", gocv.VideoCaptureFrameWidth, float64(w)); err != nil {
		return err
	}
	return c.setProp("frame_height", gocv.VideoCaptureFrameHeight, float64(h))
}

func (c *Device) SetRotation(d int) error {
	switch d {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("unsupported rotation %d", d)
	}
	c.mu.Lock()
	c.rotation = d
	c.mu.Unlock()
	return nil
}

func (c *Device) SetISO(iso int) error {
	return c.setProp("iso", gocv.VideoCaptureISOSpeed, float64(iso))
}

// SetShutterSpeed sets the exposure time; 0 returns to auto exposure.
// V4L2 exposure_time_absolute counts in 100 µs units.
func (c *Device) SetShutterSpeed(us int) error {
	if us == 0 {
		return c.setProp("auto_exposure", gocv.VideoCaptureAutoExposure, 3)
	}
	if err := c.setProp("auto_exposure", gocv.VideoCaptureAutoExposure, 1); err != nil {
		return err
	}
	return c.setProp("exposure", gocv.VideoCaptureExposure, math.Max(1, float64(us)/100))
}

func (c *Device) SetFramerate(fps float64) error {
	c.mu.Lock()
	c.fps = fps
	c.mu.Unlock()
	return c.setProp("fps", gocv.VideoCaptureFPS, fps)
}

// SetExposureMode maps "off" to manual exposure and every other mode to the
// driver's auto exposure.
func (c *Device) SetExposureMode(mode string) error {
	if mode == "off" {
		return c.setProp("auto_exposure", gocv.VideoCaptureAutoExposure, 1)
	}
	return c.setProp("auto_exposure", gocv.VideoCaptureAutoExposure, 3)
}

func (c *Device) SetWhiteBalance(mode string) error {
	c.mu.Lock()
	c.wbOff = mode == "off"
	c.mu.Unlock()
	switch mode {
	case "auto":
		return c.setProp("auto_wb", gocv.VideoCaptureAutoWB, 1)
	case "off":
		return c.setProp("auto_wb", gocv.VideoCaptureAutoWB, 0)
	}
	k, ok := wbTemperature[mode]
	if !ok {
		return fmt.Errorf("unknown white balance mode %q", mode)
	}
	if err := c.setProp("auto_wb", gocv.VideoCaptureAutoWB, 0); err != nil {
		return err
	}
	return c.setProp("wb_temperature", gocv.VideoCaptureWBTemperature, k)
}

// SetWhiteBalanceGain scales the red and blue channels when AWB is off.
func (c *Device) SetWhiteBalanceGain(g float64) error {
	c.mu.Lock()
	c.wbGain = g
	c.mu.Unlock()
	return nil
}

func (c *Device) Annotate(text string) error {
	c.mu.Lock()
	c.overlay = text
	c.mu.Unlock()
	return nil
}

func (c *Device) SetAnnotateSize(size int) error {
	c.mu.Lock()
	c.overlaySize = size
	c.mu.Unlock()
	return nil
}

func (c *Device) StartPreview() error {
	c.mu.Lock()
	c.preview = true
	c.mu.Unlock()
	return nil
}

func (c *Device) StopPreview() error {
	c.mu.Lock()
	c.preview = false
	c.mu.Unlock()
	return nil
}

func (c *Device) SetPreviewVisible(v bool) error {
	c.mu.Lock()
	c.visible = v
	c.mu.Unlock()
	return nil
}

// CaptureStill writes the latest frame as JPEG.
func (c *Device) CaptureStill(path string, quality int) error {
	c.mu.Lock()
	if c.last.Empty() {
		c.mu.Unlock()
		return errors.New("no frame captured yet")
	}
	frame := c.last.Clone()
	c.mu.Unlock()
	defer frame.Close()

	if ok := gocv.IMWriteWithParams(path, frame, []int{int(gocv.IMWriteJpegQuality), quality}); !ok {
		return fmt.Errorf("write still %s failed", path)
	}
	return nil
}

// StartRecording opens an H.264 writer sized like the current frame.
func (c *Device) StartRecording(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writer != nil {
		return errors.New("already recording")
	}
	if c.last.Empty() {
		return errors.New("no frame captured yet")
	}
	w, err := gocv.VideoWriterFile(path, "H264", c.fps, c.last.Cols(), c.last.Rows(), true)
	if err != nil {
		return fmt.Errorf("open video writer %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return fmt.Errorf("open video writer %s: not opened", path)
	}
	c.writer = w
	return nil
}

func (c *Device) StopRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writer == nil {
		return errors.New("not recording")
	}
	err := c.writer.Close()
	c.writer = nil
	return err
}

// Close stops the pump, finalizes an open recording and releases the device.
func (c *Device) Close() error {
	close(c.stop)
	<-c.done

	c.mu.Lock()
	var err error
	if c.writer != nil {
		err = c.writer.Close()
		c.writer = nil
	}
	c.last.Close()
	c.mu.Unlock()

	c.capMu.Lock()
	defer c.capMu.Unlock()
	if cerr := c.cap.Close(); cerr != nil && err == nil {
		err = cerr
	}
	c.cap = nil
	return err
}

// pump reads frames until Close. HighGUI windows must stay on one OS thread.
func (c *Device) pump() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.done)

	var window *gocv.Window
	defer func() {
		if window != nil {
			window.Close()
		}
	}()

	raw := gocv.NewMat()
	defer raw.Close()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.capMu.Lock()
		ok := c.cap.Read(&raw)
		c.capMu.Unlock()
		if !ok || raw.Empty() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		c.mu.Lock()
		frame := c.process(raw)
		c.last.Close()
		c.last = frame.Clone()
		if c.writer != nil {
			if err := c.writer.Write(frame); err != nil {
				debug.Error(fmt.Errorf("video write: %w", err))
			}
		}
		show := c.preview && c.visible
		if show {
			c.drawOverlay(&frame)
		}
		c.mu.Unlock()

		switch {
		case show && window == nil:
			window = gocv.NewWindow(previewWindow)
		case !show && window != nil:
			window.Close()
			window = nil
		}
		if window != nil {
			window.IMShow(frame)
			window.WaitKey(1)
		}
		frame.Close()
	}
}

// process applies rotation, zoom, EV and white-balance gain. Caller holds mu.
func (c *Device) process(raw gocv.Mat) gocv.Mat {
	frame := raw.Clone()

	if flag, ok := rotateFlags[c.rotation]; ok {
		rotated := gocv.NewMat()
		gocv.Rotate(frame, &rotated, flag)
		frame.Close()
		frame = rotated
	}

	if c.zoom != camera.FullFrame {
		w, h := frame.Cols(), frame.Rows()
		roi := image.Rect(
			int(c.zoom.X*float64(w)), int(c.zoom.Y*float64(h)),
			int((c.zoom.X+c.zoom.W)*float64(w)), int((c.zoom.Y+c.zoom.H)*float64(h)),
		)
		region := frame.Region(roi)
		zoomed := gocv.NewMat()
		gocv.Resize(region, &zoomed, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
		region.Close()
		frame.Close()
		frame = zoomed
	}

	if c.ev != 0 {
		frame.ConvertToWithParams(&frame, gocv.MatTypeCV8UC3, float32(math.Pow(2, float64(c.ev)/6)), 0)
	}

	if c.wbOff && c.wbGain != 1 && frame.Channels() == 3 {
		ch := gocv.Split(frame)
		ch[0].MultiplyFloat(float32(c.wbGain)) // blue
		ch[2].MultiplyFloat(float32(c.wbGain)) // red
		gocv.Merge(ch, &frame)
		for _, m := range ch {
			m.Close()
		}
	}
	return frame
}

// drawOverlay centers the annotation near the top of the frame. Caller holds mu.
func (c *Device) drawOverlay(frame *gocv.Mat) {
	if c.overlay == "" {
		return
	}
	scale := float64(c.overlaySize) / 40
	if scale <= 0 {
		scale = 1
	}
	thickness := int(math.Max(1, scale*2))
	size := gocv.GetTextSize(c.overlay, gocv.FontHersheySimplex, scale, thickness)
	org := image.Pt((frame.Cols()-size.X)/2, size.Y+20)
	gocv.PutText(frame, c.overlay, org, gocv.FontHersheySimplex, scale, color.RGBA{255, 255, 255, 0}, thickness)
}
