package camera

import (
	"fmt"
	"os"
	"sync"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// Mock is a Camera that logs every call and writes placeholder files for
// stills and recordings. Used for development away from the rig.
type Mock struct {
	mu        sync.Mutex
	recording *os.File
	preview   bool
	overlay   string
}

func NewMock() *Mock {
	debug.Info("Using MOCK camera (development mode)")
	return &Mock{}
}

func (m *Mock) set(name string, v interface{}) error {
	debug.Verbose("Camera (mock): %s = %v", name, v)
	return nil
}

func (m *Mock) SetBrightness(p int) error            { return m.set("brightness", p) }
func (m *Mock) SetContrast(p int) error              { return m.set("contrast", p) }
func (m *Mock) SetSaturation(p int) error            { return m.set("saturation", p) }
func (m *Mock) SetExposureCompensation(ev int) error { return m.set("exposure_compensation", ev) }
func (m *Mock) SetZoom(r Rect) error                 { return m.set("zoom", r) }
func (m *Mock) SetRotation(d int) error              { return m.set("rotation", d) }
func (m *Mock) SetISO(iso int) error                 { return m.set("iso", iso) }
func (m *Mock) SetShutterSpeed(us int) error         { return m.set("shutter_speed", us) }
func (m *Mock) SetFramerate(fps float64) error       { return m.set("framerate", fps) }
func (m *Mock) SetExposureMode(mode string) error    { return m.set("exposure_mode", mode) }
func (m *Mock) SetWhiteBalance(mode string) error    { return m.set("awb_mode", mode) }
func (m *Mock) SetWhiteBalanceGain(g float64) error  { return m.set("awb_gains", g) }
func (m *Mock) SetAnnotateSize(size int) error       { return m.set("annotate_text_size", size) }
func (m *Mock) SetPreviewVisible(visible bool) error { return m.set("preview_visible", visible) }

func (m *Mock) SetResolution(w, h int) error {
	return m.set("resolution", fmt.Sprintf("%dx%d", w, h))
}

func (m *Mock) Annotate(text string) error {
	m.mu.Lock()
	m.overlay = text
	m.mu.Unlock()
	debug.Live("Camera (mock): overlay %q", text)
	return nil
}

func (m *Mock) StartPreview() error {
	m.mu.Lock()
	m.preview = true
	m.mu.Unlock()
	return m.set("preview", true)
}

func (m *Mock) StopPreview() error {
	m.mu.Lock()
	m.preview = false
	m.mu.Unlock()
	return m.set("preview", false)
}

func (m *Mock) CaptureStill(path string, quality int) error {
	debug.Live("Camera (mock): still %s (quality %d)", path, quality)
	return os.WriteFile(path, []byte("mock jpeg\n"), 0o644)
}

func (m *Mock) StartRecording(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recording != nil {
		return fmt.Errorf("already recording to %s", m.recording.Name())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	debug.Live("Camera (mock): recording to %s", path)
	m.recording = f
	return nil
}

func (m *Mock) StopRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recording == nil {
		return fmt.Errorf("not recording")
	}
	debug.Live("Camera (mock): recording stopped")
	err := m.recording.Close()
	m.recording = nil
	return err
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recording != nil {
		err := m.recording.Close()
		m.recording = nil
		return err
	}
	return nil
}

// Overlay returns the current overlay text.
func (m *Mock) Overlay() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlay
}

// Previewing reports whether the preview is running.
func (m *Mock) Previewing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preview
}
