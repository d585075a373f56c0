package camera

// Rect is a region of the sensor in normalized coordinates (0.0-1.0).
type Rect struct {
	X, Y, W, H float64
}

// FullFrame covers the whole sensor.
var FullFrame = Rect{X: 0, Y: 0, W: 1, H: 1}

// Camera is the high-level interface used by the rest of the application.
// It represents an abstract camera module regardless of how it's controlled
// (V4L2 through OpenCV, mock, ...). Callers never touch pixels.
type Camera interface {
	SetBrightness(percent int) error        // 0..100
	SetContrast(percent int) error          // -100..100
	SetSaturation(percent int) error        // -100..100
	SetExposureCompensation(ev int) error   // -25..25
	SetZoom(r Rect) error                   // digital zoom region
	SetResolution(width, height int) error  // capture size
	SetRotation(degrees int) error          // 0, 90, 180, 270
	SetISO(iso int) error                   // 0 = auto
	SetShutterSpeed(us int) error           // 0 = auto
	SetFramerate(fps float64) error         //
	SetExposureMode(mode string) error      // off, auto, night, ...
	SetWhiteBalance(mode string) error      // off, auto, sunlight, ...
	SetWhiteBalanceGain(gain float64) error // used when white balance is off

	// Annotate replaces the overlay text; "" clears it.
	Annotate(text string) error
	SetAnnotateSize(size int) error

	StartPreview() error
	StopPreview() error
	// SetPreviewVisible hides the preview while a dialog is open.
	SetPreviewVisible(visible bool) error

	CaptureStill(path string, quality int) error
	StartRecording(path string) error
	StopRecording() error

	Close() error
}

// ExposureModes and WhiteBalanceModes are the values the camera accepts.
var (
	ExposureModes     = []string{"off", "auto", "night", "nightpreview", "backlight", "spotlight"}
	WhiteBalanceModes = []string{"off", "auto", "sunlight", "cloudy", "shade", "tungsten", "fluorescent", "flash", "horizon"}
)
