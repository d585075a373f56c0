package capture

import (
	"path/filepath"
	"time"

	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/fault"
	"github.com/cjeanneret/microscopy/internal/hw/camera"
)

// TimestampLayout is day-month-hourminutesecond, e.g. 18-10-142501.
const TimestampLayout = "02-01-150405"

// StillQuality is the JPEG quality used for stills.
const StillQuality = 100

// FileName builds <dir>/<prefix><DD-MM-HHMMSS>.<ext>. Two captures within the
// same second get the same name; the later one overwrites.
func FileName(dir, prefix string, t time.Time, ext string) string {
	return filepath.Join(dir, prefix+t.Format(TimestampLayout)+"."+ext)
}

// Orchestrator takes stills and starts/stops recordings on the Enter key.
// It owns the recording-active flag: Recording() is true exactly while a
// video file is open.
type Orchestrator struct {
	camera camera.Camera

	PhotoSettle     time.Duration // wait before a still
	VideoStartDelay time.Duration // wait before recording starts

	// Clock and Sleep are replaceable for tests.
	Clock func() time.Time
	Sleep func(time.Duration)

	recording bool
	file      string
}

func NewOrchestrator(c camera.Camera, photoSettle, videoStartDelay time.Duration) *Orchestrator {
	return &Orchestrator{
		camera:          c,
		PhotoSettle:     photoSettle,
		VideoStartDelay: videoStartDelay,
		Clock:           time.Now,
		Sleep:           time.Sleep,
	}
}

// Recording reports whether a video file is open.
func (o *Orchestrator) Recording() bool {
	return o.recording
}

// File returns the path of the open recording, or "".
func (o *Orchestrator) File() string {
	return o.file
}

// Trigger runs one capture action: a still in photo mode, or start/stop of a
// recording in video mode. It returns the file written or opened.
func (o *Orchestrator) Trigger(dir, prefix string, video bool) (string, error) {
	o.annotate("")
	if !video {
		return o.still(dir, prefix)
	}
	if o.recording {
		f := o.file
		return f, o.Stop()
	}
	return o.start(dir, prefix)
}

func (o *Orchestrator) still(dir, prefix string) (string, error) {
	name := FileName(dir, prefix, o.Clock(), "jpg")
	o.Sleep(o.PhotoSettle)
	if err := o.camera.CaptureStill(name, StillQuality); err != nil {
		o.annotate("Capture failed")
		return "", fault.Transient("capture still "+name, err)
	}
	debug.Info("Photo saved: %s", name)
	o.annotate("Photo saved")
	return name, nil
}

func (o *Orchestrator) start(dir, prefix string) (string, error) {
	name := FileName(dir, prefix, o.Clock(), "h264")
	o.annotate("Recording will start in 2 seconds...")
	o.Sleep(o.VideoStartDelay)
	o.annotate("")
	if err := o.camera.StartRecording(name); err != nil {
		o.annotate("Capture failed")
		return "", fault.Transient("start recording "+name, err)
	}
	o.recording = true
	o.file = name
	debug.Info("Recording started: %s", name)
	return name, nil
}

// Stop closes an open recording. It is a no-op when nothing is recording.
// The flag is cleared even if the camera reports an error: the writer is gone
// either way.
func (o *Orchestrator) Stop() error {
	if !o.recording {
		return nil
	}
	err := o.camera.StopRecording()
	debug.Info("Recording stopped: %s", o.file)
	o.recording = false
	o.file = ""
	if err != nil {
		o.annotate("Capture failed")
		return fault.Transient("stop recording", err)
	}
	o.annotate("Recording stopped")
	return nil
}

func (o *Orchestrator) annotate(text string) {
	if err := o.camera.Annotate(text); err != nil {
		debug.Error(fault.Transient("annotate", err))
	}
}
