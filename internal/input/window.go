package input

import (
	"context"
	"errors"
	"io"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// windowKeys maps fyne key names to keys for a US layout.
var windowKeys = map[fyne.KeyName]keyPair{
	fyne.KeyEscape:   same(KeyEscape),
	fyne.KeyTab:      same(KeyTab),
	fyne.KeyReturn:   same(KeyEnter),
	fyne.KeyEnter:    same(KeyEnter), // keypad enter
	fyne.KeyF1:       same(KeyF1),
	fyne.KeyUp:       same(KeyUp),
	fyne.KeyDown:     same(KeyDown),
	fyne.KeyLeft:     same(KeyLeft),
	fyne.KeyRight:    same(KeyRight),
	fyne.KeyPageUp:   same(KeyPageUp),
	fyne.KeyPageDown: same(KeyPageDown),
	fyne.KeyHome:     same(KeyHome),
	fyne.KeyEnd:      same(KeyEnd),
	fyne.KeyMinus:    chars('-', '_'),
	fyne.KeyEqual:    chars('=', '+'),
	fyne.KeyPlus:     same(Rune('+')),
	fyne.Key0:        chars('0', ')'),
	fyne.Key1:        chars('1', '!'),
	fyne.Key2:        chars('2', '@'),
	fyne.Key3:        chars('3', '#'),
	fyne.Key4:        chars('4', '$'),
	fyne.Key5:        chars('5', '%'),
	fyne.Key6:        chars('6', '^'),
	fyne.Key7:        chars('7', '&'),
	fyne.Key8:        chars('8', '*'),
	fyne.Key9:        chars('9', '('),

	desktop.KeyControlLeft:  same(KeyCtrlL),
	desktop.KeyControlRight: same(KeyCtrlR),
	desktop.KeyAltLeft:      same(KeyAltL),
	desktop.KeyAltRight:     same(KeyAltR),
}

func init() {
	// Letter key names are the upper-case letter.
	for r := 'A'; r <= 'Z'; r++ {
		windowKeys[fyne.KeyName(string(r))] = chars(r+'a'-'A', r)
	}
}

// windowKey returns the key for a fyne key name with shift held or not.
func windowKey(name fyne.KeyName, shift bool) (Key, bool) {
	pair, ok := windowKeys[name]
	if !ok {
		return KeyNone, false
	}
	if shift {
		return pair.shifted, true
	}
	return pair.plain, true
}

func isShift(name fyne.KeyName) bool {
	return name == desktop.KeyShiftLeft || name == desktop.KeyShiftRight
}

// windowQueue bounds the events held while the console is busy.
const windowQueue = 256

// Window receives keys from a fyne window. Desktop drivers report real
// presses and releases without auto-repeat, so no release is synthesized
// and the repeat policy does not apply.
type Window struct {
	events chan Event
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	shift   bool
	pressed map[fyne.KeyName]Key // key reported at press, reused for the release

	pending []Event // reader side only
}

// NewWindow hooks the key callbacks of a desktop canvas.
func NewWindow(c fyne.Canvas) (*Window, error) {
	dc, ok := c.(desktop.Canvas)
	if !ok {
		return nil, errors.New("window canvas does not report key releases")
	}
	w := newWindow()
	dc.SetOnKeyDown(func(e *fyne.KeyEvent) { w.keyDown(e.Name) })
	dc.SetOnKeyUp(func(e *fyne.KeyEvent) { w.keyUp(e.Name) })
	debug.Verbose("Reading keys from the console window")
	return w, nil
}

func newWindow() *Window {
	return &Window{
		events:  make(chan Event, windowQueue),
		done:    make(chan struct{}),
		pressed: make(map[fyne.KeyName]Key),
	}
}

// keyDown and keyUp run on the fyne event loop and must not block it.
func (w *Window) keyDown(name fyne.KeyName) {
	w.mu.Lock()
	if isShift(name) {
		w.shift = true
		w.mu.Unlock()
		return
	}
	k, ok := windowKey(name, w.shift)
	if ok {
		w.pressed[name] = k
	}
	w.mu.Unlock()
	if ok {
		w.push(Event{Press, k})
	}
}

func (w *Window) keyUp(name fyne.KeyName) {
	w.mu.Lock()
	if isShift(name) {
		w.shift = false
		w.mu.Unlock()
		return
	}
	k, held := w.pressed[name]
	if held {
		delete(w.pressed, name)
	} else {
		k, held = windowKey(name, false)
	}
	w.mu.Unlock()
	if held {
		w.push(Event{Release, k})
	}
}

func (w *Window) push(ev Event) {
	debug.Trace("window %v %v", ev.Kind, ev.Key)
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- ev:
	default:
		debug.Trace("window key queue full, dropped %v %v", ev.Kind, ev.Key)
	}
}

func (w *Window) Next(ctx context.Context) (Event, error) {
	if len(w.pending) > 0 {
		ev := w.pending[0]
		w.pending = w.pending[1:]
		return ev, nil
	}
	select {
	case <-w.done:
		return Event{}, io.EOF
	default:
	}
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-w.done:
		return Event{}, io.EOF
	case ev := <-w.events:
		return ev, nil
	}
}

func (w *Window) Flush() {
	kept := w.pending[:0]
	for _, ev := range w.pending {
		if ev.Kind == Release {
			kept = append(kept, ev)
		}
	}
	w.pending = kept
	for {
		select {
		case ev := <-w.events:
			if ev.Kind == Release {
				w.pending = append(w.pending, ev)
			}
		default:
			return
		}
	}
}

// Close ends the source: Next reports io.EOF from then on. It is called when
// the window closes.
func (w *Window) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}
