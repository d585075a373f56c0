package input

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"golang.org/x/term"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// escTimeout separates a lone Escape from the start of an escape sequence.
const escTimeout = 50 * time.Millisecond

// Terminal reads keys from a raw-mode terminal.
//
// A terminal reports presses only. Ordinary keys get their release
// immediately after the press. Directional keys are considered held until no
// byte for them arrived for the release timeout, which has to be longer than
// the keyboard's auto-repeat delay.
//
// There is no Ctrl or Alt key on its own: Ctrl+Space (NUL) stands for Ctrl,
// and Alt+any key (ESC prefix) stands for Alt. Ctrl+C is read as Escape.
type Terminal struct {
	stream       *Stream
	policy       RepeatPolicy
	releaseAfter time.Duration

	pending []Event
	held    map[Key]time.Time // synthesized release deadline
	now     func() time.Time

	fd    int
	state *term.State
}

// OpenTerminal puts f into raw mode and starts reading it.
func OpenTerminal(f *os.File, policy RepeatPolicy, releaseAfter time.Duration) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", f.Name())
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode on %s: %w", f.Name(), err)
	}
	debug.SetRawTerminal(true)
	debug.Verbose("Terminal %s in raw mode (repeat policy %v, release after %v)", f.Name(), policy, releaseAfter)

	t := NewTerminal(NewStream(f), policy, releaseAfter)
	t.fd = fd
	t.state = state
	return t, nil
}

// NewTerminal decodes keys from an already raw byte stream.
func NewTerminal(s *Stream, policy RepeatPolicy, releaseAfter time.Duration) *Terminal {
	return &Terminal{
		stream:       s,
		policy:       policy,
		releaseAfter: releaseAfter,
		held:         make(map[Key]time.Time),
		now:          time.Now,
	}
}

// Stream returns the underlying byte stream, shared with terminal dialogs.
func (t *Terminal) Stream() *Stream {
	return t.stream
}

func (t *Terminal) Next(ctx context.Context) (Event, error) {
	for {
		if len(t.pending) > 0 {
			ev := t.pending[0]
			t.pending = t.pending[1:]
			return ev, nil
		}

		var expire <-chan time.Time
		var timer *time.Timer
		if deadline, ok := t.nextDeadline(); ok {
			timer = time.NewTimer(deadline.Sub(t.now()))
			expire = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return Event{}, ctx.Err()
		case <-expire:
			t.expire()
		case b, ok := <-t.stream.c:
			stopTimer(timer)
			if !ok {
				return Event{}, t.stream.err
			}
			if k := t.decode(b); k != KeyNone {
				t.press(k)
			}
		}
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func (t *Terminal) press(k Key) {
	if !k.Directional() {
		t.pending = append(t.pending, Event{Press, k}, Event{Release, k})
		return
	}
	_, repeat := t.held[k]
	t.held[k] = t.now().Add(t.releaseAfter)
	if repeat && t.policy == RepeatCoalesce {
		debug.Trace("repeat of %v coalesced", k)
		return
	}
	t.pending = append(t.pending, Event{Press, k})
}

func (t *Terminal) nextDeadline() (time.Time, bool) {
	var first time.Time
	for _, d := range t.held {
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	return first, !first.IsZero()
}

func (t *Terminal) expire() {
	now := t.now()
	var keys []Key
	for k, d := range t.held {
		if !now.Before(d) {
			keys = append(keys, k)
		}
	}
	t.release(keys)
}

func (t *Terminal) release(keys []Key) {
	slices.Sort(keys)
	for _, k := range keys {
		delete(t.held, k)
		t.pending = append(t.pending, Event{Release, k})
	}
}

func (t *Terminal) Flush() {
	t.stream.Drain()
	kept := t.pending[:0]
	for _, ev := range t.pending {
		if ev.Kind == Release {
			kept = append(kept, ev)
		}
	}
	t.pending = kept
	held := make([]Key, 0, len(t.held))
	for k := range t.held {
		held = append(held, k)
	}
	t.release(held)
}

// Close leaves raw mode.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	debug.SetRawTerminal(false)
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}

// decode turns the byte b, and whatever escape sequence it starts, into a key.
func (t *Terminal) decode(b byte) Key {
	switch {
	case b == 0x00:
		return KeyCtrlL
	case b == 0x03:
		return KeyEscape
	case b == '\t':
		return KeyTab
	case b == '\r' || b == '\n':
		return KeyEnter
	case b == 0x1b:
		return t.decodeEscape()
	case b >= 0x20 && b < 0x7f:
		return Rune(rune(b))
	}
	debug.Trace("ignored byte 0x%02x", b)
	return KeyNone
}

func (t *Terminal) decodeEscape() Key {
	next, ok := t.stream.ReadByteWithin(escTimeout)
	if !ok {
		return KeyEscape
	}
	switch next {
	case '[':
		return t.decodeCSI()
	case 'O':
		final, ok := t.stream.ReadByteWithin(escTimeout)
		if !ok {
			return KeyAltL
		}
		return lookup(ss3Keys, final)
	case 0x1b:
		return KeyEscape
	}
	return KeyAltL
}

var ss3Keys = map[byte]Key{
	'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft,
	'H': KeyHome, 'F': KeyEnd, 'P': KeyF1,
}

var tildeKeys = map[string]Key{
	"1": KeyHome, "7": KeyHome,
	"4": KeyEnd, "8": KeyEnd,
	"5": KeyPageUp, "6": KeyPageDown,
	"11": KeyF1,
}

func lookup[K comparable](m map[K]Key, k K) Key {
	if key, ok := m[k]; ok {
		return key
	}
	return KeyNone
}

// decodeCSI reads the rest of an ESC [ sequence.
func (t *Terminal) decodeCSI() Key {
	var params []byte
	for {
		b, ok := t.stream.ReadByteWithin(escTimeout)
		if !ok {
			return KeyNone
		}
		switch {
		case b == '[' && len(params) == 0:
			// Linux console function keys: ESC [ [ A is F1.
			if f, ok := t.stream.ReadByteWithin(escTimeout); ok && f == 'A' {
				return KeyF1
			}
			return KeyNone
		case b >= 0x40 && b <= 0x7e:
			if b == '~' {
				return lookup(tildeKeys, string(params))
			}
			if k, ok := ss3Keys[b]; ok && b != 'P' {
				return k
			}
			return KeyNone
		default:
			params = append(params, b)
		}
	}
}
