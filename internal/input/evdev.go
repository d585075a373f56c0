package input

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// Linux input event constants (linux/input-event-codes.h).
const (
	evKey = 0x01

	keyReleased = 0
	keyPressed  = 1
	keyRepeated = 2

	codeLeftShift  = 42
	codeRightShift = 54
)

// rawEvent is struct input_event on 64-bit Linux: a timeval followed by
// type, code and value.
type rawEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// keyPair holds the unshifted and shifted key for a scan code.
type keyPair struct {
	plain, shifted Key
}

func same(k Key) keyPair { return keyPair{k, k} }

func chars(plain, shifted rune) keyPair { return keyPair{Rune(plain), Rune(shifted)} }

// evdevKeys maps scan codes to keys for a US layout.
var evdevKeys = map[uint16]keyPair{
	1:  same(KeyEscape),
	2:  chars('1', '!'),
	3:  chars('2', '@'),
	4:  chars('3', '#'),
	5:  chars('4', '$'),
	6:  chars('5', '%'),
	7:  chars('6', '^'),
	8:  chars('7', '&'),
	9:  chars('8', '*'),
	10: chars('9', '('),
	11: chars('0', ')'),
	12: chars('-', '_'),
	13: chars('=', '+'),
	15: same(KeyTab),
	16: chars('q', 'Q'), 17: chars('w', 'W'), 18: chars('e', 'E'), 19: chars('r', 'R'),
	20: chars('t', 'T'), 21: chars('y', 'Y'), 22: chars('u', 'U'), 23: chars('i', 'I'),
	24: chars('o', 'O'), 25: chars('p', 'P'),
	28: same(KeyEnter),
	29: same(KeyCtrlL),
	30: chars('a', 'A'), 31: chars('s', 'S'), 32: chars('d', 'D'), 33: chars('f', 'F'),
	34: chars('g', 'G'), 35: chars('h', 'H'), 36: chars('j', 'J'), 37: chars('k', 'K'),
	38: chars('l', 'L'),
	44: chars('z', 'Z'), 45: chars('x', 'X'), 46: chars('c', 'C'), 47: chars('v', 'V'),
	48: chars('b', 'B'), 49: chars('n', 'N'), 50: chars('m', 'M'),
	56:  same(KeyAltL),
	59:  same(KeyF1),
	74:  same(Rune('-')), // keypad minus
	78:  same(Rune('+')), // keypad plus
	96:  same(KeyEnter),  // keypad enter
	97:  same(KeyCtrlR),
	100: same(KeyAltR),
	102: same(KeyHome),
	103: same(KeyUp),
	104: same(KeyPageUp),
	105: same(KeyLeft),
	106: same(KeyRight),
	107: same(KeyEnd),
	108: same(KeyDown),
	109: same(KeyPageDown),
}

type rawResult struct {
	ev  rawEvent
	err error
}

// Evdev reads a Linux input device, which reports real presses, releases
// and auto-repeats.
type Evdev struct {
	r      io.ReadCloser
	events chan rawResult
	policy RepeatPolicy

	shift   bool
	pressed map[uint16]Key // key reported at press, reused for the release
	pending []Event
}

// OpenEvdev opens an input device such as /dev/input/event0.
func OpenEvdev(path string, policy RepeatPolicy) (*Evdev, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input device %s: %w", path, err)
	}
	debug.Verbose("Reading keys from %s (repeat policy %v)", path, policy)
	return NewEvdev(f, policy), nil
}

// NewEvdev decodes input_event records from r.
func NewEvdev(r io.ReadCloser, policy RepeatPolicy) *Evdev {
	e := &Evdev{
		r:       r,
		events:  make(chan rawResult, 64),
		policy:  policy,
		pressed: make(map[uint16]Key),
	}
	go e.pump(e.events)
	return e
}

func (e *Evdev) pump(out chan<- rawResult) {
	for {
		var ev rawEvent
		if err := binary.Read(e.r, binary.LittleEndian, &ev); err != nil {
			out <- rawResult{err: err}
			close(out)
			return
		}
		if ev.Type == evKey {
			debug.Trace("evdev code=%d value=%d", ev.Code, ev.Value)
			out <- rawResult{ev: ev}
		}
	}
}

func (e *Evdev) Next(ctx context.Context) (Event, error) {
	for {
		if len(e.pending) > 0 {
			ev := e.pending[0]
			e.pending = e.pending[1:]
			return ev, nil
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case res, ok := <-e.events:
			if !ok {
				return Event{}, io.EOF
			}
			if res.err != nil {
				return Event{}, res.err
			}
			if ev, ok := e.translate(res.ev); ok {
				return ev, nil
			}
		}
	}
}

func (e *Evdev) translate(raw rawEvent) (Event, bool) {
	if raw.Code == codeLeftShift || raw.Code == codeRightShift {
		e.shift = raw.Value != keyReleased
		return Event{}, false
	}
	pair, known := evdevKeys[raw.Code]
	switch raw.Value {
	case keyPressed:
		if !known {
			return Event{}, false
		}
		k := pair.plain
		if e.shift {
			k = pair.shifted
		}
		e.pressed[raw.Code] = k
		return Event{Press, k}, true
	case keyRepeated:
		k, held := e.pressed[raw.Code]
		if !held || e.policy == RepeatCoalesce {
			return Event{}, false
		}
		return Event{Press, k}, true
	case keyReleased:
		k, held := e.pressed[raw.Code]
		if !held {
			if !known {
				return Event{}, false
			}
			k = pair.plain
		}
		delete(e.pressed, raw.Code)
		return Event{Release, k}, true
	}
	return Event{}, false
}

func (e *Evdev) Flush() {
	kept := e.pending[:0]
	for _, ev := range e.pending {
		if ev.Kind == Release {
			kept = append(kept, ev)
		}
	}
	e.pending = kept
	for {
		select {
		case res, ok := <-e.events:
			if !ok {
				return
			}
			if res.err != nil {
				// Put the error back so that Next reports it.
				e.requeue(res)
				return
			}
			if res.ev.Value == keyReleased {
				if ev, ok := e.translate(res.ev); ok {
					e.pending = append(e.pending, ev)
				}
			} else if res.ev.Code == codeLeftShift || res.ev.Code == codeRightShift {
				e.translate(res.ev)
			}
		default:
			return
		}
	}
}

func (e *Evdev) requeue(res rawResult) {
	ch := make(chan rawResult, 1)
	ch <- res
	close(ch)
	e.events = ch
}

func (e *Evdev) Close() error {
	return e.r.Close()
}
