package input

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

// feed returns a stream that yields data and then stays open.
func feed(t *testing.T, data string) *Stream {
	t.Helper()
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	go w.Write([]byte(data))
	return NewStream(r)
}

func nextEvent(t *testing.T, src Source) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return ev
}

func expectEvents(t *testing.T, src Source, want ...Event) {
	t.Helper()
	for i, w := range want {
		if got := nextEvent(t, src); got != w {
			t.Fatalf("event %d = %v %v, want %v %v", i, got.Kind, got.Key, w.Kind, w.Key)
		}
	}
}

func TestTerminal_Decode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Key
	}{
		{"letter", "b", Rune('b')},
		{"upper", "B", Rune('B')},
		{"plus", "+", Rune('+')},
		{"digit", "0", Rune('0')},
		{"enter", "\r", KeyEnter},
		{"tab", "\t", KeyTab},
		{"ctrl space", "\x00", KeyCtrlL},
		{"ctrl c", "\x03", KeyEscape},
		{"alt", "\x1bx", KeyAltL},
		{"up", "\x1b[A", KeyUp},
		{"down", "\x1b[B", KeyDown},
		{"right", "\x1b[C", KeyRight},
		{"left", "\x1b[D", KeyLeft},
		{"app up", "\x1bOA", KeyUp},
		{"home", "\x1b[H", KeyHome},
		{"end", "\x1b[F", KeyEnd},
		{"home tilde", "\x1b[1~", KeyHome},
		{"end tilde", "\x1b[4~", KeyEnd},
		{"page up", "\x1b[5~", KeyPageUp},
		{"page down", "\x1b[6~", KeyPageDown},
		{"f1 ss3", "\x1bOP", KeyF1},
		{"f1 vt", "\x1b[11~", KeyF1},
		{"f1 linux", "\x1b[[A", KeyF1},
		{"modified up", "\x1b[1;5A", KeyUp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := NewTerminal(feed(t, tc.in), RepeatPass, time.Hour)
			ev := nextEvent(t, src)
			if ev.Kind != Press || ev.Key != tc.want {
				t.Errorf("got %v %v, want press %v", ev.Kind, ev.Key, tc.want)
			}
		})
	}
}

func TestTerminal_LoneEscape(t *testing.T) {
	src := NewTerminal(feed(t, "\x1b"), RepeatPass, time.Hour)
	expectEvents(t, src, Event{Press, KeyEscape}, Event{Release, KeyEscape})
}

func TestTerminal_UnknownSequenceSkipped(t *testing.T) {
	src := NewTerminal(feed(t, "\x1b[99~a"), RepeatPass, time.Hour)
	expectEvents(t, src, Event{Press, Rune('a')})
}

func TestTerminal_OrdinaryKeyReleasesImmediately(t *testing.T) {
	src := NewTerminal(feed(t, "\rB"), RepeatPass, time.Hour)
	expectEvents(t, src,
		Event{Press, KeyEnter}, Event{Release, KeyEnter},
		Event{Press, Rune('B')}, Event{Release, Rune('B')},
	)
}

func TestTerminal_DirectionalReleaseSynthesized(t *testing.T) {
	src := NewTerminal(feed(t, "\x1b[D"), RepeatPass, 30*time.Millisecond)
	start := time.Now()
	expectEvents(t, src, Event{Press, KeyLeft}, Event{Release, KeyLeft})
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("release after %v, want at least the release timeout", elapsed)
	}
}

func TestTerminal_RepeatPolicy(t *testing.T) {
	held := "\x1b[A\x1b[A\x1b[A"

	pass := NewTerminal(feed(t, held), RepeatPass, 30*time.Millisecond)
	expectEvents(t, pass,
		Event{Press, KeyUp}, Event{Press, KeyUp}, Event{Press, KeyUp},
		Event{Release, KeyUp},
	)

	coalesce := NewTerminal(feed(t, held+"a"), RepeatCoalesce, 30*time.Millisecond)
	expectEvents(t, coalesce,
		Event{Press, KeyUp},
		Event{Press, Rune('a')}, Event{Release, Rune('a')},
		Event{Release, KeyUp},
	)
}

func TestTerminal_FlushReleasesHeldKeys(t *testing.T) {
	src := NewTerminal(feed(t, "\x1b[5~"), RepeatPass, time.Hour)
	expectEvents(t, src, Event{Press, KeyPageUp})

	src.pending = append(src.pending, Event{Press, Rune('x')})
	src.Flush()
	expectEvents(t, src, Event{Release, KeyPageUp})
	if len(src.pending) != 0 {
		t.Errorf("pending after flush = %v", src.pending)
	}
}

func TestTerminal_NextHonoursContext(t *testing.T) {
	src := NewTerminal(feed(t, ""), RepeatPass, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next = %v, want context.Canceled", err)
	}
}

func TestTerminal_EOF(t *testing.T) {
	r, w := io.Pipe()
	w.Close()
	src := NewTerminal(NewStream(r), RepeatPass, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next = %v, want io.EOF", err)
	}
}

func TestParseRepeatPolicy(t *testing.T) {
	cases := map[string]RepeatPolicy{"": RepeatPass, "pass": RepeatPass, "coalesce": RepeatCoalesce}
	for in, want := range cases {
		got, err := ParseRepeatPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseRepeatPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRepeatPolicy("sticky"); err == nil {
		t.Error("unknown policy should fail")
	}
}

func TestKey_String(t *testing.T) {
	if KeyPageUp.String() != "PageUp" || Rune('b').String() != "'b'" {
		t.Errorf("String: %s %s", KeyPageUp, Rune('b'))
	}
	if !KeyHome.Directional() || KeyEnter.Directional() || Rune('l').Directional() {
		t.Error("Directional mismatch")
	}
}
