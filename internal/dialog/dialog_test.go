package dialog

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cjeanneret/microscopy/internal/fault"
	"github.com/cjeanneret/microscopy/internal/input"
)

// scripted answers dialogs from a fixed list and records messages.
type scripted struct {
	answers  []answer
	messages []string
}

type answer struct {
	value string
	ok    bool
}

func (s *scripted) next() (string, bool) {
	if len(s.answers) == 0 {
		return "", false
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a.value, a.ok
}

func (s *scripted) Message(title, text string) { s.messages = append(s.messages, title) }

func (s *scripted) Choice(string, string, []string) (string, bool) { return s.next() }

func (s *scripted) Text(string, string, string) (string, bool) { return s.next() }

func (s *scripted) Directory(string) (string, bool) { return s.next() }

func newTerminal(t *testing.T, keys string) (*Terminal, *bytes.Buffer) {
	t.Helper()
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	go w.Write([]byte(keys))
	var out bytes.Buffer
	return NewTerminal(input.NewStream(r), &out), &out
}

func TestParsers(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) error
		good []string
		bad  []string
	}{
		{"iso", func(s string) error { _, err := ParseISO(s); return err },
			[]string{"0", "100", "800"}, []string{"", "-1", "1600", "abc"}},
		{"framerate", func(s string) error { _, err := ParseFramerate(s); return err },
			[]string{"0.1", "30", " 120 "}, []string{"0", "-2", "121", "fast"}},
		{"exposure", func(s string) error { _, err := ParseExposureMs(s); return err },
			[]string{"0", "1000", "10000"}, []string{"-1", "10001", "1.5"}},
		{"gain", func(s string) error { _, err := ParseWBGain(s); return err },
			[]string{"0.9", "1.9", "8"}, []string{"0", "8.5", "x"}},
	}
	for _, tc := range cases {
		for _, s := range tc.good {
			if err := tc.fn(s); err != nil {
				t.Errorf("%s(%q): %v", tc.name, s, err)
			}
		}
		for _, s := range tc.bad {
			if err := tc.fn(s); !errors.Is(err, fault.ErrInvalidUserInput) {
				t.Errorf("%s(%q) = %v, want invalid user input", tc.name, s, err)
			}
		}
	}
}

func TestAsk_RepromptsUntilValid(t *testing.T) {
	d := &scripted{answers: []answer{{"abc", true}, {"500", true}, {"25", true}}}
	v, ok := Ask(d, "Framerate", "fps", "", ParseFramerate)
	if !ok || v != 25 {
		t.Errorf("Ask = %v, %v; want 25, true", v, ok)
	}
	if len(d.messages) != 2 {
		t.Errorf("messages = %v, want two rejections", d.messages)
	}
}

func TestAsk_Cancel(t *testing.T) {
	d := &scripted{answers: []answer{{"abc", true}, {"", false}}}
	if _, ok := Ask(d, "Framerate", "fps", "", ParseFramerate); ok {
		t.Error("cancel should report false")
	}
}

func TestSelect(t *testing.T) {
	d := &scripted{answers: []answer{{"200", true}}}
	if v, ok := Select(d, "ISO", "ISO", ISOPresets, ParseISO); !ok || v != 200 {
		t.Errorf("preset: %v, %v", v, ok)
	}

	d = &scripted{answers: []answer{{Manual, true}, {"7.5", true}}}
	if v, ok := Select(d, "Framerate", "fps", FrameratePresets, ParseFramerate); !ok || v != 7.5 {
		t.Errorf("manual: %v, %v", v, ok)
	}

	d = &scripted{answers: []answer{{"", false}}}
	if _, ok := Select(d, "ISO", "ISO", ISOPresets, ParseISO); ok {
		t.Error("cancelled choice should report false")
	}
}

func TestPresetsParse(t *testing.T) {
	for _, p := range ISOPresets {
		if _, err := ParseISO(p); err != nil {
			t.Errorf("ISO preset %q: %v", p, err)
		}
	}
	for _, p := range FrameratePresets {
		if p == Manual {
			continue
		}
		if _, err := ParseFramerate(p); err != nil {
			t.Errorf("framerate preset %q: %v", p, err)
		}
	}
	for _, p := range ExposurePresets {
		if p == Manual {
			continue
		}
		if _, err := ParseExposureMs(p); err != nil {
			t.Errorf("exposure preset %q: %v", p, err)
		}
	}
}

func TestTerminal_TextEditing(t *testing.T) {
	d, out := newTerminal(t, "ab\x7fc\r")
	v, ok := d.Text("Prefix", "Prefix", "x_")
	if !ok || v != "x_ac" {
		t.Errorf("Text = %q, %v; want \"x_ac\", true", v, ok)
	}
	if !strings.Contains(out.String(), "== Prefix ==\r\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTerminal_TextCancel(t *testing.T) {
	for name, keys := range map[string]string{"escape": "abc\x1b", "ctrl-c": "abc\x03"} {
		d, _ := newTerminal(t, keys)
		if _, ok := d.Text("Prefix", "Prefix", ""); ok {
			t.Errorf("%s should cancel", name)
		}
	}
}

func TestTerminal_CursorKeysIgnored(t *testing.T) {
	d, _ := newTerminal(t, "1\x1b[D0\r")
	if v, ok := d.Text("T", "p", ""); !ok || v != "10" {
		t.Errorf("Text = %q, %v", v, ok)
	}
}

func TestTerminal_Choice(t *testing.T) {
	d, out := newTerminal(t, "12\rcloudy\r")
	v, ok := d.Choice("White balance", "Mode", WhiteBalancePresets)
	if !ok || v != "cloudy" {
		t.Errorf("Choice = %q, %v", v, ok)
	}
	if !strings.Contains(out.String(), "\"12\" is not one of the choices") {
		t.Errorf("out-of-range number should be rejected: %q", out.String())
	}

	d, _ = newTerminal(t, "3\r")
	if v, _ := d.Choice("ISO", "ISO", ISOPresets); v != "200" {
		t.Errorf("Choice by number = %q, want 200", v)
	}
}

func TestTerminal_Message(t *testing.T) {
	d, out := newTerminal(t, "\r")
	d.Message("Help", "line one\nline two")
	if !strings.Contains(out.String(), "line one\r\nline two") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTerminal_Directory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "still.jpg")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing")

	// Start is prefilled; clear it with Ctrl+U, try a file, a missing path,
	// then the directory.
	d, out := newTerminal(t, "\x15"+file+"\r\x15"+missing+"\r\x15"+dir+"\r")
	got, ok := d.Directory("/nonexistent")
	if !ok || got != dir {
		t.Errorf("Directory = %q, %v; want %q", got, ok, dir)
	}
	if !strings.Contains(out.String(), "is not a directory") || !strings.Contains(out.String(), "no such directory") {
		t.Errorf("rejections missing: %q", out.String())
	}
}

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()
	if got, err := CheckDirectory(dir + "/"); err != nil || got != dir {
		t.Errorf("CheckDirectory = %q, %v", got, err)
	}
}
