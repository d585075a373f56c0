package dialog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/input"
)

// seqTimeout separates Escape from the start of a cursor key sequence.
const seqTimeout = 50 * time.Millisecond

// Terminal renders dialogs on a raw-mode terminal. It reads from the same
// byte stream as the terminal key source, which is idle while a dialog is
// open.
type Terminal struct {
	in  *input.Stream
	out io.Writer
}

// NewTerminal returns dialogs reading in and drawing on out.
func NewTerminal(in *input.Stream, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

// printf writes to the raw terminal, where every line needs CR LF.
func (t *Terminal) printf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	fmt.Fprint(t.out, strings.ReplaceAll(s, "\n", "\r\n"))
}

// header starts a dialog. Bytes typed before it opened are dropped.
func (t *Terminal) header(title string) {
	t.in.Drain()
	t.printf("\n== %s ==\n", title)
}

func (t *Terminal) Message(title, text string) {
	debug.Verbose("dialog message %q", title)
	t.header(title)
	t.printf("%s\n[Enter] ", text)
	for {
		b, err := t.in.ReadByte(context.Background())
		if err != nil || b == '\r' || b == '\n' || b == 0x03 {
			break
		}
		if b == 0x1b {
			t.skipSequence()
			break
		}
	}
	t.printf("\n")
}

func (t *Terminal) Choice(title, prompt string, options []string) (string, bool) {
	debug.Verbose("dialog choice %q", title)
	t.header(title)
	for i, opt := range options {
		t.printf("  %d) %s\n", i+1, opt)
	}
	for {
		line, ok := t.readLine(prompt, "")
		if !ok {
			return "", false
		}
		if v, ok := pick(options, line); ok {
			return v, true
		}
		t.printf("%q is not one of the choices\n", line)
	}
}

// pick accepts either the number shown next to an option or its value.
func pick(options []string, line string) (string, bool) {
	line = strings.TrimSpace(line)
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	for _, opt := range options {
		if strings.EqualFold(opt, line) {
			return opt, true
		}
	}
	return "", false
}

func (t *Terminal) Text(title, prompt, def string) (string, bool) {
	debug.Verbose("dialog text %q", title)
	t.header(title)
	return t.readLine(prompt, def)
}

func (t *Terminal) Directory(start string) (string, bool) {
	debug.Verbose("dialog directory from %q", start)
	t.header("Select folder")
	def := start
	for {
		line, ok := t.readLine("Directory", def)
		if !ok {
			return "", false
		}
		dir, err := CheckDirectory(line)
		if err == nil {
			return dir, true
		}
		t.printf("%v\n", err)
		def = line
	}
}

// CheckDirectory returns the absolute form of path if it is an existing
// directory.
func CheckDirectory(path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%s: no such directory", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

// readLine edits one line prefilled with def. Enter submits; Escape or
// Ctrl+C cancels; Backspace deletes the last character.
func (t *Terminal) readLine(prompt, def string) (string, bool) {
	buf := []rune(def)
	t.printf("%s: %s", prompt, def)
	for {
		b, err := t.in.ReadByte(context.Background())
		if err != nil {
			t.printf("\n")
			return "", false
		}
		switch {
		case b == '\r' || b == '\n':
			t.printf("\n")
			return string(buf), true
		case b == 0x03:
			t.printf("\n")
			return "", false
		case b == 0x1b:
			if t.skipSequence() {
				continue
			}
			t.printf("\n")
			return "", false
		case b == 0x7f || b == 0x08:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				t.printf("\b \b")
			}
		case b == 0x15: // Ctrl+U
			t.printf("%s", strings.Repeat("\b \b", len(buf)))
			buf = buf[:0]
		case b >= 0x20 && b < 0x7f:
			buf = append(buf, rune(b))
			t.printf("%c", b)
		}
	}
}

// skipSequence consumes the rest of an escape sequence. It reports false
// for a lone Escape.
func (t *Terminal) skipSequence() bool {
	b, ok := t.in.ReadByteWithin(seqTimeout)
	if !ok {
		return false
	}
	if b != '[' && b != 'O' {
		return true
	}
	for {
		b, ok := t.in.ReadByteWithin(seqTimeout)
		if !ok || (b >= 0x40 && b <= 0x7e) {
			return true
		}
	}
}
