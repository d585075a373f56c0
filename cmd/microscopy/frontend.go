package main

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/widget"

	"github.com/cjeanneret/microscopy/internal/config"
	"github.com/cjeanneret/microscopy/internal/debug"
	"github.com/cjeanneret/microscopy/internal/dialog"
	"github.com/cjeanneret/microscopy/internal/input"
)

// frontEnd is where keys come from and where dialogs are drawn.
type frontEnd struct {
	keys    input.Source
	dialogs dialog.Dialogs
	closers []closer

	// Window mode only.
	app   fyne.App
	win   fyne.Window
	modal *dialog.Window
}

// newFrontEnd opens the keyboard and the dialog surface chosen by
// display.mode and input.source.
func newFrontEnd(cfg *config.Config) (*frontEnd, error) {
	policy, err := input.ParseRepeatPolicy(cfg.Input.Repeat)
	if err != nil {
		return nil, err
	}
	switch cfg.Display.Mode {
	case "terminal", "":
		return newTerminalFrontEnd(cfg, policy)
	case "window":
		return newWindowFrontEnd(cfg, policy)
	default:
		return nil, fmt.Errorf("unsupported display mode: %s", cfg.Display.Mode)
	}
}

// newTerminalFrontEnd puts stdin in raw mode, which the terminal dialogs
// always need, and picks the key source.
func newTerminalFrontEnd(cfg *config.Config, policy input.RepeatPolicy) (*frontEnd, error) {
	term, err := input.OpenTerminal(os.Stdin, policy, cfg.ReleaseTimeout())
	if err != nil {
		return nil, err
	}
	fe := &frontEnd{
		keys:    term,
		dialogs: dialog.NewTerminal(term.Stream(), os.Stdout),
		closers: []closer{term},
	}
	switch cfg.Input.Source {
	case "terminal", "":
	case "evdev":
		ev, err := input.OpenEvdev(cfg.Input.EvdevDevice, policy)
		if err != nil {
			term.Close()
			return nil, err
		}
		fe.keys = ev
		fe.closers = append([]closer{ev}, fe.closers...)
	default:
		term.Close()
		return nil, fmt.Errorf("unsupported input source for a terminal: %s", cfg.Input.Source)
	}
	return fe, nil
}

// newWindowFrontEnd opens a desktop window for the dialogs. Keys come from
// the window itself or from an evdev device.
func newWindowFrontEnd(cfg *config.Config, policy input.RepeatPolicy) (*frontEnd, error) {
	a := app.New()
	w := a.NewWindow(cfg.Display.Title)
	w.SetContent(widget.NewLabel("F1: keyboard shortcuts, Esc: exit"))
	w.Resize(fyne.NewSize(480, 160))

	modal := dialog.NewWindow(w)
	fe := &frontEnd{dialogs: modal, app: a, win: w, modal: modal}
	switch cfg.Input.Source {
	case "window", "":
		keys, err := input.NewWindow(w.Canvas())
		if err != nil {
			return nil, err
		}
		fe.keys = keys
	case "evdev":
		ev, err := input.OpenEvdev(cfg.Input.EvdevDevice, policy)
		if err != nil {
			return nil, err
		}
		fe.keys = ev
	default:
		return nil, fmt.Errorf("unsupported input source for a window: %s", cfg.Input.Source)
	}
	fe.closers = []closer{fe.keys}
	return fe, nil
}

// run drives the console. In window mode the fyne loop owns the main
// goroutine and the console runs beside it until either one ends.
func (fe *frontEnd) run(ctx context.Context, drive func(context.Context) error) error {
	if fe.app == nil {
		return drive(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	release := func() {
		cancel()
		fe.modal.Close()
	}
	fe.win.SetOnClosed(release)

	errc := make(chan error, 1)
	go func() {
		errc <- drive(ctx)
		fe.app.Quit()
	}()
	fe.win.ShowAndRun()
	debug.Verbose("window closed")
	release()
	return <-errc
}

func (fe *frontEnd) close() {
	closeAll(fe.closers...)
}
