package dialog

import (
	"sync"

	"fyne.io/fyne/v2"
	fdialog "fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// Window renders dialogs as modal pop-ups over a fyne window. Every method
// blocks until the operator closes the pop-up, so the console must call them
// from its own goroutine, never from the fyne event loop.
type Window struct {
	win fyne.Window

	// show displays a built dialog; tests replace it to answer synchronously.
	show func(fdialog.Dialog)

	closed    chan struct{}
	closeOnce sync.Once
}

type result struct {
	value string
	ok    bool
}

// NewWindow returns dialogs drawn on w.
func NewWindow(w fyne.Window) *Window {
	return &Window{
		win:    w,
		show:   func(d fdialog.Dialog) { d.Show() },
		closed: make(chan struct{}),
	}
}

// Close releases a caller blocked in a dialog, which then reports a cancel.
// Call it when the window goes away.
func (d *Window) Close() {
	d.closeOnce.Do(func() { close(d.closed) })
}

func (d *Window) wait(res <-chan result) result {
	select {
	case r := <-res:
		return r
	case <-d.closed:
		return result{}
	}
}

func (d *Window) Message(title, text string) {
	debug.Verbose("dialog message %q", title)
	res := make(chan result, 1)
	dlg := fdialog.NewInformation(title, text, d.win)
	dlg.SetOnClosed(func() { res <- result{ok: true} })
	d.show(dlg)
	d.wait(res)
}

func (d *Window) Choice(title, prompt string, options []string) (string, bool) {
	debug.Verbose("dialog choice %q", title)
	sel := widget.NewSelect(options, nil)
	if len(options) > 0 {
		sel.SetSelectedIndex(0)
	}
	items := []*widget.FormItem{
		widget.NewFormItem("", widget.NewLabel(prompt)),
		widget.NewFormItem("Value", sel),
	}
	res := make(chan result, 1)
	dlg := fdialog.NewForm(title, "OK", "Cancel", items, func(ok bool) {
		res <- result{sel.Selected, ok && sel.Selected != ""}
	}, d.win)
	d.show(dlg)
	r := d.wait(res)
	return r.value, r.ok
}

func (d *Window) Text(title, prompt, def string) (string, bool) {
	debug.Verbose("dialog text %q", title)
	entry := widget.NewEntry()
	entry.SetText(def)
	items := []*widget.FormItem{
		widget.NewFormItem("", widget.NewLabel(prompt)),
		widget.NewFormItem("Value", entry),
	}
	res := make(chan result, 1)
	dlg := fdialog.NewForm(title, "OK", "Cancel", items, func(ok bool) {
		res <- result{entry.Text, ok}
	}, d.win)
	d.show(dlg)
	r := d.wait(res)
	return r.value, r.ok
}

func (d *Window) Directory(start string) (string, bool) {
	debug.Verbose("dialog directory from %q", start)
	res := make(chan result, 1)
	dlg := fdialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		dir, ok := folderResult(uri, err)
		res <- result{dir, ok}
	}, d.win)
	if loc, err := startLocation(start); err == nil {
		dlg.SetLocation(loc)
	}
	d.show(dlg)
	r := d.wait(res)
	return r.value, r.ok
}

// startLocation resolves the folder the picker opens in.
func startLocation(start string) (fyne.ListableURI, error) {
	dir, err := CheckDirectory(start)
	if err != nil {
		return nil, err
	}
	return storage.ListerForURI(storage.NewFileURI(dir))
}

// folderResult turns the picker outcome into a directory path. A dismissed
// picker reports a nil URI and counts as a cancel.
func folderResult(uri fyne.ListableURI, err error) (string, bool) {
	if err != nil {
		debug.Error(err)
		return "", false
	}
	if uri == nil {
		return "", false
	}
	dir, err := CheckDirectory(uri.Path())
	if err != nil {
		debug.Error(err)
		return "", false
	}
	return dir, true
}
