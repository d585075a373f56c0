// Package dialog provides the modal prompts used to pick camera presets,
// the output folder and the filename prefix.
package dialog

// Dialogs shows modal prompts. A false second return means the operator
// cancelled; the caller must leave the setting unchanged.
type Dialogs interface {
	Message(title, text string)
	Choice(title, prompt string, options []string) (string, bool)
	Text(title, prompt, def string) (string, bool)
	Directory(start string) (string, bool)
}
