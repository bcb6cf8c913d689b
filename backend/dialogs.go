package backend

import (
	"errors"

	"github.com/sqweek/dialog"
)

// NativeDialogs shows OS message boxes and file pickers.
type NativeDialogs struct{}

func (NativeDialogs) Info(title, message string) {
	dialog.Message("%s", message).Title(title).Info()
}

func (NativeDialogs) Error(title, message string) {
	dialog.Message("%s", message).Title(title).Error()
}

func (NativeDialogs) PickMarkdown() (string, error) {
	path, err := dialog.File().
		Title("Open Markdown file").
		Filter("Markdown files", "md", "markdown", "mdown", "mkd").
		Filter("All files", "*").
		Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", nil
	}
	return path, err
}
