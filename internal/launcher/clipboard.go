package launcher

import (
	"lyxs/internal/errors"

	"github.com/atotto/clipboard"
)

// Clipboard receives the name of a selected binding.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the desktop clipboard through xclip, xsel,
// wl-copy or the platform API.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")
	}
	return clipboard.WriteAll(text)
}

// NopClipboard discards everything. Used when copying is disabled.
type NopClipboard struct{}

// WriteAll implements Clipboard.
func (NopClipboard) WriteAll(string) error { return nil }
