package output

import (
	"github.com/atotto/clipboard"
)

// ClipboardFunc copies text to the system clipboard.
type ClipboardFunc func(text string) error

// SystemClipboard writes through the platform clipboard utility.
func SystemClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// ClipboardAvailable reports whether a clipboard utility was found.
func ClipboardAvailable() bool {
	return !clipboard.Unsupported
}
