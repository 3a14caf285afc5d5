package cli

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
)

// SystemClipboard writes to the operating system clipboard.
type SystemClipboard struct{}

// WriteText copies text to the clipboard.
func (SystemClipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return errors.New("cli: clipboard is not available on this system")
	}
	return clipboard.WriteAll(text)
}
