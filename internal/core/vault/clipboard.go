package vault

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// EnvelopePrefix marks clipboard contents written by the store.
const EnvelopePrefix = "GHOST_ENCRYPTED:"

// ErrClipboardUnavailable is returned when the clipboard sink cannot be used.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Sink receives the sealed envelope on store and is cleared on destruction.
type Sink interface {
	Write(text string) error
	Clear() error
}

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct{}

// NewSystemClipboard returns the system clipboard sink, or
// ErrClipboardUnavailable when no clipboard utility is installed.
func NewSystemClipboard() (*SystemClipboard, error) {
	if clipboard.Unsupported {
		return nil, ErrClipboardUnavailable
	}
	return &SystemClipboard{}, nil
}

// Write implements Sink.
func (SystemClipboard) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}

// Clear implements Sink.
func (SystemClipboard) Clear() error {
	if err := clipboard.WriteAll(""); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}

// envelope formats ciphertext for the clipboard. Only ciphertext and nonce
// leave the process; the key never does.
func envelope(nonce, ciphertext []byte) string {
	return EnvelopePrefix +
		base64.StdEncoding.EncodeToString(nonce) + ":" +
		base64.StdEncoding.EncodeToString(ciphertext)
}
