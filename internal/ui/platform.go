package ui

import "github.com/atotto/clipboard"

// copyToClipboardFn is the active clipboard implementation. Tests replace it
// to capture the copied text.
var copyToClipboardFn = clipboard.WriteAll

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) error { return copyToClipboardFn(text) }
