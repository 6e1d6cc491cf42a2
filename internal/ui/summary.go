package ui

import (
	"fmt"
	"strings"
)

// Plural returns "1 file", "2 files" and so on.
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// MaskKey shortens a hex key for display, keeping the first and last four
// characters.
func MaskKey(keyHex string) string {
	if len(keyHex) <= 12 {
		return strings.Repeat("*", len(keyHex))
	}
	return keyHex[:4] + "…" + keyHex[len(keyHex)-4:]
}

// StatusLine renders one per-file result line of a batch command.
func StatusLine(ok bool, path, detail string) string {
	mark := Success.Sprint("✓")
	if !ok {
		mark = Error.Sprint("✗")
	}
	line := "  " + mark + " " + Path.Sprint(path)
	if detail != "" {
		line += " " + Muted.Sprint(detail)
	}
	return line
}
