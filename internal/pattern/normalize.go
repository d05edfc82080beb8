package pattern

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	codeOpen  = "<code>"
	codeClose = "</code>"
)

// Normalize turns raw pattern text into its canonical source string.
//
// One pass trims surrounding whitespace, strips a single enclosing
// <code>...</code> pair and decodes HTML entity references
// (e.g. "&euro;" becomes "€"). Passes repeat until the text stops
// changing, which makes Normalize idempotent for every input, including
// doubly escaped text such as "&amp;lt;". Decoding never grows the text
// and every change consumes markup or an entity reference, so the loop
// terminates.
func Normalize(raw string) string {
	current := raw
	for {
		next := normalizeOnce(current)
		if next == current {
			return next
		}
		current = next
	}
}

func normalizeOnce(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= len(codeOpen)+len(codeClose) &&
		strings.HasPrefix(text, codeOpen) && strings.HasSuffix(text, codeClose) {
		text = text[len(codeOpen) : len(text)-len(codeClose)]
	}
	return html.UnescapeString(text)
}
