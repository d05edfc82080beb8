package pattern

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// InlineCode wraps text in backticks, escaping embedded backticks first.
//
//	InlineCode("foo [`']* bar") == "`foo [\\`']* bar`"
func InlineCode(text string) string {
	return "`" + strings.ReplaceAll(text, "`", "\\`") + "`"
}

// Mention renders the @-mention form of a display name: "@" followed by the
// name with every rune removed that is not a letter, a number, an
// underscore, an apostrophe, a period or a hyphen.
//
// The name is NFC-normalised first so that a letter written with a
// combining accent survives as one composed letter instead of losing the
// accent.
func Mention(displayName string) string {
	name := norm.NFC.String(displayName)

	var b strings.Builder
	b.Grow(len(name) + 1)
	b.WriteByte('@')
	for _, r := range name {
		if keepInMention(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepInMention(r rune) bool {
	switch r {
	case '\'', '.', '-', '_':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
