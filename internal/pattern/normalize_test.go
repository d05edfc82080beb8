package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "foo .* bar", "foo .* bar"},
		{"spacing and case preserved", "pat  with  spacing and UPPERCASE", "pat  with  spacing and UPPERCASE"},
		{"code wrapper", "<code>Euro: &euro;</code>", "Euro: €"},
		{"entity only", "Euro: &euro;", "Euro: €"},
		{"surrounding whitespace", "  <code>(</code>  ", "("},
		{"empty code block", "<code></code>", ""},
		{"unbalanced opening only", "<code>foo", "<code>foo"},
		{"unbalanced closing only", "foo</code>", "foo</code>"},
		{"inner code kept", "a<code>b</code>c", "a<code>b</code>c"},
		{"escaped angle brackets", "&lt;b&gt;", "<b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"foo .* bar",
		"<code>Euro: &euro;</code>",
		"<code><code>nested</code></code>",
		"&amp;lt;code&amp;gt;x&amp;lt;/code&amp;gt;",
		"<code>&lt;code&gt;x&lt;/code&gt;</code>",
		"&#0",
		"  \t<code> spaced </code>\n",
		"^\\w+ (?=lookahead)",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize(%q) is not idempotent", in)
	}
}
