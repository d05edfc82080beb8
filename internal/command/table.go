package command

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// minPadding is the space a column keeps around its header.
const minPadding = 2

// RenderTable renders rows as an org-mode table:
//
//	| User   | Regex   |
//	|--------+---------|
//	| Graham | foo     |
//
// Columns are as wide as their widest cell, and at least two wider than
// their header. Widths are display widths, so wide runes line up.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h) + minPadding
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	var b strings.Builder
	writeRow(&b, widths, headers)
	b.WriteString("\n|")
	for i, w := range widths {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strings.Repeat("-", w+2))
	}
	b.WriteByte('|')
	for _, row := range rows {
		b.WriteByte('\n')
		writeRow(&b, widths, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, widths []int, cells []string) {
	b.WriteByte('|')
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteByte(' ')
		b.WriteString(runewidth.FillRight(cell, w))
		b.WriteString(" |")
	}
}

// Indent prefixes every line of text with four spaces, which chat renders
// as a fixed-width block.
func Indent(text string) string {
	return "    " + strings.ReplaceAll(text, "\n", "\n    ")
}
