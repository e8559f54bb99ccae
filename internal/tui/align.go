package tui

import (
	"strings"

	"golang.org/x/text/width"
)

// displayWidth returns the number of terminal columns s occupies, counting
// East Asian wide and fullwidth runes as two columns. Plain len or rune
// counts misalign columns as soon as a company name is Japanese.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		w += runeWidth(r)
	}
	return w
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// padDisplay left-aligns s in a field of the given column width. Strings at
// or past the width are returned unchanged.
func padDisplay(s string, columns int) string {
	gap := columns - displayWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// padLeftDisplay right-aligns s in a field of the given column width.
func padLeftDisplay(s string, columns int) string {
	gap := columns - displayWidth(s)
	if gap <= 0 {
		return s
	}
	return strings.Repeat(" ", gap) + s
}

// truncateDisplay cuts s to at most the given column width, appending an
// ellipsis when anything was removed.
func truncateDisplay(s string, columns int) string {
	if displayWidth(s) <= columns {
		return s
	}
	var sb strings.Builder
	w := 0
	for _, r := range s {
		rw := runeWidth(r)
		if w+rw > columns-1 {
			break
		}
		sb.WriteRune(r)
		w += rw
	}
	return sb.String() + "…"
}
