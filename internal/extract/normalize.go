package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Mode selects how Normalize treats line breaks.
type Mode int

const (
	// SingleLine collapses every whitespace run, newlines included, to one space.
	SingleLine Mode = iota
	// Paragraph keeps single line breaks and collapses runs of blank lines.
	Paragraph
)

// typographic maps punctuation outside Latin-1 to the nearest Latin-1 form
// before filtering so it does not simply vanish.
var typographic = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", "\"", "”", "\"", "„", "\"",
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-",
	"•", "-", "●", "-", "▪", "-", "◦", "-", "‣", "-",
	"…", "...",
	"\u2028", "\n", "\u2029", "\n",
	"€", "EUR",
)

// Normalize cleans raw page text: NFC composition, removal of characters
// outside Basic Latin and Latin-1 Supplement, whitespace collapsing per mode
// and trimming. It is pure and returns "" for empty input.
func Normalize(raw string, mode Mode) string {
	if raw == "" {
		return ""
	}
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "")
	}
	s := typographic.Replace(norm.NFC.String(raw))
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			if mode == Paragraph {
				return '\n'
			}
			return ' '
		case r == '\t' || r == '\v' || r == '\f' || r == '\u00a0':
			return ' '
		case r >= 0x20 && r <= 0x7e:
			return r
		case r >= 0xa1 && r <= 0xff && r != 0xad:
			return r
		}
		return -1
	}, s)
	if mode == SingleLine {
		return strings.Join(strings.Fields(s), " ")
	}
	return normalizeWhitespace(s)
}

// NormalizeLine is Normalize in SingleLine mode.
func NormalizeLine(raw string) string { return Normalize(raw, SingleLine) }

// NormalizeParagraph is Normalize in Paragraph mode.
func NormalizeParagraph(raw string) string { return Normalize(raw, Paragraph) }

// Truncate cuts s to at most max runes, never splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	i := 0
	for pos := range s {
		if i == max {
			return strings.TrimRight(s[:pos], " \n")
		}
		i++
	}
	return s
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// Keep at most one consecutive blank, none leading
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, collapseSpaces(trimmed))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
