package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize_SingleLine(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "  Olá\t\tmundo \n novo  ", "Olá mundo novo"},
		{"strips control characters", "a\x00b\x07c", "abc"},
		{"drops characters outside latin-1", "Vaga 🚀 Go", "Vaga Go"},
		{"composes decomposed accents", "Descric\u0327a\u0303o", "Descri\u00e7\u00e3o"},
		{"maps typographic dashes", "Júnior – Pleno", "Júnior - Pleno"},
		{"maps curly quotes", "“Sênior”", "\"Sênior\""},
		{"nbsp is whitespace", "R$\u00a03.000", "R$ 3.000"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLine(tc.in); got != tc.want {
				t.Fatalf("NormalizeLine(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_ParagraphKeepsLinesAndCollapsesBlanks(t *testing.T) {
	in := "\n\n  Linha   1 \n\n\n\n Linha 2\n  Linha 3  \n\n"
	want := "Linha 1\n\nLinha 2\nLinha 3"
	if got := NormalizeParagraph(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalize_ParagraphCarriageReturns(t *testing.T) {
	if got := NormalizeParagraph("a\r\nb\rc"); got != "a\nb\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	got := NormalizeLine("ok\xff\xfe fim")
	if !utf8.ValidString(got) || got != "ok fim" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	s := strings.Repeat("é", 2500)
	got := Truncate(s, MaxSectionChars)
	if n := utf8.RuneCountInString(got); n != MaxSectionChars {
		t.Fatalf("expected %d runes, got %d", MaxSectionChars, n)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune")
	}
	if Truncate("curto", 10) != "curto" {
		t.Fatalf("short strings are returned unchanged")
	}
	if Truncate("x", 0) != "" {
		t.Fatalf("zero max yields empty")
	}
}
