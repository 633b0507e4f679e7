package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const requisitosPattern = `(?:^|\n)\s*(?:requisitos)\s*:?\s*([\s\S]+?)(?=\n\s*(?:benefícios|etapas)|$)`

func TestBySection_StopsAtNextHeading(t *testing.T) {
	text := "Sobre nós\nSomos uma empresa.\nRequisitos\nGo e SQL\nInglês técnico\nBenefícios\nVR"
	if got := BySection(text, []string{requisitosPattern}); got != "Go e SQL\nInglês técnico" {
		t.Fatalf("got %q", got)
	}
}

func TestBySection_CaseInsensitiveAndEndOfText(t *testing.T) {
	text := "REQUISITOS: experiência com atendimento"
	if got := BySection(text, []string{requisitosPattern}); got != "experiência com atendimento" {
		t.Fatalf("got %q", got)
	}
}

func TestBySection_TruncatesAfterNormalizing(t *testing.T) {
	text := "Requisitos\n" + strings.Repeat("a    ", 3000)
	got := BySection(text, []string{requisitosPattern})
	if n := utf8.RuneCountInString(got); n == 0 || n > MaxSectionChars {
		t.Fatalf("expected 1..%d runes, got %d", MaxSectionChars, n)
	}
	if strings.Contains(got, "  ") {
		t.Fatalf("expected whitespace collapsed before truncation")
	}
}

func TestBySection_SkipsUnusablePatterns(t *testing.T) {
	text := "Requisitos\nGo"
	patterns := []string{"(", `requisitos`, `(a)(b)`, requisitosPattern}
	if got := BySection(text, patterns); got != "Go" {
		t.Fatalf("got %q", got)
	}
}

func TestBySection_NoMatch(t *testing.T) {
	if got := BySection("Nada relevante", []string{requisitosPattern}); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := BySection("", []string{requisitosPattern}); got != "" {
		t.Fatalf("got %q", got)
	}
}
