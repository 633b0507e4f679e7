package extract

import "testing"

func TestBySelectors_FirstNonEmptyWins(t *testing.T) {
	doc := mustDoc(t, `<div class="empty"> </div><div class="salary">R$ 8.000</div><div class="other">x</div>`)
	got := BySelectors(doc, []string{".missing", ".empty", ".salary", ".other"}, SingleLine)
	if got != "R$ 8.000" {
		t.Fatalf("got %q", got)
	}
}

func TestBySelectors_InvalidSelectorSkipped(t *testing.T) {
	doc := mustDoc(t, `<h1 class="ok">Analista</h1>`)
	if got := BySelectors(doc, []string{"div[[", "h1.ok"}, SingleLine); got != "Analista" {
		t.Fatalf("got %q", got)
	}
}

func TestBySelectors_JoinsMatchesWithoutNestedDuplicates(t *testing.T) {
	doc := mustDoc(t, `<div class="box">A<div class="box">B</div></div><div class="box">C</div>`)
	if got := BySelectors(doc, []string{".box"}, SingleLine); got != "A B C" {
		t.Fatalf("got %q", got)
	}
}

func TestBySelectors_ParagraphModeKeepsItems(t *testing.T) {
	doc := mustDoc(t, `<ul><li class="b">Vale refeição</li><li class="b">Plano de saúde</li></ul>`)
	if got := BySelectors(doc, []string{"li.b"}, Paragraph); got != "Vale refeição\nPlano de saúde" {
		t.Fatalf("got %q", got)
	}
}

func TestBySelectors_ExcludesScripts(t *testing.T) {
	doc := mustDoc(t, `<div class="d">Texto<script>var x = 1</script></div>`)
	if got := BySelectors(doc, []string{".d"}, SingleLine); got != "Texto" {
		t.Fatalf("got %q", got)
	}
}

func TestBySelectors_NoMatch(t *testing.T) {
	doc := mustDoc(t, `<p>nada</p>`)
	if got := BySelectors(doc, []string{".a", "#b"}, SingleLine); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := BySelectors(nil, []string{"p"}, SingleLine); got != "" {
		t.Fatalf("nil document must yield empty")
	}
}
