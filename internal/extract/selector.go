package extract

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// compiled caches selector compilation across calls; the strategy table is
// static so the set of distinct selectors is small.
var compiled sync.Map // string -> cascadia.Selector (nil when invalid)

func compileSelector(raw string) cascadia.Selector {
	if v, ok := compiled.Load(raw); ok {
		sel, _ := v.(cascadia.Selector)
		return sel
	}
	sel, err := cascadia.Compile(raw)
	if err != nil {
		log.Debug().Err(err).Str("selector", raw).Msg("skipping invalid selector")
		sel = nil
	}
	compiled.Store(raw, sel)
	return sel
}

// BySelectors tries selectors in order and returns the first non-empty
// normalized text. Matches of one selector are joined with spaces
// (SingleLine) or line breaks (Paragraph). Invalid selectors are skipped.
func BySelectors(doc *goquery.Document, selectors []string, mode Mode) string {
	if doc == nil {
		return ""
	}
	sep := " "
	if mode == Paragraph {
		sep = "\n"
	}
	for _, raw := range selectors {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		sel := compileSelector(raw)
		if sel == nil {
			continue
		}
		nodes := outermost(doc.FindMatcher(sel).Nodes)
		if len(nodes) == 0 {
			continue
		}
		parts := make([]string, 0, len(nodes))
		for _, n := range nodes {
			if t := Normalize(nodeText(n), mode); t != "" {
				parts = append(parts, t)
			}
		}
		if out := Normalize(strings.Join(parts, sep), mode); out != "" {
			return out
		}
	}
	return ""
}

// outermost drops nodes nested inside another matched node so a container
// and its child do not contribute the same text twice.
func outermost(nodes []*html.Node) []*html.Node {
	if len(nodes) < 2 {
		return nodes
	}
	set := make(map[*html.Node]struct{}, len(nodes))
	for _, n := range nodes {
		set[n] = struct{}{}
	}
	out := nodes[:0:0]
	for _, n := range nodes {
		nested := false
		for p := n.Parent; p != nil; p = p.Parent {
			if _, ok := set[p]; ok {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, n)
		}
	}
	return out
}
