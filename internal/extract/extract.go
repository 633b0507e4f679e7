// Package extract implements the field-extraction tiers that turn a job page
// into text: structured data, CSS selectors, keyword proximity and regex
// sections, plus the text normalizer they all share.
package extract

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrEmptyDocument is returned by Parse when the input has no content.
var ErrEmptyDocument = errors.New("empty document")

// Page is a parsed job page ready for the extraction tiers.
type Page struct {
	Doc *goquery.Document
	// Text is the visible page text, one block per line, normalized in
	// Paragraph mode. The regex tier runs over it.
	Text string
}

// Parse builds a Page from raw HTML bytes.
func Parse(input []byte) (*Page, error) {
	if len(bytes.TrimSpace(input)) == 0 {
		return nil, ErrEmptyDocument
	}
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	return &Page{
		Doc:  goquery.NewDocumentFromNode(root),
		Text: VisibleText(root),
	}, nil
}

// VisibleText returns the readable text under n: scripts, styles and obvious
// boilerplate (nav, footer, cookie banners) are skipped and block elements
// start new lines.
func VisibleText(n *html.Node) string {
	if n == nil {
		return ""
	}
	content := findFirst(n, "body")
	if content == nil {
		content = n
	}
	var b strings.Builder
	collectText(&b, content, false, true)
	return NormalizeParagraph(b.String())
}

// nodeText returns the raw text under n with block separation but without
// dropping nav/footer; selectors that point into them are explicit.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(&b, n, false, false)
	return b.String()
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

func collectText(b *strings.Builder, n *html.Node, inPre bool, skipChrome bool) {
	if n.Type == html.ElementNode {
		if skipChrome && isBoilerplateContainer(n) {
			return
		}
		name := strings.ToLower(n.Data)
		switch name {
		case "script", "style", "noscript", "template", "iframe", "svg":
			return
		case "nav", "footer", "aside":
			if skipChrome {
				return
			}
		case "pre":
			inPre = true
		case "br", "hr":
			b.WriteString("\n")
		}
		if isBlock(name) {
			ensureNewline(b)
		}
	}

	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.ReplaceAll(data, "\t", " ")
			data = strings.ReplaceAll(data, "\r", " ")
			data = strings.ReplaceAll(data, "\n", " ")
		}
		b.WriteString(data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre, skipChrome)
	}

	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
		case "li", "pre", "tr", "dd", "dt", "div", "section", "article", "header", "ul", "ol", "table":
			ensureNewline(b)
		}
	}
}

// ensureNewline starts a new line unless the builder already sits at one.
func ensureNewline(b *strings.Builder) {
	s := strings.TrimRight(b.String(), " ")
	if len(s) > 0 && s[len(s)-1] != '\n' {
		b.WriteByte('\n')
	}
}

func isBlock(name string) bool {
	switch name {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol",
		"div", "section", "article", "header", "main", "table", "tr",
		"dt", "dd", "dl", "blockquote", "form", "fieldset", "pre":
		return true
	}
	return false
}

// isBoilerplateContainer returns true if the element looks like a cookie/consent banner.
func isBoilerplateContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" && key != "role" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if containsAny(val, []string{"cookie", "consent", "gdpr", "lgpd"}) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// skipElement reports elements whose text is never page content.
func skipElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript", "template", "head", "iframe", "svg":
		return true
	}
	return false
}
