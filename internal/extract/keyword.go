package extract

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

const maxHeadingRunes = 60

// ByKeyword finds, for each keyword in order, the first element (document
// order, scripts and styles excluded) whose own text contains the keyword
// case-insensitively. When that element is only a label such as
// "Salário:", the text of the element that follows it is used instead.
// It returns the first non-empty normalized result, or "".
func ByKeyword(doc *goquery.Document, keywords []string, mode Mode) string {
	if doc == nil || len(doc.Nodes) == 0 {
		return ""
	}
	root := doc.Nodes[0]
	for _, kw := range keywords {
		needle := fold(kw)
		if needle == "" {
			continue
		}
		n := findOwnText(root, needle)
		if n == nil {
			continue
		}
		text := Normalize(nodeText(n), mode)
		if isLabel(text, needle) || isHeading(n, text) {
			text = afterLabel(n, text, mode)
		}
		if text != "" {
			return text
		}
	}
	return ""
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

func findOwnText(n *html.Node, needle string) *html.Node {
	if skipElement(n) {
		return nil
	}
	if n.Type == html.ElementNode && strings.Contains(fold(ownText(n)), needle) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findOwnText(c, needle); found != nil {
			return found
		}
	}
	return nil
}

func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// isLabel reports whether text carries nothing beyond the keyword itself.
func isLabel(text, needle string) bool {
	rest := strings.Replace(fold(text), needle, "", 1)
	for _, r := range rest {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isHeading reports short heading-like elements that introduce a section
// rather than hold its content.
func isHeading(n *html.Node, text string) bool {
	switch strings.ToLower(n.Data) {
	case "h1", "h2", "h3", "h4", "h5", "h6", "dt", "th", "label", "strong", "b", "legend":
		return len([]rune(text)) <= maxHeadingRunes
	}
	return false
}

// afterLabel returns the content introduced by label element n: the rest
// of the enclosing block for inline labels, else the next element.
func afterLabel(n *html.Node, label string, mode Mode) string {
	if isInline(n) && n.Parent != nil {
		full := Normalize(nodeText(n.Parent), mode)
		if strings.HasPrefix(full, label) {
			if rest := strings.TrimLeft(full[len(label):], " :-\n"); rest != "" {
				return rest
			}
		}
	}
	return Normalize(nodeText(followingElement(n)), mode)
}

func isInline(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "strong", "b", "em", "i", "span", "label", "a":
		return true
	}
	return false
}

// followingElement returns the next element sibling of n, climbing one
// level when n is the last child of a wrapper.
func followingElement(n *html.Node) *html.Node {
	for depth := 0; n != nil && depth < 2; depth++ {
		for s := n.NextSibling; s != nil; s = s.NextSibling {
			if s.Type == html.ElementNode && !skipElement(s) {
				return s
			}
		}
		n = n.Parent
	}
	return nil
}
