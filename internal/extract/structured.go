package extract

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	xhtml "golang.org/x/net/html"

	"github.com/hyperifyio/jobscrape/internal/posting"
)

// StructuredData is the partial result read from embedded JobPosting
// metadata. Fields only holds entries that were actually populated.
type StructuredData struct {
	Fields map[posting.Field]string
	// Organization is hiringOrganization.name when declared.
	Organization string
}

// Get returns the structured value for f and whether it was present.
func (s StructuredData) Get(f posting.Field) (string, bool) {
	v, ok := s.Fields[f]
	return v, ok && v != ""
}

// blockResult is the outcome of decoding one <script> block.
type blockResult struct {
	postings []map[string]any
	err      error
}

// FromStructuredData reads every application/ld+json block in doc, keeps
// the JobPosting items and maps them onto draft fields. Later blocks
// override earlier ones for the same field. Malformed blocks are skipped.
func FromStructuredData(doc *goquery.Document) StructuredData {
	out := StructuredData{Fields: map[posting.Field]string{}}
	if doc == nil {
		return out
	}
	var results []blockResult
	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		mt := strings.ToLower(strings.TrimSpace(strings.SplitN(typ, ";", 2)[0]))
		if mt != "application/ld+json" {
			return
		}
		res := parseBlock(s.Text())
		if res.err != nil {
			log.Debug().Err(res.err).Int("block", i).Msg("skipping malformed structured data")
		}
		results = append(results, res)
	})
	for _, res := range results {
		if res.err != nil {
			continue
		}
		for _, jp := range res.postings {
			mergeJobPosting(&out, jp)
		}
	}
	return out
}

func parseBlock(raw string) blockResult {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ";")
	if raw == "" {
		return blockResult{err: fmt.Errorf("empty block")}
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return blockResult{err: fmt.Errorf("decode: %w", err)}
	}
	var res blockResult
	collectJobPostings(v, &res.postings)
	return res
}

func collectJobPostings(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectJobPostings(item, out)
		}
	case map[string]any:
		if isJobPosting(t["@type"]) {
			*out = append(*out, t)
		}
		if g, ok := t["@graph"]; ok {
			collectJobPostings(g, out)
		}
	}
}

func isJobPosting(typ any) bool {
	switch t := typ.(type) {
	case string:
		if i := strings.LastIndexAny(t, "/:"); i >= 0 {
			t = t[i+1:]
		}
		return strings.EqualFold(strings.TrimSpace(t), "JobPosting")
	case []any:
		for _, x := range t {
			if isJobPosting(x) {
				return true
			}
		}
	}
	return false
}

func mergeJobPosting(out *StructuredData, jp map[string]any) {
	set := func(f posting.Field, v string) {
		if v != "" {
			out.Fields[f] = v
		}
	}
	title := stringOf(jp["title"])
	if title == "" {
		title = stringOf(jp["name"])
	}
	set(posting.Title, NormalizeLine(html.UnescapeString(title)))
	set(posting.Description, htmlToText(stringOf(jp["description"])))
	set(posting.WorkLocation, NormalizeLine(formatLocation(jp["jobLocation"])))
	set(posting.Salary, NormalizeLine(formatSalary(jp["baseSalary"])))
	set(posting.WorkSchedule, NormalizeLine(stringOf(jp["workHours"])))
	if org := NormalizeLine(stringOf(jp["hiringOrganization"])); org != "" {
		out.Organization = org
	}
}

// htmlToText converts a description that may carry (escaped) markup into
// paragraph text.
func htmlToText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	if !strings.Contains(s, "<") {
		return NormalizeParagraph(s)
	}
	root, err := xhtml.Parse(strings.NewReader(s))
	if err != nil {
		return NormalizeParagraph(s)
	}
	return NormalizeParagraph(nodeText(root))
}

func formatLocation(v any) string {
	loc := firstWithKey(v, "address")
	if loc == nil {
		loc = firstObject(v)
	}
	if loc == nil {
		return stringOf(v)
	}
	addr := firstObject(loc["address"])
	if addr == nil {
		if s := stringOf(loc["address"]); s != "" {
			return s
		}
		addr = loc
	}
	city := stringOf(addr["addressLocality"])
	region := stringOf(addr["addressRegion"])
	if out := strings.Trim(strings.TrimSpace(city+", "+region), ", "); out != "" {
		return out
	}
	return stringOf(loc["name"])
}

func formatSalary(v any) string {
	sal := firstObject(v)
	if sal == nil {
		return ""
	}
	currency := stringOf(sal["currency"])
	var lo, hi string
	switch val := sal["value"].(type) {
	case map[string]any:
		lo = stringOf(val["minValue"])
		hi = stringOf(val["maxValue"])
		if lo == "" && hi == "" {
			lo = stringOf(val["value"])
		}
		if currency == "" {
			currency = stringOf(val["currency"])
		}
	case nil:
	default:
		lo = stringOf(val)
	}
	switch {
	case lo == "" && hi == "":
		return ""
	case lo == "" || hi == "":
		return strings.TrimSpace(currency + " " + lo + hi)
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s - %s", currency, lo, hi))
}

func firstObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		for _, x := range t {
			if m, ok := x.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// firstWithKey returns the first object in v that carries key.
func firstWithKey(v any, key string) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t[key]; ok {
			return t
		}
	case []any:
		for _, x := range t {
			if m, ok := x.(map[string]any); ok {
				if _, ok := m[key]; ok {
					return m
				}
			}
		}
	}
	return nil
}

// stringOf renders a JSON-LD value as text: strings and numbers directly,
// objects through their name, arrays through their first non-empty item.
func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		return stringOf(t["name"])
	case []any:
		for _, x := range t {
			if s := stringOf(x); s != "" {
				return s
			}
		}
	}
	return ""
}
