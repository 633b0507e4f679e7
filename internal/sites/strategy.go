package sites

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	"github.com/hyperifyio/jobscrape/internal/posting"
)

//go:embed strategies.yaml
var defaultStrategies []byte

// FieldRules holds the site-independent rules for one field.
type FieldRules struct {
	// Headings introduce the field's section in page text.
	Headings []string `yaml:"headings"`
	// Keywords drive the keyword-proximity tier.
	Keywords []string `yaml:"keywords"`
	// Patterns are extra section regexps with exactly one capture group,
	// tried after the ones generated from Headings.
	Patterns []string `yaml:"patterns"`
}

// Profile maps a field to its CSS selectors, most specific first.
type Profile map[posting.Field][]string

type tableFile struct {
	Boundaries []string                       `yaml:"boundaries"`
	Fields     map[string]FieldRules          `yaml:"fields"`
	Selectors  map[string]map[string][]string `yaml:"selectors"`
}

// Table is the immutable extraction strategy table.
type Table struct {
	fields    map[posting.Field]FieldRules
	profiles  map[ID]Profile
	patterns  map[posting.Field][]string
	keywordOK map[posting.Field]bool
}

// keywordFields are the only fields the keyword tier applies to.
var keywordFields = []posting.Field{posting.Title, posting.Description, posting.Salary}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table. It panics if the embedded table is
// invalid, which the package tests rule out.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(defaultStrategies)
		if err != nil {
			panic(fmt.Sprintf("sites: embedded strategies: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadFile reads a strategy table from a YAML file.
func LoadFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategies: %w", err)
	}
	return Load(b)
}

// Load parses and validates a YAML strategy table.
func Load(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse strategies: %w", err)
	}
	t := &Table{
		fields:    make(map[posting.Field]FieldRules, len(posting.Fields)),
		profiles:  make(map[ID]Profile, len(IDs)),
		patterns:  make(map[posting.Field][]string, len(posting.Fields)),
		keywordOK: make(map[posting.Field]bool, len(keywordFields)),
	}
	for _, kf := range keywordFields {
		t.keywordOK[kf] = true
	}

	for name, rules := range f.Fields {
		field := posting.Field(name)
		if !field.Valid() {
			return nil, fmt.Errorf("strategies: unknown field %q", name)
		}
		if len(rules.Keywords) > 0 && !t.keywordOK[field] {
			return nil, fmt.Errorf("strategies: keywords not allowed for field %q", name)
		}
		for _, p := range rules.Patterns {
			if err := checkPattern(p); err != nil {
				return nil, fmt.Errorf("strategies: field %q: %w", name, err)
			}
		}
		t.fields[field] = rules
	}

	for name, sels := range f.Selectors {
		id := ID(name)
		if !id.Known() {
			return nil, fmt.Errorf("strategies: unknown site %q", name)
		}
		p := make(Profile, len(sels))
		for fname, list := range sels {
			field := posting.Field(fname)
			if !field.Valid() {
				return nil, fmt.Errorf("strategies: site %q: unknown field %q", name, fname)
			}
			p[field] = list
		}
		t.profiles[id] = p
	}
	t.inheritGeneric()

	for _, field := range posting.Fields {
		t.patterns[field] = t.buildPatterns(field, f.Boundaries)
	}
	return t, nil
}

// inheritGeneric appends the generic selectors after each site's own.
func (t *Table) inheritGeneric() {
	generic := t.profiles[Generic]
	for _, id := range IDs {
		if id == Generic {
			continue
		}
		own := t.profiles[id]
		merged := make(Profile, len(posting.Fields))
		for _, field := range posting.Fields {
			merged[field] = dedupe(append(append([]string(nil), own[field]...), generic[field]...))
		}
		t.profiles[id] = merged
	}
}

// Strategy returns the selector profile for id; unknown ids get Generic.
func (t *Table) Strategy(id ID) Profile {
	if p, ok := t.profiles[id]; ok {
		return p
	}
	return t.profiles[Generic]
}

// Selectors returns the ordered selectors for field on site id.
func (t *Table) Selectors(id ID, field posting.Field) []string {
	return t.Strategy(id)[field]
}

// Keywords returns the keyword-tier keywords for field. Fields outside the
// keyword tier always get nil.
func (t *Table) Keywords(field posting.Field) []string {
	if !t.keywordOK[field] {
		return nil
	}
	return t.fields[field].Keywords
}

// KeywordField reports whether the keyword tier applies to field.
func (t *Table) KeywordField(field posting.Field) bool {
	return t.keywordOK[field]
}

// SectionPatterns returns the ordered regex-section patterns for field.
func (t *Table) SectionPatterns(field posting.Field) []string {
	return t.patterns[field]
}

func (t *Table) buildPatterns(field posting.Field, boundaries []string) []string {
	rules := t.fields[field]
	var out []string
	if len(rules.Headings) > 0 {
		var stops []string
		for other, r := range t.fields {
			if other != field {
				stops = append(stops, r.Headings...)
			}
		}
		stops = append(stops, boundaries...)
		head := alternation(rules.Headings)
		if field.Multiline() {
			out = append(out, `(?:^|\n)[ \t]*(?:`+head+`)\b[ \t]*:?\s*([\s\S]+?)(?=\n[ \t]*(?:`+alternation(stops)+`)\b|$)`)
		} else {
			// The heading must end its line or be followed by a colon, so
			// "horário" never matches inside "horário de trabalho".
			out = append(out, `(?:^|\n)[ \t]*(?:`+head+`)[ \t]*(?::\s*|\n\s*)([^\n]+)`)
		}
	}
	return append(out, rules.Patterns...)
}

// alternation escapes phrases into a regexp alternation, longest first so
// "requisitos e qualificações" wins over "requisitos". Words may be
// separated by any whitespace.
func alternation(phrases []string) string {
	uniq := dedupe(phrases)
	sort.SliceStable(uniq, func(i, j int) bool { return len([]rune(uniq[i])) > len([]rune(uniq[j])) })
	parts := make([]string, 0, len(uniq))
	for _, p := range uniq {
		words := strings.Fields(p)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp2.Escape(w)
		}
		parts = append(parts, strings.Join(words, `\s+`))
	}
	return strings.Join(parts, "|")
}

func checkPattern(p string) error {
	re, err := regexp2.Compile(p, regexp2.IgnoreCase)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", p, err)
	}
	if len(re.GetGroupNumbers()) != 2 {
		return fmt.Errorf("pattern %q: want exactly one capture group", p)
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}
