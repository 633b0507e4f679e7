package extract

import (
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"
)

// MaxSectionChars bounds every value produced by the regex tier.
const MaxSectionChars = 2000

// sectionMatchTimeout bounds backtracking on adversarial page text.
const sectionMatchTimeout = 250 * time.Millisecond

var sectionRegexps sync.Map // pattern -> *regexp2.Regexp (nil when unusable)

func compileSection(pattern string) *regexp2.Regexp {
	if v, ok := sectionRegexps.Load(pattern); ok {
		re, _ := v.(*regexp2.Regexp)
		return re
	}
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	switch {
	case err != nil:
		log.Debug().Err(err).Str("pattern", pattern).Msg("skipping invalid section pattern")
		re = nil
	case len(re.GetGroupNumbers()) != 2:
		log.Debug().Str("pattern", pattern).Msg("section pattern must have exactly one capture group")
		re = nil
	default:
		re.MatchTimeout = sectionMatchTimeout
	}
	sectionRegexps.Store(pattern, re)
	return re
}

// BySection runs patterns in order against the full page text and returns
// the first capture group that matches, normalized in Paragraph mode and
// then truncated to MaxSectionChars runes. Unusable patterns are skipped.
func BySection(text string, patterns []string) string {
	if text == "" {
		return ""
	}
	for _, p := range patterns {
		re := compileSection(p)
		if re == nil {
			continue
		}
		m, err := re.FindStringMatch(text)
		if err != nil {
			log.Debug().Err(err).Str("pattern", p).Msg("section pattern timed out")
			continue
		}
		if m == nil {
			continue
		}
		g := m.GroupByNumber(1)
		if g == nil || g.Length == 0 {
			continue
		}
		if out := Truncate(NormalizeParagraph(g.String()), MaxSectionChars); out != "" {
			return out
		}
	}
	return ""
}
