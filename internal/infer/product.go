package infer

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/jobscrape/internal/extract"
)

// productPatterns are tried in order against the title; group 1 of the
// first match is the product.
var productPatterns = []*regexp2.Regexp{
	// Analista (Banco Digital)
	regexp2.MustCompile(`\(\s*([^()]+?)\s*\)`, regexp2.None),
	// Analista de Suporte - Cartões
	regexp2.MustCompile(`\s[-|]\s+([^-|]+?)\s*$`, regexp2.None),
	// two capitalized words in a row
	regexp2.MustCompile(`(?<![\p{L}\p{N}])(\p{Lu}[\p{L}\p{N}]+\s+\p{Lu}[\p{L}\p{N}]+)`, regexp2.None),
}

func init() {
	for _, re := range productPatterns {
		re.MatchTimeout = 100 * time.Millisecond
	}
}

// Product guesses the product or business line a posting is for from its
// title, or NotIdentified.
func Product(title string) string {
	title = extract.NormalizeLine(title)
	if title == "" {
		return NotIdentified
	}
	for _, re := range productPatterns {
		m, err := re.FindStringMatch(title)
		if err != nil {
			log.Debug().Err(err).Str("title", title).Msg("product pattern failed")
			continue
		}
		if m == nil {
			continue
		}
		if g := strings.TrimSpace(m.GroupByNumber(1).String()); g != "" {
			return g
		}
	}
	return NotIdentified
}
