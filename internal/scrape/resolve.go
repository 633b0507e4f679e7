package scrape

import (
	"github.com/hyperifyio/jobscrape/internal/extract"
	"github.com/hyperifyio/jobscrape/internal/posting"
)

// Candidate is one tier's lazily computed value for a field.
type Candidate struct {
	Tier  posting.Tier
	Value func() string
}

// Resolve walks candidates in order and returns the first value that is
// non-empty after normalization, with the tier that produced it. Later
// candidates are never evaluated once one wins. With no winner it returns
// "" and TierNone.
func Resolve(mode extract.Mode, candidates ...Candidate) (string, posting.Tier) {
	for _, c := range candidates {
		if c.Value == nil {
			continue
		}
		if v := extract.Normalize(c.Value(), mode); v != "" {
			return v, c.Tier
		}
	}
	return "", posting.TierNone
}

func constant(s string) func() string {
	return func() string { return s }
}
