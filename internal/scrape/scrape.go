// Package scrape turns a job-posting URL into a posting draft by composing
// the extraction tiers per field.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/jobscrape/internal/extract"
	"github.com/hyperifyio/jobscrape/internal/fetch"
	"github.com/hyperifyio/jobscrape/internal/posting"
	"github.com/hyperifyio/jobscrape/internal/sites"
)

// Fetcher retrieves a page. *fetch.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Extractor runs the extraction pipeline. The zero value is usable: it
// fetches with a default fetch.Client and the built-in strategy table.
// An Extractor is safe for concurrent use.
type Extractor struct {
	Fetcher Fetcher
	Table   *sites.Table
	// Placeholders are used for fields no tier could fill.
	Placeholders map[posting.Field]string
	Now          func() time.Time
}

// Result is a draft plus what the pipeline learned along the way.
type Result struct {
	Draft    posting.Draft     `json:"draft"`
	Site     sites.ID          `json:"site"`
	Attempts []posting.Attempt `json:"attempts"`
	// Organization is the hiring organization declared in structured data.
	Organization string `json:"organization,omitempty"`
}

var defaultFetcher = &fetch.Client{MaxAttempts: 1}

func (e *Extractor) fetcher() Fetcher {
	if e.Fetcher != nil {
		return e.Fetcher
	}
	return defaultFetcher
}

func (e *Extractor) table() *sites.Table {
	if e.Table != nil {
		return e.Table
	}
	return sites.Default()
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// Extract fetches rawURL and returns the resolved draft.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (posting.Draft, error) {
	res, err := e.ExtractDetailed(ctx, rawURL)
	if err != nil {
		return posting.Draft{}, err
	}
	return res.Draft, nil
}

// ExtractDetailed is Extract plus the per-field tier diagnostics.
func (e *Extractor) ExtractDetailed(ctx context.Context, rawURL string) (*Result, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	resp, err := e.fetcher().Get(ctx, rawURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, classifyFetchError(rawURL, err)
	}
	if resp.FinalURL != "" && resp.FinalURL != rawURL {
		log.Debug().Str("url", rawURL).Str("final", resp.FinalURL).Msg("followed redirects")
	}
	return e.run(ctx, rawURL, resp.Body, resp.ContentType)
}

// ExtractHTML runs the pipeline over an already fetched document. rawURL is
// used for site classification and copied into the draft.
func (e *Extractor) ExtractHTML(ctx context.Context, rawURL string, body []byte) (*Result, error) {
	return e.run(ctx, rawURL, body, "")
}

func (e *Extractor) run(ctx context.Context, rawURL string, body []byte, contentType string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := extract.Parse(body)
	if err != nil {
		return nil, &ParseError{URL: rawURL, ContentType: contentType, Err: err}
	}

	site := sites.Classify(rawURL)
	tbl := e.table()
	sd := extract.FromStructuredData(page.Doc)

	res := &Result{
		Site:         site,
		Attempts:     make([]posting.Attempt, 0, len(posting.Fields)),
		Organization: sd.Organization,
	}
	res.Draft.SourceURL = rawURL

	for _, field := range posting.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mode := extract.SingleLine
		if field.Multiline() {
			mode = extract.Paragraph
		}
		candidates := make([]Candidate, 0, 5)
		if v, ok := sd.Get(field); ok {
			candidates = append(candidates, Candidate{posting.TierStructured, constant(v)})
		}
		candidates = append(candidates, Candidate{posting.TierSelector, func() string {
			return extract.BySelectors(page.Doc, tbl.Selectors(site, field), mode)
		}})
		if tbl.KeywordField(field) {
			candidates = append(candidates, Candidate{posting.TierKeyword, func() string {
				return extract.ByKeyword(page.Doc, tbl.Keywords(field), mode)
			}})
		}
		candidates = append(candidates, Candidate{posting.TierRegex, func() string {
			return extract.BySection(page.Text, tbl.SectionPatterns(field))
		}})
		if ph := e.Placeholders[field]; ph != "" {
			candidates = append(candidates, Candidate{posting.TierPlaceholder, constant(ph)})
		}

		v, tier := Resolve(mode, candidates...)
		if tier == posting.TierNone {
			log.Debug().Str("url", rawURL).Str("field", string(field)).Msg("no tier produced a value")
		}
		res.Draft.Set(field, v)
		res.Attempts = append(res.Attempts, posting.Attempt{Field: field, Tier: tier})
	}
	res.Draft.ExtractedAt = e.now()
	return res, nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

func classifyFetchError(rawURL string, err error) error {
	if errors.Is(err, fetch.ErrUnsupportedContentType) {
		return &ParseError{URL: rawURL, Err: err}
	}
	fe := &FetchError{URL: rawURL, Err: err}
	var se *fetch.StatusError
	if errors.As(err, &se) {
		fe.StatusCode = se.StatusCode
	}
	return fe
}
