// Package store persists reviewed job postings.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/jobscrape/internal/posting"
)

var (
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("posting not found")
	// ErrInvalid wraps validation failures of a create request.
	ErrInvalid = errors.New("invalid posting")
)

// DefaultListLimit caps List when the filter sets no limit.
const DefaultListLimit = 100

// Filter narrows List. Empty fields match everything; Client matches
// case-insensitively.
type Filter struct {
	Site     string
	Category string
	Client   string
	Limit    int
}

// Store is implemented by Memory and Postgres.
type Store interface {
	Create(ctx context.Context, in posting.NewPosting) (*posting.Posting, error)
	Get(ctx context.Context, id uuid.UUID) (*posting.Posting, error)
	List(ctx context.Context, f Filter) ([]posting.Posting, error)
}

// newRecord validates in and builds the record to persist.
func newRecord(in posting.NewPosting, now time.Time) (*posting.Posting, error) {
	p := &posting.Posting{
		ID:       uuid.New(),
		Draft:    in.Draft,
		Client:   strings.TrimSpace(in.Client),
		Category: strings.TrimSpace(in.Category),
		Product:  strings.TrimSpace(in.Product),
		Site:     strings.TrimSpace(in.Site),
	}
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	p.Title = strings.TrimSpace(p.Title)
	if p.SourceURL == "" {
		return nil, fmt.Errorf("%w: sourceUrl is required", ErrInvalid)
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if p.ExtractedAt.IsZero() {
		p.ExtractedAt = now
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (f Filter) limit() int {
	if f.Limit <= 0 || f.Limit > DefaultListLimit {
		return DefaultListLimit
	}
	return f.Limit
}
