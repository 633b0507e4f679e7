package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/jobscrape/internal/posting"
)

// Memory is an in-process Store for tests and single-user runs.
type Memory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]posting.Posting
	now   func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[uuid.UUID]posting.Posting), now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) Create(_ context.Context, in posting.NewPosting) (*posting.Posting, error) {
	p, err := newRecord(in, m.now())
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.items[p.ID] = *p
	m.mu.Unlock()
	return p, nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (*posting.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// List returns matching postings, newest first.
func (m *Memory) List(_ context.Context, f Filter) ([]posting.Posting, error) {
	m.mu.RLock()
	out := make([]posting.Posting, 0, len(m.items))
	for _, p := range m.items {
		if f.Site != "" && p.Site != f.Site {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Client != "" && !strings.EqualFold(p.Client, f.Client) {
			continue
		}
		out = append(out, p)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := f.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
