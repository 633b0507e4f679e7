package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hyperifyio/jobscrape/internal/cache"
	"github.com/hyperifyio/jobscrape/internal/posting"
	"github.com/hyperifyio/jobscrape/internal/scrape"
	"github.com/hyperifyio/jobscrape/internal/sites"
	"github.com/hyperifyio/jobscrape/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExtractor struct {
	res   *scrape.Result
	err   error
	calls int
}

func (f *fakeExtractor) ExtractDetailed(_ context.Context, url string) (*scrape.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := *f.res
	r.Draft.SourceURL = url
	return &r, nil
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := &Server{Store: store.NewMemory()}
	if w := do(t, s.Router(), http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestExtract_ReturnsDraftAndSuggestions(t *testing.T) {
	fx := &fakeExtractor{res: &scrape.Result{
		Draft: posting.Draft{
			Title:       "Analista de Atendimento (Banco Digital) - São Paulo",
			Description: "Atendimento ao cliente.",
		},
		Site:         sites.Gupy,
		Attempts:     []posting.Attempt{{Field: posting.Title, Tier: posting.TierSelector}},
		Organization: "",
	}}
	s := &Server{Extractor: fx, Store: store.NewMemory()}
	w := do(t, s.Router(), http.MethodPost, "/api/extract", map[string]string{"url": "https://acme.gupy.io/jobs/1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp extractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Draft.SourceURL != "https://acme.gupy.io/jobs/1" || resp.Site != "gupy" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Suggestions.Client != "Acme" || resp.Suggestions.Product != "Banco Digital" || resp.Suggestions.Category != "Atendimento" || resp.Suggestions.Site != "Gupy" {
		t.Fatalf("unexpected suggestions: %+v", resp.Suggestions)
	}
	if len(resp.Attempts) != 1 {
		t.Fatalf("expected attempts to be returned")
	}
}

func TestExtract_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", &scrape.FetchError{URL: "u", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"net timeout", &scrape.FetchError{URL: "u", Err: timeoutErr{}}, http.StatusGatewayTimeout},
		{"status", &scrape.FetchError{URL: "u", StatusCode: 404, Err: errors.New("unexpected status: 404")}, http.StatusBadGateway},
		{"parse", &scrape.ParseError{URL: "u", Err: errors.New("empty document")}, http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		s := &Server{Extractor: &fakeExtractor{err: c.err}, Store: store.NewMemory()}
		w := do(t, s.Router(), http.MethodPost, "/api/extract", map[string]string{"url": "https://example.com/j"})
		if w.Code != c.want {
			t.Errorf("%s: status %d, want %d", c.name, w.Code, c.want)
		}
	}
}

func TestExtract_BadInput(t *testing.T) {
	fx := &fakeExtractor{res: &scrape.Result{}}
	s := &Server{Extractor: fx, Store: store.NewMemory()}
	for _, body := range []any{map[string]string{}, map[string]string{"url": "not a url"}, map[string]string{"url": "ftp://x.com/a"}} {
		if w := do(t, s.Router(), http.MethodPost, "/api/extract", body); w.Code != http.StatusBadRequest {
			t.Errorf("%v: status %d", body, w.Code)
		}
	}
	if fx.calls != 0 {
		t.Fatalf("extractor should not run on bad input")
	}
}

func TestPostings_CreateGetList(t *testing.T) {
	s := &Server{Store: store.NewMemory()}
	h := s.Router()

	in := posting.NewPosting{
		Draft:    posting.Draft{SourceURL: "https://acme.gupy.io/jobs/1", Title: "Analista de Atendimento"},
		Client:   "Acme",
		Category: "Atendimento",
		Site:     "Gupy",
	}
	w := do(t, h, http.MethodPost, "/api/postings", in)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", w.Code, w.Body.String())
	}
	var created posting.Posting
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == uuid.Nil || created.Title != "Analista de Atendimento" {
		t.Fatalf("unexpected created posting: %+v", created)
	}

	w = do(t, h, http.MethodGet, "/api/postings/"+created.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/postings?site=Gupy&category=Atendimento&client=acme", nil)
	var list struct {
		Items []posting.Posting `json:"items"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || list.Count != 1 {
		t.Fatalf("list: %v %s", err, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/api/postings?site=LinkedIn", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || list.Count != 0 {
		t.Fatalf("filtered list: %v %s", err, w.Body.String())
	}
}

func TestPostings_Errors(t *testing.T) {
	s := &Server{Store: store.NewMemory()}
	h := s.Router()
	if w := do(t, h, http.MethodPost, "/api/postings", posting.NewPosting{}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: status %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/postings/not-a-uuid", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/postings/"+uuid.NewString(), nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/postings?limit=abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status %d", w.Code)
	}
}

type memRedis struct {
	redis.Cmdable
	data map[string]string
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if b, ok := value.([]byte); ok {
		m.data[key] = string(b)
	}
	return redis.NewStatusResult("OK", nil)
}

func TestExtract_DraftCacheHit(t *testing.T) {
	fx := &fakeExtractor{res: &scrape.Result{
		Draft: posting.Draft{Title: "Analista de Atendimento"},
		Site:  sites.Gupy,
	}}
	s := &Server{
		Extractor: fx,
		Store:     store.NewMemory(),
		Drafts:    &cache.DraftCache{Client: &memRedis{data: map[string]string{}}},
	}
	h := s.Router()

	first := do(t, h, http.MethodPost, "/api/extract", map[string]string{"url": "https://acme.gupy.io/jobs/1"})
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "" {
		t.Fatalf("first: %d %q", first.Code, first.Header().Get("X-Cache"))
	}
	second := do(t, h, http.MethodPost, "/api/extract", map[string]string{"url": "https://ACME.gupy.io/jobs/1#apply"})
	if second.Code != http.StatusOK || second.Header().Get("X-Cache") != "hit" {
		t.Fatalf("second: %d %q", second.Code, second.Header().Get("X-Cache"))
	}
	if fx.calls != 1 {
		t.Fatalf("extractor called %d times, want 1", fx.calls)
	}
	var resp extractResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Draft.SourceURL != "https://ACME.gupy.io/jobs/1#apply" || resp.Draft.Title != "Analista de Atendimento" {
		t.Fatalf("unexpected cached draft: %+v", resp.Draft)
	}
}
