package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/hyperifyio/jobscrape/internal/scrape"
)

const jobPage = `<html><head><script type="application/ld+json">
{"@type":"JobPosting","title":"Analista de Atendimento (Banco Digital) - São Paulo",
 "description":"<p>Atendimento ao cliente por chat.</p>",
 "hiringOrganization":{"name":"Acme Pagamentos"}}
</script></head><body><p><strong>Salário:</strong> R$ 2.800</p></body></html>`

func TestApp_ExtractFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "job.html")
	if err := os.WriteFile(p, []byte(jobPage), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err := New(context.Background(), Config{Placeholders: map[string]string{"workShift": "A definir"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	out, err := a.ExtractFile(context.Background(), "https://acme.gupy.io/jobs/7", p)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out.Draft.Salary != "R$ 2.800" || out.Draft.WorkShift != "A definir" {
		t.Fatalf("unexpected draft: %+v", out.Draft)
	}
	if out.Suggestions.Client != "Acme Pagamentos" || out.Suggestions.Product != "Banco Digital" || out.Suggestions.Category != "Atendimento" {
		t.Fatalf("unexpected suggestions: %+v", out.Suggestions)
	}
	if out.Site != "gupy" {
		t.Fatalf("site = %q", out.Site)
	}
}

func TestApp_ExtractUsesPageCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(jobPage))
	}))
	defer srv.Close()

	a, err := New(context.Background(), Config{CacheDir: filepath.Join(t.TempDir(), "pages")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	for i := 0; i < 2; i++ {
		out, err := a.Extract(context.Background(), srv.URL+"/job")
		if err != nil {
			t.Fatalf("extract %d: %v", i, err)
		}
		if out.Draft.Salary != "R$ 2.800" {
			t.Fatalf("extract %d: salary = %q", i, out.Draft.Salary)
		}
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("expected two requests (one revalidation), got %d", n)
	}
}

func TestApp_ExtractFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	a, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = a.Extract(context.Background(), srv.URL+"/gone")
	var fe *scrape.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected FetchError 404, got %v", err)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{Placeholders: map[string]string{"color": "x"}}); err == nil {
		t.Fatalf("expected error for unknown placeholder field")
	}
	if _, err := New(context.Background(), Config{StrategiesFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing strategies file")
	}
	if _, err := New(context.Background(), Config{DatabaseURL: "mysql://nope"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestApp_ServerUsesMemoryStore(t *testing.T) {
	a, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	h := a.Server().Router()
	req := httptest.NewRequest(http.MethodGet, "/api/postings", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}
