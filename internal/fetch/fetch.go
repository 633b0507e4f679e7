// Package fetch retrieves job pages over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/jobscrape/internal/cache"
)

const (
	// DefaultUserAgent presents as a desktop browser; several job boards
	// serve an empty shell to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	// DefaultTimeout bounds one page fetch.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodyBytes caps the buffered response body.
	DefaultMaxBodyBytes int64 = 5 << 20
)

var (
	// ErrUnsupportedContentType is returned for non-HTML responses.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrBodyTooLarge is returned when the body exceeds the configured cap.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode >= 500 {
		return fmt.Sprintf("server error: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// Client wraps http.Client with timeouts, a body cap and limited retry on
// transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request. Zero means DefaultTimeout.
	PerRequestTimeout time.Duration
	// MaxBodyBytes caps the body. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Optional on-disk page cache.
	Cache *cache.PageCache
	// If true, skip conditional revalidation but still save the response.
	BypassCache bool

	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests. Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
}

// Response is a fetched page.
type Response struct {
	Body        []byte
	ContentType string
	// FinalURL is the URL after redirects.
	FinalURL string
	// FromCache is set when the body came from the page cache after a 304.
	FromCache bool
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) timeout() time.Duration {
	if c.PerRequestTimeout > 0 {
		return c.PerRequestTimeout
	}
	return DefaultTimeout
}

func (c *Client) maxBody() int64 {
	if c.MaxBodyBytes > 0 {
		return c.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

// Get issues a GET with context, user-agent and bounded retry for transient
// errors.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, status, newEtag, newLastMod, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			if c.Cache != nil && status == http.StatusOK {
				if err := c.Cache.Save(ctx, rawURL, res.ContentType, newEtag, newLastMod, res.Body); err != nil {
					log.Debug().Err(err).Str("url", rawURL).Msg("page cache save failed")
				}
			}
			if status == http.StatusNotModified && c.Cache != nil {
				cached, err := c.Cache.LoadBody(ctx, rawURL)
				if err != nil {
					return nil, fmt.Errorf("not modified but cache unreadable: %w", err)
				}
				res.Body = cached
				res.FromCache = true
				if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && res.ContentType == "" {
					res.ContentType = meta.ContentType
				}
			}
			return res, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (*Response, int, string, string, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, 0, "", "", err
	}
	defer c.release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, "", "", fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, 0, "", "", fmt.Errorf("unsupported URL scheme: %q", req.URL.Scheme)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, 0, "", "", err
	}
	defer resp.Body.Close()

	res := &Response{ContentType: resp.Header.Get("Content-Type"), FinalURL: resp.Request.URL.String()}
	newEtag, newLastMod := resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")
	if resp.StatusCode == http.StatusNotModified && c.Cache != nil {
		return res, resp.StatusCode, newEtag, newLastMod, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, "", "", &StatusError{StatusCode: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(res.ContentType) {
		return nil, resp.StatusCode, "", "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, res.ContentType)
	}
	limit := c.maxBody()
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, resp.StatusCode, "", "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > limit {
		return nil, resp.StatusCode, "", "", fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, limit)
	}
	res.Body = b
	return res, resp.StatusCode, newEtag, newLastMod, nil
}

func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// isAllowedHTMLContentType accepts text/html and XHTML. A missing header is
// accepted; the parser decides.
func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire(ctx context.Context) error {
	if c.MaxConcurrent <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
