// Package server exposes extraction and posting storage over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/jobscrape/internal/cache"
	"github.com/hyperifyio/jobscrape/internal/infer"
	"github.com/hyperifyio/jobscrape/internal/posting"
	"github.com/hyperifyio/jobscrape/internal/scrape"
	"github.com/hyperifyio/jobscrape/internal/store"
)

// Extractor is the extraction entry point the handlers call.
type Extractor interface {
	ExtractDetailed(ctx context.Context, url string) (*scrape.Result, error)
}

// Server wires the route handlers to their collaborators.
type Server struct {
	Extractor Extractor
	Store     store.Store
	// Drafts caches extraction responses by URL. Optional.
	Drafts *cache.DraftCache
	// ExtractTimeout bounds one extraction call including the fetch.
	ExtractTimeout time.Duration
	// AllowOrigins for CORS; empty allows all origins.
	AllowOrigins []string
}

type extractRequest struct {
	URL string `json:"url" binding:"required"`
}

type extractResponse struct {
	Draft       posting.Draft     `json:"draft"`
	Suggestions infer.Labels      `json:"suggestions"`
	Attempts    []posting.Attempt `json:"attempts"`
	Site        string            `json:"site"`
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	config := cors.DefaultConfig()
	if len(s.AllowOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.AllowOrigins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(config))

	r.GET("/health", s.health)
	api := r.Group("/api")
	{
		api.POST("/extract", s.extract)
		api.POST("/postings", s.createPosting)
		api.GET("/postings", s.listPostings)
		api.GET("/postings/:id", s.getPosting)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	url := strings.TrimSpace(req.URL)
	if err := scrape.ValidateURL(url); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	var cached extractResponse
	if ok, err := s.Drafts.Get(ctx, url, &cached); err != nil {
		log.Warn().Err(err).Msg("draft cache read failed")
	} else if ok {
		// keys are canonical; the draft echoes the URL as requested
		cached.Draft.SourceURL = url
		c.Header("X-Cache", "hit")
		c.JSON(http.StatusOK, cached)
		return
	}

	if s.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ExtractTimeout)
		defer cancel()
	}
	res, err := s.Extractor.ExtractDetailed(ctx, url)
	if err != nil {
		writeExtractError(c, err)
		return
	}
	resp := extractResponse{
		Draft:       res.Draft,
		Suggestions: infer.All(res.Draft, res.Organization),
		Attempts:    res.Attempts,
		Site:        string(res.Site),
	}
	if err := s.Drafts.Set(ctx, url, resp); err != nil {
		log.Warn().Err(err).Msg("draft cache write failed")
	}
	c.JSON(http.StatusOK, resp)
}

// writeExtractError maps extraction failures to HTTP statuses.
func writeExtractError(c *gin.Context, err error) {
	var fe *scrape.FetchError
	var pe *scrape.ParseError
	switch {
	case errors.Is(err, scrape.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &fe) && fe.Timeout():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "kind": "fetch", "retryable": true})
	case errors.As(err, &fe):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": "fetch", "status": fe.StatusCode})
	case errors.As(err, &pe):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": "parse"})
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		c.Status(499)
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "retryable": true})
	default:
		log.Error().Err(err).Msg("extract failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "extraction failed"})
	}
}

func (s *Server) createPosting(c *gin.Context) {
	var req posting.NewPosting
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	p, err := s.Store.Create(c.Request.Context(), req)
	if errors.Is(err, store.ErrInvalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("create posting failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create posting"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) listPostings(c *gin.Context) {
	f := store.Filter{
		Site:     c.Query("site"),
		Category: c.Query("category"),
		Client:   c.Query("client"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		f.Limit = n
	}
	items, err := s.Store.List(c.Request.Context(), f)
	if err != nil {
		log.Error().Err(err).Msg("list postings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list postings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) getPosting(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.Store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get posting failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get posting"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
