// Package server exposes the question loop and dashboard summary over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hession/datamate/internal/agent"
	"github.com/hession/datamate/internal/store"
	"github.com/hession/datamate/internal/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Asker answers one question
type Asker interface {
	Ask(ctx context.Context, query string) *agent.Turn
}

// Options server settings
type Options struct {
	Addr     string
	Log      zerolog.Logger
	Gatherer prometheus.Gatherer // nil disables /metrics
}

// Server HTTP server
type Server struct {
	engine   *gin.Engine
	addr     string
	log      zerolog.Logger
	asker    Asker
	store    store.Store
	registry *tools.Registry
}

// QueryRequest body of POST /v1/query
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// QueryResponse body returned by POST /v1/query
type QueryResponse struct {
	Reply   string `json:"reply"`
	Outcome string `json:"outcome"`
	Tool    string `json:"tool,omitempty"`
}

// New creates the server and registers routes
func New(asker Asker, st store.Store, reg *tools.Registry, opts Options) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(AccessLog(opts.Log))

	s := &Server{
		engine:   engine,
		addr:     opts.Addr,
		log:      opts.Log,
		asker:    asker,
		store:    st,
		registry: reg,
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := engine.Group("/v1")
	v1.POST("/query", s.handleQuery)
	v1.GET("/summary", s.handleSummary)
	v1.GET("/tools", s.handleTools)

	return s
}

// Handler returns the http.Handler for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	turn := s.asker.Ask(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, QueryResponse{
		Reply:   turn.Reply,
		Outcome: string(turn.Outcome),
		Tool:    turn.Tool,
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := store.Summarize(c.Request.Context(), s.store)
	if err != nil {
		s.log.Error().Err(err).Str("request_id", GetRequestID(c)).Msg("summary failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data unavailable"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.registry.List()})
}
