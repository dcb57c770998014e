package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/logging"
	"loopsleuth/internal/review"
	"loopsleuth/internal/scanner"
)

// ScanRunner starts scans and reports their progress.
type ScanRunner interface {
	IngestAsync(ctx context.Context, req scanner.Request) (<-chan scanner.Result, error)
	Progress() scanner.Progress
}

// Catalog is the read surface the API serves.
type Catalog interface {
	ListClips(ctx context.Context) ([]*catalog.Clip, error)
	DuplicateGroups(ctx context.Context) ([]catalog.DuplicateGroup, error)
}

// ReviewResolver applies review actions.
type ReviewResolver interface {
	Resolve(ctx context.Context, duplicateID int64, action review.Action, canonicalID *int64) (review.State, error)
}

// Server serves the JSON API.
type Server struct {
	bind     string
	logger   *slog.Logger
	scans    ScanRunner
	catalog  Catalog
	resolver ReviewResolver

	router   *gin.Engine
	baseCtx  context.Context
	listener net.Listener
	server   *http.Server
}

// NewServer wires the routes. Scans started over HTTP run under the context
// passed to Start, not the request context.
func NewServer(bind string, scans ScanRunner, store Catalog, resolver ReviewResolver, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		bind:     strings.TrimSpace(bind),
		logger:   logging.NewComponentLogger(logger, "api"),
		scans:    scans,
		catalog:  store,
		resolver: resolver,
		baseCtx:  context.Background(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	group := r.Group("/api")
	group.GET("/progress", s.handleProgress)
	group.POST("/scans", s.handleStartScan)
	group.GET("/clips", s.handleClips)
	group.GET("/duplicates", s.handleDuplicates)
	group.POST("/duplicates/:id/resolve", s.handleResolve)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	})
	s.router = r

	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.baseCtx = ctx

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("api request",
			logging.String("method", c.Request.Method),
			logging.String("route", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}
