// Package httpapi exposes the job, report and technical-analysis endpoints
// over gin. The web layer stays thin: validation plus error-to-status
// mapping, all behavior lives in the services it wraps.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gatilho/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server hosts the HTTP API.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig lists the handler dependencies.
type ServerConfig struct {
	Addr        string
	Jobs        JobService
	Artifacts   ArtifactStore
	TradingView TASummarizer
	Assets      AssetLister // optional
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Jobs == nil {
		return nil, errors.New("http server requires the job service")
	}
	if cfg.Artifacts == nil {
		return nil, errors.New("http server requires the artifact store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := &handlers{jobs: cfg.Jobs, artifacts: cfg.Artifacts, tradingview: cfg.TradingView, assets: cfg.Assets}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api")
	api.POST("/sources/:source/extract", h.handleExtract)
	api.POST("/sources/:source/analyze", h.handleAnalyze)
	api.GET("/jobs", h.handleJobs)
	api.GET("/jobs/history", h.handleJobHistory)
	api.GET("/jobs/:id", h.handleJobStatus)
	api.GET("/reports", h.handleReportList)
	api.GET("/reports/:name", h.handleReportDownload)
	api.POST("/tradingview/summary", h.handleTASummary)
	api.GET("/tradingview/search", h.handleTASearch)
	api.GET("/binance/assets", h.handleAssets)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[http] listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("[http] %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Truncate(time.Millisecond))
	}
}
