// Package adminapi serves the JSON admin API: health, the settings page,
// the purge preview and Prometheus metrics.
package adminapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/purge"
	"github.com/aatumaykin/subpurge/internal/settings"
)

// SettingsService is the part of the settings accessor the API needs.
type SettingsService interface {
	Page(ctx context.Context) settings.Page
	UpdateAll(ctx context.Context, input any) (settings.Settings, bool)
}

// Previewer lists upcoming purges.
type Previewer interface {
	Preview(ctx context.Context) ([]purge.Upcoming, error)
}

// Server is the admin HTTP server.
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	listener net.Listener
	logger   *logger.Logger
}

// New builds the router. gatherer may be nil to disable /metrics.
func New(addr string, svc SettingsService, preview Previewer, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	engine.GET("/healthz", HandleHealthGET())

	api := engine.Group("/api")
	api.GET("/settings", HandleSettingsGET(svc))
	api.PUT("/settings", HandleSettingsPUT(svc, log))
	api.GET("/preview", HandlePreviewGET(preview, log))

	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Handler exposes the router (tests).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("admin api listen %s: %w", s.http.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin api stopped", err)
		}
	}()

	s.logger.Info("admin api listening", logger.Field{Key: "addr", Value: ln.Addr().String()})
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.http.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("admin api request",
			logger.Field{Key: "method", Value: c.Request.Method},
			logger.Field{Key: "path", Value: c.FullPath()},
			logger.Field{Key: "status", Value: c.Writer.Status()},
			logger.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	}
}
