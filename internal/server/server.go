// Package server is the HTTP route layer: request binding, response
// envelopes, and SSE delivery. All domain behavior lives below it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lingo/internal/config"
	"lingo/internal/logging"
	"lingo/internal/metrics"
	"lingo/internal/store"
	"lingo/internal/task"
)

// Server wires the route layer over the orchestrator and store.
type Server struct {
	orch    *task.Orchestrator
	kv      store.KV
	aiName  string
	logger  logging.Logger
	metrics *metrics.Metrics

	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the server and registers all routes. aiName is the configured
// default provider, reported by the health endpoint.
func New(cfg config.ServerConfig, aiName string, orch *task.Orchestrator, kv store.KV, logger logging.Logger, m *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		orch:    orch,
		kv:      kv,
		aiName:  aiName,
		logger:  logging.WithComponent(logger, "server"),
		metrics: m,
		engine:  engine,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")

	api.POST("/translate", s.handleTranslate)
	api.POST("/translate/async", s.handleTranslateAsync)
	api.POST("/translate/stream", s.handleTranslateStream)

	api.POST("/summarize", s.handleSummarize)
	api.POST("/summarize/async", s.handleSummarizeAsync)
	api.POST("/summarize/stream", s.handleSummarizeStream)

	api.GET("/task/:task_id", s.handleGetTask)
	api.GET("/functions", s.handleGetFunctions)
	api.GET("/health", s.handleHealth)

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop() error {
	s.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
