// Package server exposes the battle engine over HTTP and streams match
// events over websockets.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/projectsquall/battle-server-go/internal/catalog"
	"github.com/projectsquall/battle-server-go/internal/config"
	"github.com/projectsquall/battle-server-go/internal/game"
	"github.com/projectsquall/battle-server-go/internal/repository"
)

// AIPlayerIndex is the side the rule-based policy controls in PVE matches.
const AIPlayerIndex = 2

// Server wires the engine, card catalog, persistence, and AI policy behind
// the HTTP surface.
type Server struct {
	engine  *game.Engine
	catalog *catalog.Catalog
	store   *repository.MatchStore
	cache   *repository.SnapshotCache
	policy  game.ActionPolicy
	hub     *Hub
	logger  *zap.Logger
	cfg     config.ServerConfig
}

// New assembles a server. The store and cache may be nil for in-memory
// operation (tests, local play).
func New(
	cfg config.ServerConfig,
	engine *game.Engine,
	cat *catalog.Catalog,
	store *repository.MatchStore,
	cache *repository.SnapshotCache,
	policy game.ActionPolicy,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		catalog: cat,
		store:   store,
		cache:   cache,
		policy:  policy,
		hub:     NewHub(logger),
		logger:  logger,
		cfg:     cfg,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/health", s.handleHealth)
	r.POST("/battle/start", s.handleStart)
	r.POST("/battle/action", s.handleAction)
	r.POST("/battle/resolve-trigger", s.handleResolveTrigger)
	r.POST("/battle/ai-turn", s.handleAITurn)
	r.GET("/battle/:match_id", s.handleGetState)
	r.GET("/ws/:match_id", s.handleWebSocket)
	return r
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps engine errors onto HTTP status codes and a structured
// body the client can act on.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, game.ErrMatchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrPendingTrigger):
		status = http.StatusConflict
	case errors.Is(err, game.ErrMatchCompleted):
		status = http.StatusConflict
	}

	body := gin.H{"error": err.Error()}
	var ruleErr *game.RuleError
	if errors.As(err, &ruleErr) {
		body["kind"] = ruleErr.Kind.Error()
		if ruleErr.Reason != "" {
			body["reason"] = ruleErr.Reason
		}
		if len(ruleErr.Details) > 0 {
			body["details"] = ruleErr.Details
		}
	}
	c.JSON(status, body)
}
