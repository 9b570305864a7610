package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/projectsquall/battle-server-go/internal/ai"
	"github.com/projectsquall/battle-server-go/internal/catalog"
	"github.com/projectsquall/battle-server-go/internal/config"
	"github.com/projectsquall/battle-server-go/internal/game"
	"github.com/projectsquall/battle-server-go/internal/repository"
	"github.com/projectsquall/battle-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting battle server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	cardCatalog, err := catalog.Load(cfg.Engine.CardCatalogPath)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.String("path", cfg.Engine.CardCatalogPath),
		zap.Int("cards", cardCatalog.Len()),
	)

	var store *repository.MatchStore
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		store = repository.NewMatchStore(db)
	} else {
		logger.Warn("no database configured; matches are in-memory only")
	}

	cache, err := repository.NewSnapshotCache(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	if cache != nil {
		defer cache.Close()
		logger.Info("snapshot cache ready", zap.String("address", cfg.Redis.Address))
	}

	engine := game.NewEngine(logger, game.Options{
		HeroDefaultDamage: cfg.Engine.HeroDefaultAbility,
		ValidateDecks:     cfg.Engine.ValidateDecks,
		DeckMinSize:       cfg.Engine.DeckMinSize,
		DeckMaxSize:       cfg.Engine.DeckMaxSize,
		MaxAIActions:      cfg.Engine.MaxAIActions,
	})

	policy := ai.NewPolicy(logger)

	srv := server.New(cfg.Server, engine, cardCatalog, store, cache, policy, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}

	logger.Info("battle server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
