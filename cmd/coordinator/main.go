// Command coordinator runs the agent swarm coordinator: it watches
// task_queue for assigned tasks and executes them with specialized AI
// agents.
//
// Agents:
//   - SOLACE (OpenAI): strategy, coordination, decision-making
//   - FORGE (Claude): UI building, coding, frontend work
//   - ARCHITECT (Ollama): planning, architecture, design patterns
//   - SENTINEL (Ollama): debugging, testing, validation
//
// Usage:
//
//	coordinator [--interval SECONDS] [--debug]
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SwarmCoordinator/internal/agents"
	"SwarmCoordinator/internal/config"
	"SwarmCoordinator/internal/db"
	"SwarmCoordinator/internal/dispatch"
	"SwarmCoordinator/internal/domain"
	"SwarmCoordinator/internal/http/handler"
	"SwarmCoordinator/internal/repo"
	"SwarmCoordinator/internal/service"
	"SwarmCoordinator/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	// staleTaskTTL must exceed the agents' 120s HTTP timeout by a wide
	// margin so a reaped task is never still executing.
	staleTaskTTL   = 30 * time.Minute
	reaperInterval = time.Minute
)

func main() {
	interval := flag.Int("interval", 10, "task check interval in seconds")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("startup failed: configuration invalid")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := db.Init(initCtx, cfg.DSN())
	if err != nil {
		logger.Error().Err(err).Msg("startup failed: postgres init")
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info().Str("db", cfg.DBName).Msg("connected to Postgres")

	agentNames := []string{domain.AgentSolace, domain.AgentForge, domain.AgentArchitect, domain.AgentSentinel}
	if err := db.EnsureSchema(initCtx, pool, agentNames); err != nil {
		logger.Error().Err(err).Msg("startup failed: schema bootstrap")
		os.Exit(1)
	}

	var rdb *redis.Client
	var recorder *stats.Recorder
	if cfg.RedisURL != "" {
		rdb, err = stats.Connect(initCtx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, cycle stats mirror disabled")
		} else {
			defer rdb.Close()
			recorder = stats.NewRecorder(rdb)
			logger.Info().Msg("redis cycle stats mirror enabled")
		}
	}

	store := repo.NewStore(pool)
	registry := agents.NewRegistry(initCtx, cfg, logger)

	srv := startHTTP(cfg, store, pool, rdb, logger, *debug)

	cr := cron.New()
	reaper := dispatch.NewReaper(store, staleTaskTTL, logger)
	if err := reaper.Register(cr, reaperInterval); err != nil {
		logger.Error().Err(err).Msg("startup failed: reaper schedule")
		os.Exit(1)
	}
	cr.Start()

	dispatcher := dispatch.New(store, registry, time.Duration(*interval)*time.Second, recorder, logger)
	dispatcher.Run(ctx)

	// cooperative shutdown after the stop signal
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
	}
	<-cr.Stop().Done()
	logger.Info().Msg("coordinator stopped")
}

func startHTTP(cfg *config.Config, store *repo.Store, pool *pgxpool.Pool, rdb *redis.Client, logger zerolog.Logger, debug bool) *http.Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	h := handler.New(service.NewTaskService(store), pool, rdb)
	h.Register(r)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()
	return srv
}

// newLogger builds the process logger: JSON in production, console
// writer otherwise, debug level behind the flag.
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if os.Getenv("APP_ENV") != "production" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger
}
