// Copyright 2025 James Ross
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/config"
	"github.com/flyingrobots/videoapi/internal/dashboard"
	"github.com/flyingrobots/videoapi/internal/httpapi"
	"github.com/flyingrobots/videoapi/internal/janitor"
	"github.com/flyingrobots/videoapi/internal/jobservice"
	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/obs"
	"github.com/flyingrobots/videoapi/internal/queue"
	"github.com/flyingrobots/videoapi/internal/ratelimit"
	"github.com/flyingrobots/videoapi/internal/scheduler"
	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/videoservice"
	"github.com/flyingrobots/videoapi/internal/worker"
)

var version = "dev"

// backingStore is what main needs from the shared store: the full Store
// contract plus the janitor's periodic prune hook. Both MemoryStore and
// FallbackStore satisfy it; a bare RedisStore is never used standalone
// since Redis keys expire natively.
type backingStore interface {
	store.Store
	janitor.Pruner
}

func main() {
	var configPath string
	var showVersion bool
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&configPath, "config", "config/config.yaml", "Path to YAML config")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	backing, healthCheck, closeStore := buildStore(cfg, logger)
	defer closeStore()

	httpSrv := obs.StartHTTPServer(cfg, healthCheck)
	defer func() { _ = httpSrv.Shutdown(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
		cancel()
		select {
		case sig2 := <-sigCh:
			logger.Warn("second signal received, exiting immediately", obs.String("signal", sig2.String()))
			os.Exit(1)
		case <-time.After(10 * time.Second):
		}
	}()

	limiter := ratelimit.New(backing)
	pq := queue.New(backing)
	sched := scheduler.New(pq)

	jobs := jobstore.NewJobCollection()
	videos := jobstore.NewCollection[*jobstore.Video]()
	usage := jobstore.NewUsageStore(backing)

	jobSvc := jobservice.New(jobs, usage, sched, logger)
	videoSvc := videoservice.New(videos)

	generator := worker.NewMockGenerator()
	wrk := worker.New(cfg, jobs, videos, usage, sched, generator, logger)
	go wrk.Run(ctx)

	auth := httpapi.NewMockAuth()
	dash := dashboard.New(sched, jobs, limiter, auth, cfg.Dashboard.PushInterval, logger)
	go dash.Run(ctx)

	obs.StartQueueLengthUpdater(ctx, 5*time.Second, func() map[string]int {
		lengths := map[string]int{}
		stats, err := sched.Stats(ctx)
		if err != nil {
			return lengths
		}
		for _, p := range store.Priorities {
			lengths[string(p)] = stats[p].Length
		}
		return lengths
	}, logger)

	jan, err := janitor.New(cfg.Janitor.Schedule, cfg.Janitor.MaxWindowAge, backing, logger)
	if err != nil {
		logger.Fatal("failed to build janitor", obs.Err(err))
	}
	jan.Start()
	defer jan.Stop()

	auditLog, err := obs.NewAuditLogger(cfg.Observability.AuditLogPath, 100, 5)
	if err != nil {
		logger.Fatal("failed to open audit log", obs.Err(err))
	}
	defer auditLog.Close()

	server := httpapi.New(cfg, auth, limiter, jobSvc, videoSvc, dash, auditLog, logger)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler: server.Handler(),
	}

	go func() {
		logger.Info("api server listening", obs.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", obs.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down api server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
}

// buildStore constructs the shared store per cfg.Redis: a Redis-backed
// store wrapped in the fallback adapter when a URL is configured, or a
// standalone in-process store otherwise (e.g. local development). It
// returns the constructed janitor.Pruner-compatible store, a readiness
// probe, and a close function.
func buildStore(cfg *config.Config, log *zap.Logger) (backingStore, func(context.Context) error, func()) {
	if cfg.Redis.URL == "" {
		mem := store.NewMemoryStore()
		return mem, func(context.Context) error { return nil }, func() {}
	}

	redisStore, err := store.NewRedisStore(
		cfg.Redis.URL, cfg.Redis.MaxConnections,
		cfg.Redis.DialTimeout, cfg.Redis.ReadTimeout, cfg.Redis.WriteTimeout, cfg.Redis.MaxRetries,
	)
	if err != nil {
		log.Fatal("failed to connect to redis", obs.Err(err))
	}
	fallback := store.NewFallbackStore(redisStore, log)
	return fallback, fallback.Healthy, fallback.Close
}
