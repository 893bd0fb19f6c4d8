package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hub/internal/config"
	"github.com/MrSnakeDoc/hub/internal/httpserver"
	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/index"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/metrics"
	"github.com/MrSnakeDoc/hub/internal/redis"
	"github.com/MrSnakeDoc/hub/internal/scheduler"
	"github.com/MrSnakeDoc/hub/internal/session"
	"github.com/MrSnakeDoc/hub/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/hub/internal/store/redis"
	"github.com/MrSnakeDoc/hub/internal/utils"
	"github.com/MrSnakeDoc/hub/internal/version"
)

// snapshotStore is what the app needs from either snapshot backend.
type snapshotStore interface {
	session.Store
	deps.Pinger
}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	memIndex    *index.MemoryIndex
	sessions    *session.Registry
	reloader    *scheduler.CorpusReloader
	watcher     *scheduler.FileWatcher // nil when watching is disabled
	janitor     *scheduler.SessionJanitor
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	metrics.Register()

	// Snapshot store: Redis when configured, memory otherwise.
	var (
		redisClient *goredis.Client
		store       snapshotStore
		pruner      scheduler.IndexPruner
		backend     string
	)
	if cfg.UseRedis() {
		redisClient, err = redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		rs := redisstore.NewStore(redisClient, cfg.SnapshotTTL)
		store, pruner, backend = rs, rs, "redis"
	} else {
		loggerClient.Warn("HUB_REDIS_ADDR not set, workspaces are kept in memory only")
		store, backend = memory.NewStore(), "memory"
	}

	memIndex := index.NewMemoryIndex()

	sessions := session.NewRegistry(store, memIndex, loggerClient.Named("session"),
		session.WithWriteTimeout(cfg.SnapshotWriteTimeout))

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewCorpusReloader(
		cfg.CorpusFile,
		memIndex,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	var watcher *scheduler.FileWatcher
	if cfg.WatchCorpus {
		watcher = scheduler.NewFileWatcher(cfg.CorpusFile, cfg.WatchDebounce, reloader.FileChanged, loggerClient)
	}

	janitor := scheduler.NewSessionJanitor(
		sessions,
		pruner,
		loggerClient,
		cfg.JanitorInterval,
		cfg.SessionIdle,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CorpusFile:     cfg.CorpusFile,
		Index:          memIndex,
		Sessions:       sessions,
		Store:          store,
		StoreBackend:   backend,
		DefaultRole:    cfg.DefaultRole,
		DefaultSession: cfg.DefaultSession,
		SearchLimit:    cfg.SearchLimit,
		ReloadTrigger:  reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		memIndex:    memIndex,
		sessions:    sessions,
		reloader:    reloader,
		watcher:     watcher,
		janitor:     janitor,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting hub %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the corpus and start periodic refresh
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start corpus reloader: %w", err)
	}
	a.logger.Info("corpus reloader started",
		logger.String("file", a.cfg.CorpusFile),
		logger.Duration("interval", a.cfg.ReloadInterval))

	// A broken watch only loses hot reload; /reload and the ticker still work.
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn("corpus file watch disabled", logger.Error(err))
			a.watcher = nil
		}
	}

	if err := a.janitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session janitor: %w", err)
	}
	a.logger.Info("session janitor started",
		logger.Duration("interval", a.cfg.JanitorInterval),
		logger.Duration("idle", a.cfg.SessionIdle))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.reloader.Stop()
	a.janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Write what the last requests changed before the store goes away.
	if err := a.sessions.Flush(shutdownCtx); err != nil {
		a.logger.Error("failed to flush sessions on shutdown", logger.Error(err))
	}

	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ hub stopped cleanly")
	return nil
}
