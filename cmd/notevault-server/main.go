// Package main is the entry point for the NoteVault server.
// NoteVault is a personal notes service with session authentication and
// strict per-user ownership of notes and attachments.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	memorycache "github.com/halverson/notevault/internal/cache/memory"
	rediscache "github.com/halverson/notevault/internal/cache/redis"
	"github.com/halverson/notevault/internal/config"
	"github.com/halverson/notevault/internal/handler"
	"github.com/halverson/notevault/internal/lock"
	"github.com/halverson/notevault/internal/metrics"
	"github.com/halverson/notevault/internal/repository"
	"github.com/halverson/notevault/internal/repository/postgres"
	"github.com/halverson/notevault/internal/repository/sqlite"
	"github.com/halverson/notevault/internal/service"
	"github.com/halverson/notevault/internal/session"
	"github.com/halverson/notevault/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting NoteVault server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	repos, health, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer health.Close()

	// Session cache and note locks: Redis when enabled, in-memory otherwise.
	var (
		sessionCache repository.Cache
		noteLocks    repository.DistributedLock
	)
	if cfg.Redis.Enabled {
		rc, err := rediscache.NewCache(rediscache.Config{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer rc.Close()
		sessionCache = rc
		noteLocks = lock.NewRedisLock(rc.Client(), "lock:")
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("Using Redis for sessions and locks")
	} else {
		mc := memorycache.NewCache()
		defer mc.Stop()
		sessionCache = mc
		noteLocks = lock.NewMemoryLock()
		logger.Info().Msg("Using in-memory sessions and locks")
	}

	// Blob storage
	blobs, err := openBlobStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Metrics
	m := metrics.New()

	// Services
	sessions := session.NewManager(sessionCache, cfg.Session.TTL, logger)
	authService := service.NewAuthService(repos.User, m, logger)
	userService := service.NewUserService(repos.User, repos.Note, m, logger)
	noteService := service.NewNoteService(repos.Note, noteLocks, m, logger)
	attachmentService := service.NewAttachmentService(
		repos.Attachment, repos.Note, blobs, cfg.Storage.MaxAttachmentSize, logger)

	// Garbage collection
	if cfg.GC.Enabled {
		gc := service.NewGCService(repos.Attachment, blobs, service.GCConfig{
			Interval:    cfg.GC.Interval,
			GracePeriod: cfg.GC.GracePeriod,
			BatchSize:   cfg.GC.BatchSize,
			DryRun:      cfg.GC.DryRun,
		}, logger)
		gc.Start(ctx)
		defer gc.Stop()
	}

	// HTTP layer
	renderer, err := handler.NewRenderer(logger)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	mw := handler.NewMiddleware(sessions, cfg.Session.CookieName, m, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Middleware: mw,
		AuthHandler: handler.NewAuthHandler(handler.AuthHandlerConfig{
			AuthService:  authService,
			Sessions:     sessions,
			Renderer:     renderer,
			CookieName:   cfg.Session.CookieName,
			CookieSecure: cfg.Session.CookieSecure,
			SessionTTL:   cfg.Session.TTL,
			Logger:       logger,
		}),
		UserHandler: handler.NewUserHandler(handler.UserHandlerConfig{
			UserService: userService,
			Sessions:    sessions,
			Renderer:    renderer,
			CookieName:  cfg.Session.CookieName,
			Logger:      logger,
		}),
		NoteHandler: handler.NewNoteHandler(handler.NoteHandlerConfig{
			NoteService:       noteService,
			AttachmentService: attachmentService,
			Renderer:          renderer,
			Logger:            logger,
		}),
		AttachmentHandler: handler.NewAttachmentHandler(handler.AttachmentHandlerConfig{
			AttachmentService: attachmentService,
			Renderer:          renderer,
			Logger:            logger,
		}),
		Health: health,
		Logger: logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      http.MaxBytesHandler(router.Handler(), cfg.Server.MaxBodySize),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Metrics server on its own port
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Str("path", cfg.Metrics.Path).Msg("Metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// openDatabase connects to the configured database backend and runs
// migrations.
func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate PostgreSQL: %w", err)
		}
		return &repository.Repositories{
			User:       postgres.NewUserRepository(db),
			Note:       postgres.NewNoteRepository(db),
			Attachment: postgres.NewAttachmentRepository(db),
		}, db, nil

	case "sqlite":
		sqliteCfg := sqlite.DefaultConfig(cfg.Database.Path)
		sqliteCfg.JournalMode = cfg.Database.JournalMode
		sqliteCfg.BusyTimeout = cfg.Database.BusyTimeout
		sqliteCfg.CacheSize = cfg.Database.CacheSize
		sqliteCfg.SynchronousMode = cfg.Database.SynchronousMode

		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate SQLite: %w", err)
		}
		return &repository.Repositories{
			User:       sqlite.NewUserRepository(db),
			Note:       sqlite.NewNoteRepository(db),
			Attachment: sqlite.NewAttachmentRepository(db),
		}, db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// openBlobStorage creates the configured attachment blob backend.
func openBlobStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.BlobStorage, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.Storage.S3.Endpoint,
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			UsePathStyle:    cfg.Storage.S3.UsePathStyle,
		}, logger)
	case "filesystem":
		return storage.NewFilesystemStorage(cfg.Storage.DataDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(out)
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	return logger.Level(level).With().Timestamp().Logger()
}
