// Package server wires configuration, storage, audit sinks and services
// together and runs the HTTP API next to the gRPC health endpoint until the
// process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/compliancebinder/internal/buildinfo"
	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/audit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/auth"
	"github.com/dmitrijs2005/compliancebinder/internal/server/config"
	"github.com/dmitrijs2005/compliancebinder/internal/server/httpapi"
	"github.com/dmitrijs2005/compliancebinder/internal/server/ratelimit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/compliancebinder/internal/server/services"
	"github.com/dmitrijs2005/compliancebinder/internal/server/storage"

	gs "github.com/dmitrijs2005/compliancebinder/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
	monitor *services.Monitor
	closers []io.Closer
}

// NewApp opens the database, applies migrations and builds every service.
// Resources opened before a failure are released.
func NewApp(ctx context.Context, c *config.Config) (app *App, err error) {
	return newApp(ctx, c, logging.New(os.Stdout, c.LogLevel, c.LogFormat))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (_ *App, err error) {
	app := &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			app.close(ctx)
		}
	}()

	logger.Info(ctx, "Initializing", "build", buildinfo.String(), "env", c.Env)
	if c.EphemeralSecret {
		logger.Warn(ctx, "SECRET_KEY not set, using a random key; tokens will not survive a restart")
	}

	db, dialect, err := dbx.Open(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db)

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := app.newStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var rdb *redis.Client
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
		app.closers = append(app.closers, rdb)
	}

	sink, err := app.newAuditSink(db, rm, rdb)
	if err != nil {
		return nil, fmt.Errorf("audit init error: %w", err)
	}

	var limiter ratelimit.Limiter = ratelimit.NewInMemory(c.LoginRateWindow)
	if rdb != nil {
		limiter = ratelimit.NewRedis(rdb, c.LoginRateWindow)
	}

	deps := services.Deps{
		DB:          db,
		RepoManager: rm,
		Audit:       audit.NewRecorder(sink, logger),
	}
	tokens := auth.NewTokenManager(c.SecretKey, c.AccessTokenTTL)
	guard := services.NewGuard(deps, tokens)
	policy := services.UploadPolicy{MaxSizeBytes: c.MaxUploadSizeBytes, AllowedContentTypes: c.AllowedContentTypes}

	app.monitor = services.NewMonitor(deps, store, logger)
	api := httpapi.New(httpapi.Services{
		Guard:     guard,
		Users:     services.NewUserService(deps, auth.NewBcryptHasher(c.BcryptCost), tokens, limiter, c.LoginRateLimit),
		Binders:   services.NewBinderService(deps, guard),
		Tasks:     services.NewTaskService(deps, guard),
		Documents: services.NewDocumentService(deps, guard, store, policy, logger),
		Reports:   services.NewReportService(deps, guard),
		Monitor:   app.monitor,
	}, logger, httpapi.Options{AllowedOrigins: c.AllowedOrigins})
	app.handler = api.Routes()

	return app, nil
}

func (app *App) newStore(ctx context.Context) (storage.Store, error) {
	c := app.config
	switch c.StorageBackend {
	case config.StorageS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
			Prefix:       c.S3Prefix,
		})
	default:
		s, err := storage.NewLocalStore(c.UploadDir)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, s)
		return s, nil
	}
}

// newAuditSink fans events out to every configured sink.
func (app *App) newAuditSink(db *sql.DB, rm repomanager.RepositoryManager, rdb *redis.Client) (audit.Sink, error) {
	c := app.config
	var sinks audit.Multi
	for _, name := range c.AuditSinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, audit.NewLogSink(app.logger))
		case config.SinkDB:
			sinks = append(sinks, audit.NewDBSink(db, rm.AuditLog))
		case config.SinkRedis:
			if rdb == nil {
				return nil, errors.New("redis audit sink needs REDIS_ADDR")
			}
			sinks = append(sinks, audit.NewRedisSink(rdb, c.AuditStream))
		case config.SinkKafka:
			k, err := audit.NewKafkaSink(audit.KafkaConfig{Brokers: c.KafkaBrokers, Topic: c.KafkaTopic})
			if err != nil {
				return nil, err
			}
			app.closers = append(app.closers, k)
			sinks = append(sinks, k)
		default:
			return nil, fmt.Errorf("unknown audit sink %q", name)
		}
	}
	return sinks, nil
}

// Handler is the HTTP API with all middleware applied.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := httpapi.NewServer(app.config.HTTPAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.monitor, 0)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then releases every resource. The first server error is returned.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	keep := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		keep(app.startHTTPServer(ctx, cancelFunc))
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keep(app.startGRPCServer(ctx, cancelFunc))
		}()
	}

	wg.Wait()

	app.close(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "App stopped")

	return firstErr
}

// Close releases the resources of an App that was never Run.
func (app *App) Close() {
	app.close(context.Background())
}

// close releases resources in reverse order of acquisition.
func (app *App) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(ctx, "close failed", "error", err)
		}
	}
	app.closers = nil
}
