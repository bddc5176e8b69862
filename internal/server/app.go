// Package server wires the play tracker's storage, metadata lookup and HTTP
// API together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/blobstore"
	"github.com/dmitrijs2005/playtracker/internal/server/config"
	"github.com/dmitrijs2005/playtracker/internal/server/httpapi"
	"github.com/dmitrijs2005/playtracker/internal/server/lookup"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/playtracker/internal/server/scheduler"
	"github.com/dmitrijs2005/playtracker/internal/server/services"
)

// Core is the storage-backed part shared by the server and the console.
type Core struct {
	DB      *sql.DB
	Cache   *lookup.RedisCache
	Tracker *services.TrackerService
}

// OpenCore connects to the database, applies migrations and builds the
// tracker service with its blob store and metadata client.
func OpenCore(ctx context.Context, c *config.Config, logger logging.Logger) (*Core, error) {
	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	core := &Core{DB: db}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		core.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, c)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	opts := []lookup.Option{
		lookup.WithTimeout(c.MetadataTimeout),
		lookup.WithRetryDelay(c.MetadataRetryDelay),
		lookup.WithLimit(c.SearchLimit),
	}
	if c.RedisURL != "" {
		cache, err := lookup.NewRedisCache(ctx, c.RedisURL, c.MetadataCacheTTL)
		if err != nil {
			core.Close()
			return nil, fmt.Errorf("details cache init error: %w", err)
		}
		core.Cache = cache
		opts = append(opts, lookup.WithCache(cache))
	}
	client := lookup.NewClient(c.MetadataBaseURL, logger.With("component", "lookup"), opts...)

	core.Tracker = services.NewTrackerService(db, rm, blobs, client, c, logger.With("component", "tracker"))
	return core, nil
}

func (c *Core) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	core      *Core
	http      *httpapi.Server
	scheduler *scheduler.Scheduler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, err
	}

	core, err := OpenCore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, core: core}

	if c.ReconcileInterval > 0 {
		app.scheduler, err = scheduler.New(c.ReconcileInterval, core.Tracker, logger.With("component", "scheduler"))
		if err != nil {
			core.Close()
			return nil, err
		}
	}

	checks := map[string]httpapi.HealthCheck{"db": core.DB.PingContext}
	if core.Cache != nil {
		checks["redis"] = core.Cache.Ping
	}

	app.http = httpapi.New(httpapi.Options{
		Addr:          c.HTTPAddr,
		SecretKey:     []byte(c.SecretKey),
		MaxImageBytes: c.MaxImageBytes,
		HealthChecks:  checks,
	}, logger.With("component", "http"), core.Tracker)

	return app, nil
}

// Run blocks until ctx is cancelled, SIGINT/SIGTERM arrives or the HTTP
// server fails, then shuts everything down.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr)

	if app.scheduler != nil {
		app.scheduler.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.http.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(context.Background(), "Shutting down...")
		return app.http.Shutdown(context.Background())
	})

	err := g.Wait()

	if app.scheduler != nil {
		if serr := app.scheduler.Shutdown(); serr != nil {
			app.logger.Warn(context.Background(), "scheduler shutdown", "error", serr.Error())
		}
	}
	app.core.Close()
	return err
}
