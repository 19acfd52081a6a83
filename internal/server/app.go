// Package server wires the Keepsake server together: database and
// migrations, the entry feed, archive storage, services and the gRPC
// endpoint, and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/invite"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/reveal"
	"github.com/dmitrijs2005/keepsake/internal/server/config"
	"github.com/dmitrijs2005/keepsake/internal/server/feed"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keepsake/internal/server/services"
	"github.com/dmitrijs2005/keepsake/internal/server/storage"
	"github.com/dmitrijs2005/keepsake/internal/timex"

	gs "github.com/dmitrijs2005/keepsake/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	hub        *feed.Hub
	identities *services.IdentityService
	entries    *services.EntryService
	archives   *services.ArchiveService
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// newObjectStore is a seam for tests.
var newObjectStore = func(ctx context.Context, opts storage.Options) (services.ObjectStore, error) {
	return storage.NewS3Store(ctx, opts)
}

// NewApp opens the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	loc, err := timex.LoadLocation(c.RevealLocation)
	if err != nil {
		return nil, fmt.Errorf("reveal location: %w", err)
	}
	deadline, err := timex.ParseDeadline(c.RevealDeadline, loc)
	if err != nil {
		return nil, fmt.Errorf("reveal deadline: %w", err)
	}
	clock := reveal.NewClock(deadline)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := newObjectStore(ctx, storage.Options{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}

	hub := feed.NewHub()
	var notifier feed.Notifier = hub
	if c.FeedMode == config.FeedModeListen {
		notifier = feed.NewPGNotifier(db)
	}

	ids := services.NewIdentityService(db, rm, invite.NewGenerator(nil), logger)
	es := services.NewEntryService(db, rm, notifier, hub, logger)
	as := services.NewArchiveService(es, store, clock, c.ArchiveLinkValidity, logger)

	logger.Info(ctx, "reveal clock set", "deadline", deadline.String(), "phase", clock.Phase(time.Now()).String())

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		hub:        hub,
		identities: ids,
		entries:    es,
		archives:   as,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.identities, app.entries, app.archives,
		app.config.SecretKey, app.config.AllowedEmailDomain)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startFeedListener(ctx context.Context) {
	if app.config.FeedMode != config.FeedModeListen {
		app.logger.Info(ctx, "feed is in-process only", "mode", app.config.FeedMode)
		return
	}
	l := feed.NewPGListener(app.config.DatabaseDSN, app.hub, app.logger)
	if err := l.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startFeedListener(ctx)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
