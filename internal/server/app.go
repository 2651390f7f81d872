// Package server wires the sync service together: logging, the identity
// store and its migrations, the object store, and the HTTP and gRPC
// transports. Run blocks until the context is cancelled or a transport
// fails.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/tuidosync/internal/filex"
	"github.com/dmitrijs2005/tuidosync/internal/logging"
	"github.com/dmitrijs2005/tuidosync/internal/server/auth"
	"github.com/dmitrijs2005/tuidosync/internal/server/config"
	"github.com/dmitrijs2005/tuidosync/internal/server/httpapi"
	"github.com/dmitrijs2005/tuidosync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tuidosync/internal/server/services"
	"github.com/dmitrijs2005/tuidosync/internal/server/storage"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/tuidosync/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	logCloser  io.Closer
	httpServer *httpapi.HTTPServer
	grpcServer *gs.GRPCServer
}

// newS3Store is a seam for tests.
var newS3Store = func(ctx context.Context, cfg storage.S3Config) (storage.Store, error) {
	return storage.NewS3StoreFromConfig(ctx, cfg)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := filex.EnsureParentDir(c.LogFile); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	logger, logCloser, err := logging.New(logging.Options{
		Level:      c.LogLevel,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger, logCloser: logCloser}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return err
	}

	if rm.Driver() == repomanager.DriverSQLite {
		if err := filex.EnsureParentDir(filex.SQLiteFilePath(c.DatabaseDSN)); err != nil {
			return fmt.Errorf("db dir: %w", err)
		}
	}

	app.db, err = repomanager.Open(ctx, rm, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	store, err := app.newStore(ctx)
	if err != nil {
		return fmt.Errorf("object store init error: %w", err)
	}

	secret := []byte(c.SecretKey)
	authn := auth.NewAuthenticator(rm.Users(app.db), secret)
	syncService := services.NewSyncService(authn, store, app.logger)
	userService := services.NewUserService(app.db, rm, secret)

	app.httpServer = httpapi.NewHTTPServer(c.HTTPAddr, app.logger, syncService, userService, c.MaxUploadBytes)
	if c.GRPCAddr != "" {
		app.grpcServer = gs.NewGRPCServer(c.GRPCAddr, app.logger, syncService, int(c.MaxUploadBytes))
	}
	return nil
}

func (app *App) newStore(ctx context.Context) (storage.Store, error) {
	c := app.config
	switch c.ObjectStore {
	case config.ObjectStoreMemory:
		app.logger.Warn(ctx, "using in-memory object store, snapshots are lost on restart")
		return storage.NewMemoryStore(), nil
	case config.ObjectStoreS3:
		return newS3Store(ctx, storage.S3Config{
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Region:        c.S3Region,
			Endpoint:      c.S3Endpoint,
			Bucket:        c.S3Bucket,
			Prefix:        c.S3Prefix,
			PresignExpiry: c.PresignExpiry,
		})
	default:
		return nil, fmt.Errorf("unknown object store %q", c.ObjectStore)
	}
}

// Run serves both transports until ctx is cancelled. The first transport
// error cancels the other one.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...",
		"http", app.config.HTTPAddr,
		"grpc", app.config.GRPCAddr,
		"db", app.config.DatabaseDriver,
		"store", app.config.ObjectStore)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.httpServer.Run(ctx)
	})
	if app.grpcServer != nil {
		g.Go(func() error {
			return app.grpcServer.Run(ctx)
		})
	}

	err := g.Wait()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return err
}

// Close releases the database and the log file.
func (app *App) Close() error {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.logCloser != nil {
		errs = append(errs, app.logCloser.Close())
	}
	return errors.Join(errs...)
}
