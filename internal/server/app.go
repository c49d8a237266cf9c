// Package server initializes and runs the API server process: it opens the
// backing stores, applies migrations, wires the services and serves the
// HTTP surface until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/httpapi"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/session"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db        *sql.DB
	redis     *redis.Client
	publisher interface{ Close() error }

	router *fiber.App
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewDefaultLogger(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	publisher, err := queue.NewPostgresPublisher(db, logger)
	if err != nil {
		return nil, fmt.Errorf("queue init error: %w", err)
	}

	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)
	blobs := blob.NewStore(cfg.FolderPath)
	dispatcher := queue.NewWatermillDispatcher(publisher)

	appService := services.NewAppService(db, rdb, repos, logger)
	userService := services.NewUserService(db, repos, sessions, logger)
	fileService := services.NewFileService(db, repos, sessions, blobs, dispatcher, logger)

	router := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	httpapi.NewHandler(appService, userService, fileService).Register(router)

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		redis:     rdb,
		publisher: publisher,
		router:    router,
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

// Run serves HTTP until the context is cancelled or a termination signal
// arrives, then shuts everything down in reverse construction order.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "starting server", "addr", app.config.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.router.Listen(app.config.Addr)
	}()

	select {
	case err := <-errCh:
		app.close(ctx)
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	if err := app.router.Shutdown(); err != nil {
		app.logger.Error(ctx, "http shutdown error", "error", err)
	}
	app.close(ctx)
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "queue close error", "error", err)
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error(ctx, "redis close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
