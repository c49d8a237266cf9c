// The thumbnailer process consumes queued image jobs and writes resized
// variants next to the stored blobs. It shares configuration and database
// with the API server and can run on any host that mounts the same blob root.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/thumbnail"
)

const consumerGroup = "thumbnailer"

func main() {
	if err := run(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	cfg := config.LoadConfig()
	logger := logging.NewDefaultLogger(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return err
	}

	sub, err := queue.NewPostgresSubscriber(db, consumerGroup, logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	worker := thumbnail.NewWorker(db, repos, sub, blob.NewStore(cfg.FolderPath), logger)
	return worker.Run(ctx)
}
