package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"hierarchstats/adapters/postgres"
	"hierarchstats/api"
	"hierarchstats/internal"
	"hierarchstats/internal/config"
	apperrors "hierarchstats/internal/errors"
	"hierarchstats/ports"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration: %v", err)
		os.Exit(1)
	}

	var repo ports.ResultRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("%v", apperrors.Wrap(err, "connecting to database"))
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			logger.Error("database schema: %v", err)
			os.Exit(1)
		}
		repo = postgres.NewResultRepository(db)
		logger.Info("result persistence enabled")
	} else {
		logger.Warn("DATABASE_URL not set; results will not be persisted")
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewServer(repo, cfg.Defaults, logger),
	}

	go func() {
		logger.Info("listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown: %v", err)
	}
}
