package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bookstore-api/handlers"
	"bookstore-api/internal/auth"
	"bookstore-api/internal/books"
	"bookstore-api/internal/cart"
	"bookstore-api/internal/config"
	"bookstore-api/internal/favorites"
	"bookstore-api/internal/metrics"
	"bookstore-api/internal/orders"
	"bookstore-api/internal/reviews"
	"bookstore-api/internal/stores/kafka"
	"bookstore-api/internal/stores/postgres"
	"bookstore-api/internal/users"
	"bookstore-api/pkg/logkey"
)

func main() {
	setupSlog()

	if err := startApp(); err != nil {
		slog.Error("failed to start app", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	// .env is optional; in containers everything comes from the environment.
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.Info("connecting to postgres", slog.String("Host", cfg.DBHost), slog.String("Database", cfg.DBName))
	db, err := postgres.OpenDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// A broken kafka setup must not take the store down; orders still
	// commit, events are skipped.
	var events orders.Events
	kafkaConf, err := kafka.NewConf(cfg.KafkaBrokers)
	if err != nil {
		slog.Warn("kafka unavailable, order events disabled", slog.String(logkey.ERROR, err.Error()))
	} else {
		defer kafkaConf.Close()
		events = kafkaConf
	}

	keys, err := auth.NewKeys(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		return fmt.Errorf("initializing token keys: %w", err)
	}

	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	tokensConf, err := auth.NewConf(db)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(keys, tokensConf, usersConf)
	if err != nil {
		return err
	}

	booksConf, err := books.NewConf(db)
	if err != nil {
		return err
	}
	cartStore, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore)
	if err != nil {
		return err
	}
	reviewsConf, err := reviews.NewConf(db)
	if err != nil {
		return err
	}
	favoritesConf, err := favorites.NewConf(db)
	if err != nil {
		return err
	}

	ordersStore, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(ordersStore, events)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()

	h := handlers.NewHandler(authService, usersConf, booksConf, cartService,
		ordersService, reviewsConf, favoritesConf, collector)

	api := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.API(h, cfg.GinMode),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("api listening", slog.String("Addr", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info("shutting down", slog.String("Signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func setupSlog() {
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)
}
