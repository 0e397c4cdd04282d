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

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/ferrante/splitledger/internal/api"
	"github.com/ferrante/splitledger/internal/auth"
	"github.com/ferrante/splitledger/internal/service"
	"github.com/ferrante/splitledger/internal/storage/sqlite"
	"github.com/ferrante/splitledger/pkg/logging"
)

type config struct {
	port          string
	dbPath        string
	jwtSecret     string
	tokenDuration time.Duration
	cacheTTL      time.Duration
	writeRPS      float64
	writeBurst    int
}

func main() {
	cfg := config{}

	cmd := &cobra.Command{
		Use:   "splitledger",
		Short: "Group expense sharing and debt simplification server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&cfg.port, "port", envOr("PORT", "8080"), "port to listen on")
	cmd.Flags().StringVar(&cfg.dbPath, "db", envOr("DB_PATH", "data/splitledger.db"), "path to the sqlite database file")
	cmd.Flags().DurationVar(&cfg.tokenDuration, "token-duration", 24*time.Hour, "lifetime of issued auth tokens")
	cmd.Flags().DurationVar(&cfg.cacheTTL, "cache-ttl", 5*time.Minute, "ledger cache entry lifetime")
	cmd.Flags().Float64Var(&cfg.writeRPS, "write-rps", 20, "sustained write requests per second before throttling")
	cmd.Flags().IntVar(&cfg.writeBurst, "write-burst", 40, "write request burst allowance")

	if err := cmd.Execute(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	logging.Setup()

	cfg.jwtSecret = os.Getenv("JWT_SECRET")
	if cfg.jwtSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	store, err := sqlite.New(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	jwtManager := auth.NewJWTManager(cfg.jwtSecret, cfg.tokenDuration)
	cache := service.NewCache(cfg.cacheTTL)

	handler := api.NewHandler(
		service.NewAuthService(auth.NewAuthenticator(store), jwtManager),
		service.NewGroupService(store, cache),
		service.NewLedgerService(store, cache),
		service.NewSettlementService(store, cache),
	)
	router := api.NewRouter(handler, jwtManager, rate.Limit(cfg.writeRPS), cfg.writeBurst)

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.port, "db", cfg.dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
