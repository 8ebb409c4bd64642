package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rustyeddy/paperbroker/api"
	"github.com/rustyeddy/paperbroker/auth"
	"github.com/rustyeddy/paperbroker/config"
	"github.com/rustyeddy/paperbroker/engine"
	"github.com/rustyeddy/paperbroker/feed"
	"github.com/rustyeddy/paperbroker/ledger"
	"github.com/rustyeddy/paperbroker/quotes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the broker API server",
	Long: `Start the HTTP API backed by the configured ledger store and quote
provider. Settings come from defaults, an optional config file, and
environment variables, in that order.

Example:
  paperbroker serve --config broker.yaml`,
	RunE: runServe,
}

var serveConfigPath string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client := quotes.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.APIKey, cfg.Quotes.Timeout.Std())
	cache := quotes.NewCache(client, cfg.Quotes.PriceTTL.Std(), cfg.Quotes.ProfileTTL.Std())

	eng := engine.New(store, cache, logger)

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()
	eng.SetFeed(publisher)

	sessions := auth.NewSessions(cfg.Auth.SessionTTL.Std(), cfg.Auth.SweepInterval.Std())
	defer sessions.Close()

	google := auth.NewGoogle(auth.GoogleConfig{
		ClientID:     cfg.Auth.GoogleClientID,
		ClientSecret: cfg.Auth.GoogleClientSecret,
		RedirectURL:  cfg.Auth.RedirectURL,
	})

	server := api.NewServer(eng, store, sessions, google, logger, api.Config{
		FrontendURL:  cfg.Server.FrontendURL,
		StartingCash: cfg.Account.StartingCash,
		CookieTTL:    cfg.Auth.SessionTTL.Std(),
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.R,
	}

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	if cfg.Store.Driver == "postgres" {
		return ledger.NewPostgres(ctx, cfg.Store.DSN)
	}
	return ledger.NewSQLite(cfg.Store.DSN)
}

func newPublisher(cfg *config.Config, logger *zap.Logger) feed.Publisher {
	if !cfg.Feed.Enabled {
		return feed.Nop{}
	}

	if err := feed.EnsureTopic(cfg.Feed.Brokers[0], cfg.Feed.Topic, 1); err != nil {
		logger.Warn("ensure feed topic", zap.Error(err))
	}
	return feed.NewKafka(cfg.Feed.Brokers, cfg.Feed.Topic, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
