package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finsync/internal/amqp"
	"finsync/internal/auth"
	"finsync/internal/config"
	apphttp "finsync/internal/http"
	"finsync/internal/notify"
	"finsync/internal/realtime"
	"finsync/internal/services"
	"finsync/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without a broker the API still works, the
	// spreadsheet mirror just stays behind.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	// Discord fraud notifications are optional as well.
	var notifier services.FraudNotifier
	if cfg.DiscordBotToken != "" {
		discord, err := notify.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			logger.Error("Failed to initialize Discord notifier", "error", err)
			os.Exit(1)
		}
		defer discord.Close()
		notifier = discord
		logger.Info("Discord fraud notifications enabled", "channel", cfg.DiscordChannelID)
	} else {
		logger.Info("Discord notifications disabled - no DISCORD_BOT_TOKEN provided")
	}

	hub := realtime.NewHub()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 24*time.Hour)

	svcs := apphttp.Services{
		Transactions: services.NewTransactionService(repo, publisher, hub, notifier),
		Budgets:      services.NewBudgetService(repo, hub),
		Goals:        services.NewGoalService(repo, hub),
		Investments:  services.NewInvestmentService(repo, hub),
		Analytics:    services.NewAnalyticsService(repo),
		Users:        services.NewUserService(repo, hub),
		Admin:        services.NewAdminService(repo),
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, tokens, hub, svcs, cfg.AllowedOrigins, cfg.TrendMonths)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 120 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting finsync server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
