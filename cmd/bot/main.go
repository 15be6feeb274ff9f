package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MatMasIt/birthdaybot/internal/bot"
	"github.com/MatMasIt/birthdaybot/internal/cache"
	"github.com/MatMasIt/birthdaybot/internal/config"
	"github.com/MatMasIt/birthdaybot/internal/conversation"
	"github.com/MatMasIt/birthdaybot/internal/db"
	"github.com/MatMasIt/birthdaybot/internal/health"
	"github.com/MatMasIt/birthdaybot/internal/reminder"
	"github.com/MatMasIt/birthdaybot/internal/repo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "birthdaybot",
		Short:        "Telegram bot that remembers birthdays and sends reminders",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), newLogger())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context(), newLogger())
		},
	})
	return root
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func migrate(ctx context.Context, log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, db.Migrations()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")
	return nil
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, db.Migrations()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	var kv cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		kv = r
	} else {
		log.Warn("REDIS_URL not set, sessions are kept in memory")
	}
	defer kv.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("bot init: %w", err)
	}

	store := repo.NewStore(pool)
	engine := conversation.New(store, conversation.NewSessionStore(kv, cfg.SessionTTL), log,
		conversation.WithLocation(cfg.Location),
		conversation.WithListLimit(cfg.ListChunkLimit),
	)
	h := bot.NewHandler(api, engine, log, cfg.SendTimeout)
	sched := reminder.New(store, h, kv, log, reminder.Config{
		MessageLimit: cfg.MessageLimit,
		SendTimeout:  cfg.SendTimeout,
		StrictDaily:  cfg.StrictDaily,
		Location:     cfg.Location,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer api.StopReceivingUpdates()
		return bot.NewDispatcher(cfg.Workers, h.HandleUpdate).Run(gctx, updates)
	})
	g.Go(func() error { return sched.Run(gctx) })
	if cfg.HealthAddr != "" {
		g.Go(func() error { return health.Serve(gctx, cfg.HealthAddr, health.NewRouter(sched)) })
	}

	log.Info("bot started", "username", api.Self.UserName, "workers", cfg.Workers, "tz", cfg.Timezone)
	err = g.Wait()
	log.Info("shutdown")
	return err
}
