package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Leen2210/Chatbot-Samator/internal/cache"
	"github.com/Leen2210/Chatbot-Samator/internal/catalog"
	"github.com/Leen2210/Chatbot-Samator/internal/config"
	"github.com/Leen2210/Chatbot-Samator/internal/conversation"
	"github.com/Leen2210/Chatbot-Samator/internal/db"
	apphttp "github.com/Leen2210/Chatbot-Samator/internal/http"
	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/internal/order"
	"github.com/Leen2210/Chatbot-Samator/internal/scheduler"
	"github.com/Leen2210/Chatbot-Samator/platform/ai/embeddings"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
	"github.com/Leen2210/Chatbot-Samator/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	var store *cache.Store
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		s, err := cache.NewFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		store = s
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = store.Close() }()
	log.Info("redis connection established")

	tz, err := time.LoadLocation(cfg.BusinessTZ)
	if err != nil {
		log.Error("invalid business timezone", "error", err, "tz", cfg.BusinessTZ)
		panic("invalid business timezone: " + err.Error())
	}

	nluClient, err := nlu.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.NLUTimeout, log)
	if err != nil {
		log.Error("failed to initialize nlu client", "error", err)
		panic("failed to initialize nlu client: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	embedClient := embeddings.NewClient(embeddings.Config{
		BaseURL: cfg.EmbeddingURL,
		Model:   cfg.EmbeddingModel,
		Timeout: cfg.NLUTimeout,
	})

	catalogSvc := catalog.NewService(catalog.NewRepository(pool), store, embedClient, cfg.PartsCacheTTL, log)
	if count, err := catalogSvc.WarmCache(ctx); err != nil {
		log.Warn("parts cache warm-up failed, semantic search degrades to fuzzy", "error", err)
	} else {
		log.Info("parts cache warmed", "parts", count)
	}

	convRepo := conversation.NewRepository(pool)
	sessionStore := conversation.NewStore(convRepo, store, cfg.OrderStateTTL, cfg.CustomerTTL, log)

	resolver := order.NewResolver(catalogSvc, log)
	agent := order.NewAgent(nluClient, resolver, sessionStore, order.NewRepository(pool), tz, log)

	convRouter := conversation.NewRouter(convRepo, sessionStore, nluClient, agent, resolver,
		language.Code(cfg.DefaultLang), tz, log)

	reminderClient, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
		convRouter.SetReminderScheduler(reminderClient, cfg.ReminderDelay)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	val := validator.New()
	engine := apphttp.NewRouter(cfg, convRouter, val, pool, log)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg *config.Config, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not configured; order reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
