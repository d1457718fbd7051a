// Command chat runs the order assistant as a terminal session. It wires
// the same pipeline as the API server but reads turns from stdin, which
// makes it the quickest way to exercise a conversation end to end.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Leen2210/Chatbot-Samator/internal/cache"
	"github.com/Leen2210/Chatbot-Samator/internal/catalog"
	"github.com/Leen2210/Chatbot-Samator/internal/config"
	"github.com/Leen2210/Chatbot-Samator/internal/conversation"
	"github.com/Leen2210/Chatbot-Samator/internal/db"
	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/internal/order"
	"github.com/Leen2210/Chatbot-Samator/platform/ai/embeddings"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
	"github.com/Leen2210/Chatbot-Samator/platform/phone"
)

var exitWords = map[string]bool{"exit": true, "quit": true, "bye": true, "keluar": true}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg); err != nil {
		panic("failed to run database migrations: " + err.Error())
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	store, err := cache.NewFromURL(ctx, cfg.RedisURL)
	if err != nil {
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = store.Close() }()

	tz, err := time.LoadLocation(cfg.BusinessTZ)
	if err != nil {
		panic("invalid business timezone: " + err.Error())
	}

	nluClient, err := nlu.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.NLUTimeout, log)
	if err != nil {
		panic("failed to initialize nlu client: " + err.Error())
	}

	embedClient := embeddings.NewClient(embeddings.Config{
		BaseURL: cfg.EmbeddingURL,
		Model:   cfg.EmbeddingModel,
		Timeout: cfg.NLUTimeout,
	})
	catalogSvc := catalog.NewService(catalog.NewRepository(pool), store, embedClient, cfg.PartsCacheTTL, log)
	if _, err := catalogSvc.WarmCache(ctx); err != nil {
		log.Warn("parts cache warm-up failed, semantic search degrades to fuzzy", "error", err)
	}

	convRepo := conversation.NewRepository(pool)
	sessionStore := conversation.NewStore(convRepo, store, cfg.OrderStateTTL, cfg.CustomerTTL, log)
	resolver := order.NewResolver(catalogSvc, log)
	agent := order.NewAgent(nluClient, resolver, sessionStore, order.NewRepository(pool), tz, log)
	router := conversation.NewRouter(convRepo, sessionStore, nluClient, agent, resolver,
		language.Code(cfg.DefaultLang), tz, log)

	runTerminal(ctx, router)
}

func runTerminal(ctx context.Context, router *conversation.Router) {
	in := bufio.NewScanner(os.Stdin)

	fmt.Print("Nomor telepon / phone number: ")
	if !in.Scan() {
		return
	}
	number := phone.NormalizeE164(strings.TrimSpace(in.Text()))
	if number == "" {
		fmt.Println("Nomor telepon tidak valid.")
		return
	}

	conv, welcome, err := router.Start(ctx, number)
	if err != nil {
		fmt.Println("Gagal memulai sesi:", err)
		return
	}
	fmt.Println()
	fmt.Println("Bot:", welcome)

	for {
		fmt.Print("\nAnda: ")
		if !in.Scan() {
			return
		}
		text := strings.TrimSpace(in.Text())
		if text == "" {
			continue
		}
		if exitWords[strings.ToLower(text)] {
			fmt.Println("Bot: Sampai jumpa! 👋")
			return
		}

		reply, err := router.Handle(ctx, conv.ID, text)
		if err != nil {
			fmt.Println("Bot: Maaf, terjadi kesalahan. Coba lagi ya.")
			continue
		}
		fmt.Println("Bot:", reply)
	}
}
