package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Leen2210/Chatbot-Samator/internal/config"
	"github.com/Leen2210/Chatbot-Samator/internal/conversation"
	"github.com/Leen2210/Chatbot-Samator/internal/order"
	"github.com/Leen2210/Chatbot-Samator/internal/whatsapp"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	repo        *conversation.Repository
	wa          *whatsapp.Client
	delay       time.Duration
	defaultLang language.Code
	log         *logger.Logger
	now         func() time.Time
}

func NewWorker(cfg *config.Config, pool *pgxpool.Pool, wa *whatsapp.Client, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.ReminderQueue
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		repo:        conversation.NewRepository(pool),
		wa:          wa,
		delay:       cfg.ReminderDelay,
		defaultLang: language.Code(cfg.DefaultLang),
		log:         log,
		now:         time.Now,
	}

	mux.HandleFunc(TaskOrderReminder, w.handleOrderReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleOrderReminder nudges a customer whose order is still in progress.
// Every condition that made the reminder relevant is re-checked here: the
// session may have finished, been cancelled, or handed off since it was
// scheduled, and any of those makes the nudge wrong to send.
func (w *Worker) handleOrderReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOrderReminderPayload(task)
	if err != nil {
		return err
	}

	convID, err := uuid.Parse(payload.ConversationID)
	if err != nil {
		return err
	}

	conv, err := w.repo.GetByID(ctx, convID)
	if errors.Is(err, conversation.ErrConversationNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if conv.Status != "active" || conv.OrderStatus != string(order.StatusInProgress) {
		return nil
	}
	if conv.SessionState == conversation.StateHandoff {
		return nil
	}
	// Activity after this reminder was scheduled means a newer reminder
	// carries the nudge instead.
	if conv.UpdatedAt.After(w.now().Add(-w.delay)) {
		return nil
	}

	lang := conv.Language
	if !lang.Valid() {
		lang = w.defaultLang
	}

	if err := w.wa.SendMessage(ctx, payload.Phone, reminderMessage(lang)); err != nil {
		return err
	}

	w.log.ConversationEvent(convID.String(), "order reminder sent")
	return nil
}

func reminderMessage(lang language.Code) string {
	if lang == language.English {
		return "Hi! Your order with us is not finished yet. Reply to this message whenever you are ready to continue 😊"
	}
	return "Halo! Pesanan kamu belum selesai nih. Balas pesan ini kapan saja untuk melanjutkan ya 😊"
}
