package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Leen2210/Chatbot-Samator/internal/cache"
	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/internal/order"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

// contextWindow is how many recent messages are replayed to the model.
const contextWindow = 10

func orderStateKey(id uuid.UUID) string { return "order_state:" + id.String() }
func contextKey(id uuid.UUID) string    { return "context:" + id.String() }

// Store is the read-through session store: Redis first, Postgres as the
// fallback and the write-of-record. It implements order.AggregateStore.
type Store struct {
	repo       *Repository
	cache      *cache.Store
	orderTTL   time.Duration
	contextTTL time.Duration
	log        *logger.Logger
}

func NewStore(repo *Repository, c *cache.Store, orderTTL, contextTTL time.Duration, log *logger.Logger) *Store {
	return &Store{
		repo:       repo,
		cache:      c,
		orderTTL:   orderTTL,
		contextTTL: contextTTL,
		log:        log,
	}
}

// Load returns the conversation's aggregate, preferring the cached copy
// over the snapshot on the conversation row. A row whose snapshot is gone
// but whose order status says completed yields a completed aggregate, so
// the completed-order guard survives cache expiry.
func (s *Store) Load(ctx context.Context, conv *Conversation) *order.Aggregate {
	if data, err := s.cache.Get(ctx, orderStateKey(conv.ID)); err == nil {
		if agg, err := order.FromSnapshot(data); err == nil {
			return agg
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.CacheError("get order state", err)
	}

	if len(conv.OrderState) > 0 && string(conv.OrderState) != "{}" {
		if agg, err := order.FromSnapshot(conv.OrderState); err == nil {
			s.writeCache(ctx, conv.ID, agg)
			return agg
		}
	}

	agg := order.New()
	if conv.OrderStatus == string(order.StatusCompleted) {
		agg.Status = order.StatusCompleted
	}
	return agg
}

// Save implements order.AggregateStore: cache immediately, then the
// durable row.
func (s *Store) Save(ctx context.Context, id uuid.UUID, agg *order.Aggregate) error {
	s.writeCache(ctx, id, agg)
	return s.repo.SaveOrderState(ctx, id, string(agg.Status), agg.Snapshot())
}

// Reset replaces the aggregate with a fresh empty one.
func (s *Store) Reset(ctx context.Context, id uuid.UUID) (*order.Aggregate, error) {
	fresh := order.New()
	if err := s.Save(ctx, id, fresh); err != nil {
		return fresh, err
	}
	return fresh, nil
}

// MarkCompleted records the completion on the conversation row. The cached
// aggregate is left in place and overwritten by the follow-up Reset.
func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkOrderCompleted(ctx, id)
}

func (s *Store) writeCache(ctx context.Context, id uuid.UUID, agg *order.Aggregate) {
	if err := s.cache.Set(ctx, orderStateKey(id), agg.Snapshot(), s.orderTTL); err != nil {
		s.log.CacheError("set order state", err)
	}
}

// AppendMessage writes one turn to the durable log and to the cached
// context window.
func (s *Store) AppendMessage(ctx context.Context, id uuid.UUID, role, content string, entities []byte) {
	if err := s.repo.AddMessage(ctx, id, role, content, entities); err != nil {
		s.log.DatabaseError("add message", err)
	}

	window := append(s.cachedContext(ctx, id), nlu.Message{Role: role, Content: content})
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}
	if data, err := json.Marshal(window); err == nil {
		if err := s.cache.Set(ctx, contextKey(id), data, s.contextTTL); err != nil {
			s.log.CacheError("set context window", err)
		}
	}
}

// Context returns the recent history window for the model.
func (s *Store) Context(ctx context.Context, id uuid.UUID) []nlu.Message {
	if window := s.cachedContext(ctx, id); window != nil {
		return window
	}

	msgs, err := s.repo.RecentMessages(ctx, id, contextWindow)
	if err != nil {
		s.log.DatabaseError("recent messages", err)
		return nil
	}
	if data, err := json.Marshal(msgs); err == nil && len(msgs) > 0 {
		if err := s.cache.Set(ctx, contextKey(id), data, s.contextTTL); err != nil {
			s.log.CacheError("set context window", err)
		}
	}
	return msgs
}

func (s *Store) cachedContext(ctx context.Context, id uuid.UUID) []nlu.Message {
	data, err := s.cache.Get(ctx, contextKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.CacheError("get context window", err)
		}
		return nil
	}
	var window []nlu.Message
	if err := json.Unmarshal(data, &window); err != nil {
		return nil
	}
	return window
}
