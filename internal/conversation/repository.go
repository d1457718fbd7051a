// Package conversation owns the session layer: the conversation record,
// the message log, the cached aggregate store, and the router that turns
// incoming messages into replies.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
)

// ErrConversationNotFound is returned for lookups of unknown conversations.
var ErrConversationNotFound = errors.New("conversation: not found")

// SessionState is the single routing mode of a conversation. It replaces
// a set of independent booleans so a session can never be in two modes at
// once.
type SessionState string

const (
	StateIdle                 SessionState = "idle"
	StateAwaitingResume       SessionState = "awaiting_resume"
	StateAwaitingConfirmation SessionState = "awaiting_confirmation"
	StateHandoff              SessionState = "handoff"
)

// Conversation is one customer session keyed by phone number.
type Conversation struct {
	ID           uuid.UUID
	PhoneNumber  string
	Status       string
	OrderStatus  string
	SessionState SessionState
	Language     language.Code
	OrderState   []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const conversationColumns = `id, phone_number, status, order_status, session_state, language, order_state, created_at, updated_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.PhoneNumber, &c.Status, &c.OrderStatus, &c.SessionState,
		&c.Language, &c.OrderState, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetOrCreateByPhone returns the active conversation for a phone number,
// creating one when none exists. The bool reports whether it was created.
func (r *Repository) GetOrCreateByPhone(ctx context.Context, phone string) (Conversation, bool, error) {
	c, err := scanConversation(r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE phone_number = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, phone))
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, false, fmt.Errorf("get conversation by phone: %w", err)
	}

	c, err = scanConversation(r.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, phone_number)
		VALUES ($1, $2)
		RETURNING `+conversationColumns, uuid.New(), phone))
	if err != nil {
		return Conversation{}, false, fmt.Errorf("create conversation: %w", err)
	}
	return c, true, nil
}

// GetByID loads one conversation.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Conversation, error) {
	c, err := scanConversation(r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// UpdateSession persists the routing mode and locked language.
func (r *Repository) UpdateSession(ctx context.Context, id uuid.UUID, state SessionState, lang language.Code) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET session_state = $2, language = $3, updated_at = now()
		WHERE id = $1`, id, state, lang)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// SaveOrderState persists the aggregate snapshot and its lifecycle status.
func (r *Repository) SaveOrderState(ctx context.Context, id uuid.UUID, orderStatus string, snapshot []byte) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET order_status = $2, order_state = $3, updated_at = now()
		WHERE id = $1`, id, orderStatus, snapshot)
	if err != nil {
		return fmt.Errorf("save order state: %w", err)
	}
	return nil
}

// MarkOrderCompleted records that the conversation's current order was
// confirmed. The snapshot itself is reset separately.
func (r *Repository) MarkOrderCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET order_status = 'completed', updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark order completed: %w", err)
	}
	return nil
}

// AddMessage appends to the message log. entities may be nil.
func (r *Repository) AddMessage(ctx context.Context, id uuid.UUID, role, content string, entities []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (conversation_id, role, content, entities)
		VALUES ($1, $2, $3, $4)`, id, role, content, entities)
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// RecentMessages returns the last limit messages in chronological order.
func (r *Repository) RecentMessages(ctx context.Context, id uuid.UUID, limit int) ([]nlu.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role, content
		FROM (
			SELECT role, content, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []nlu.Message
	for rows.Next() {
		var m nlu.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// IdleInProgress lists conversations with an in-progress order and no
// activity since the cutoff. Used by the reminder worker.
func (r *Repository) IdleInProgress(ctx context.Context, cutoff time.Time) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE status = 'active' AND order_status = 'in_progress' AND updated_at < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("idle in-progress conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
