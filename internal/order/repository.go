package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoOrders is returned when a conversation has no completed orders yet.
var ErrNoOrders = errors.New("order: no completed orders")

// Item is one persisted order line inside a record's items blob.
type Item struct {
	PartNum      string `json:"partnum"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	Unit         string `json:"unit"`
	DeliveryDate string `json:"delivery_date"`
}

// Record is an immutable completed order.
type Record struct {
	OrderID         string
	ConversationID  uuid.UUID
	CustomerName    string
	CustomerCompany string
	CustomerPhone   string
	DeliveryDate    string
	Status          string
	Items           []Item
	CreatedAt       time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountForDay counts the records whose order id carries the given day's
// prefix. Used to allocate the next daily sequence number.
func (r *Repository) CountForDay(ctx context.Context, day time.Time) (int, error) {
	prefix := "ORD-" + day.Format("20060102") + "-%"
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE order_id LIKE $1`, prefix).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders for day: %w", err)
	}
	return count, nil
}

// Insert persists a completed order.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	var deliveryDate *time.Time
	if rec.DeliveryDate != "" {
		d, err := time.Parse("2006-01-02", rec.DeliveryDate)
		if err != nil {
			return fmt.Errorf("parse delivery date %q: %w", rec.DeliveryDate, err)
		}
		deliveryDate = &d
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (order_id, conversation_id, customer_name, customer_company,
			customer_phone, delivery_date, status, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		rec.OrderID, rec.ConversationID, rec.CustomerName, rec.CustomerCompany,
		rec.CustomerPhone, deliveryDate, rec.Status, rec.Items)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// LastCompleted returns the most recent completed order for a conversation.
func (r *Repository) LastCompleted(ctx context.Context, conversationID uuid.UUID) (Record, error) {
	var (
		rec          Record
		deliveryDate *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT order_id, conversation_id, COALESCE(customer_name, ''), COALESCE(customer_company, ''),
			COALESCE(customer_phone, ''), delivery_date, status, items, created_at
		FROM orders
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, conversationID).
		Scan(&rec.OrderID, &rec.ConversationID, &rec.CustomerName, &rec.CustomerCompany,
			&rec.CustomerPhone, &deliveryDate, &rec.Status, &rec.Items, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNoOrders
	}
	if err != nil {
		return Record{}, fmt.Errorf("last completed order: %w", err)
	}
	if deliveryDate != nil {
		rec.DeliveryDate = deliveryDate.Format("2006-01-02")
	}
	return rec, nil
}
