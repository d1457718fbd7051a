// Package catalog resolves free-text product mentions against the parts
// table: embedding similarity over a Redis-warmed cache with a fuzzy
// substring fallback.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Part is one row of the parts catalog.
type Part struct {
	ID          int64     `json:"id"`
	PartNum     string    `json:"partnum"`
	Description string    `json:"description"`
	UOM         string    `json:"uom"`
	UOMDesc     string    `json:"uomdesc"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListParts loads the full catalog with embeddings.
func (r *Repository) ListParts(ctx context.Context) ([]Part, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, partnum, description, COALESCE(uom, ''), COALESCE(uomdesc, ''), embedding
		FROM parts
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.PartNum, &p.Description, &p.UOM, &p.UOMDesc, &p.Embedding); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// SaveEmbedding stores a computed embedding for a part.
func (r *Repository) SaveEmbedding(ctx context.Context, id int64, embedding []float32) error {
	_, err := r.pool.Exec(ctx, `UPDATE parts SET embedding = $2 WHERE id = $1`, id, embedding)
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	return nil
}
