package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// ErrContentNotFound is returned when a content lookup fails.
var ErrContentNotFound = errors.New("content not found")

// ContentRepo reads catalog items.  The catalog itself is managed
// by an external system; this service only resolves titles and
// durations when scheduling showings.
type ContentRepo struct {
	db *sql.DB
}

// NewContentRepo constructs a ContentRepo with the given DB handle.
func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// GetByID retrieves a catalog item.
func (r *ContentRepo) GetByID(ctx context.Context, id uint64) (*model.Content, error) {
	const q = `SELECT id, title, duration_min, created_at FROM contents WHERE id = ?`
	var c model.Content
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Title, &c.DurationMin, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListPlaying returns catalog items that have at least one upcoming
// showing, ordered by title.
func (r *ContentRepo) ListPlaying(ctx context.Context) ([]model.Content, error) {
	const q = `SELECT DISTINCT c.id, c.title, c.duration_min, c.created_at
	           FROM contents c
	           JOIN showings s ON s.content_id = c.id
	           WHERE s.starts_at >= NOW()
	           ORDER BY c.title ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Content
	for rows.Next() {
		var c model.Content
		if err := rows.Scan(&c.ID, &c.Title, &c.DurationMin, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
