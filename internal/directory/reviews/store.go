// internal/directory/reviews/store.go
package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrStoreUnavailable = errors.New("REVIEW_STORE_UNAVAILABLE")

// StoredReview is one authoritative review row.
type StoredReview struct {
	ID         string
	BusinessID string
	AuthorName string
	Rating     int
	Body       string
	AvatarRef  string
	CreatedAt  time.Time
}

// Store reads authoritative reviews. The directory never writes them.
type Store interface {
	Count(ctx context.Context, businessID string) (int, error)
	List(ctx context.Context, businessID string, offset, limit int) ([]StoredReview, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Count(ctx context.Context, businessID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM business_reviews WHERE business_id = $1`, businessID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count failed: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

func (s *PostgresStore) List(ctx context.Context, businessID string, offset, limit int) ([]StoredReview, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_id, author_name, rating, body, avatar_ref, created_at
		FROM business_reviews
		WHERE business_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := []StoredReview{}
	for rows.Next() {
		var r StoredReview
		if err := rows.Scan(&r.ID, &r.BusinessID, &r.AuthorName, &r.Rating, &r.Body, &r.AvatarRef, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan failed: %v", ErrStoreUnavailable, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}
