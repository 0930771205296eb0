// internal/directory/complaints/store.go
package complaints

import (
	"context"
	"database/sql"
	"fmt"

	"visa-directory/internal/models"
)

type Store interface {
	Insert(ctx context.Context, c models.Complaint) error
	CountByBusiness(ctx context.Context) (map[string]int, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, c models.Complaint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO complaints (
			id, business_id, reporter_name, reporter_email,
			subject, description, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID,
		c.BusinessID,
		c.ReporterName,
		c.ReporterEmail,
		c.Subject,
		c.Description,
		c.Status,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByBusiness(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT business_id, COUNT(*) FROM complaints GROUP BY business_id`)
	if err != nil {
		return nil, fmt.Errorf("count complaints: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan complaint count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
