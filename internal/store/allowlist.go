package store

import (
	"context"
	"database/sql"
)

// AllowListRepository handles persistence for provisioned identities.
type AllowListRepository struct {
	db *sql.DB
}

func NewAllowListRepository(db *sql.DB) *AllowListRepository {
	return &AllowListRepository{db: db}
}

func (r *AllowListRepository) Exists(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM allowed_users WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AllowListRepository) Add(ctx context.Context, userID string) error {
	const query = `
		INSERT INTO allowed_users (user_id, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
