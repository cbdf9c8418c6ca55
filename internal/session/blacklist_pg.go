package session

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BlacklistPG stores revoked jtis in the token_blacklist table. Used when no
// Redis is configured.
type BlacklistPG struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewBlacklistPG(db *pgxpool.Pool, timeout time.Duration) *BlacklistPG {
	return &BlacklistPG{db: db, timeout: timeout}
}

func (r *BlacklistPG) AddToken(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	const query = `
	INSERT INTO token_blacklist (jti, user_id, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (jti) DO NOTHING
	`
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, query, jti, userID, expiresAt)
	return err
}

func (r *BlacklistPG) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	const query = `
	SELECT EXISTS(
		SELECT 1 FROM token_blacklist
		WHERE jti = $1 AND expires_at > now()
	)
	`
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var exists bool
	err := r.db.QueryRow(timeoutCtx, query, jti).Scan(&exists)
	return exists, err
}
