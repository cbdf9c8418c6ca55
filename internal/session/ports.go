package session

import (
	"context"
	"time"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=session

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
}

// BlacklistRepository records revoked access tokens by jti until they expire.
type BlacklistRepository interface {
	AddToken(ctx context.Context, jti string, userID string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
