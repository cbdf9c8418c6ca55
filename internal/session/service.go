package session

import (
	"context"
	"time"
)

type Service struct {
	repo          Repository
	blacklistRepo BlacklistRepository
}

func NewService(repo Repository, blacklistRepo BlacklistRepository) *Service {
	return &Service{
		repo:          repo,
		blacklistRepo: blacklistRepo,
	}
}

func (s *Service) Create(ctx context.Context, session *Session) error {
	return s.repo.Create(ctx, session)
}

func (s *Service) GetByTokenHash(ctx context.Context, hash string) (Session, error) {
	return s.repo.GetByTokenHash(ctx, hash)
}

func (s *Service) DeleteByTokenHash(ctx context.Context, hash string) error {
	return s.repo.DeleteByTokenHash(ctx, hash)
}

// AddToBlacklist revokes an access token until it would have expired anyway.
// Tokens without a jti cannot be revoked individually and are ignored.
func (s *Service) AddToBlacklist(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	return s.blacklistRepo.AddToken(ctx, jti, userID, expiresAt)
}

// IsBlacklisted lets the service act as the auth middleware's revocation checker.
func (s *Service) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.blacklistRepo.IsBlacklisted(ctx, jti)
}
