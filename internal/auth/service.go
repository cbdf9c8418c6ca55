package auth

import (
	"context"
	"errors"
	"time"

	"bookmanagement/internal/platform/crypto"
	"bookmanagement/internal/session"
	"bookmanagement/internal/user"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// Tokens is the credential pair handed out on register, login and refresh.
type Tokens struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	ExpiresIn    int    `json:"expires_in"`
}

// ClientInfo is recorded on the refresh session.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type Service struct {
	secret         string
	userService    *user.Service
	sessionService *session.Service
	now            func() time.Time
}

func NewService(secret string, userService *user.Service, sessionService *session.Service) *Service {
	return &Service{
		secret:         secret,
		userService:    userService,
		sessionService: sessionService,
		now:            time.Now,
	}
}

// Register creates the account and signs the new user in.
func (s *Service) Register(ctx context.Context, in RegisterInput, client ClientInfo) (user.User, Tokens, error) {
	hashed, err := crypto.HashPassword(in.Password)
	if err != nil {
		return user.User{}, Tokens{}, err
	}

	u, err := s.userService.Register(ctx, user.RegisterInput{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hashed,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
	})
	if err != nil {
		return user.User{}, Tokens{}, err
	}

	tokens, err := s.issue(ctx, u, client)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	return u, tokens, nil
}

func (s *Service) Login(ctx context.Context, username, password string, client ClientInfo) (user.User, Tokens, error) {
	u, err := s.userService.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, Tokens{}, ErrUnauthorized
		}
		return user.User{}, Tokens{}, err
	}
	if !crypto.VerifyPassword(u.Password, password) {
		return user.User{}, Tokens{}, ErrUnauthorized
	}

	tokens, err := s.issue(ctx, u, client)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	return u, tokens, nil
}

// Refresh exchanges a live refresh token for a new pair. The old session is
// deleted so each refresh token works once.
func (s *Service) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (Tokens, error) {
	tokenHash := crypto.HashToken(refreshToken)
	sess, err := s.sessionService.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Tokens{}, ErrUnauthorized
		}
		return Tokens{}, err
	}

	u, err := s.userService.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Tokens{}, ErrUnauthorized
		}
		return Tokens{}, err
	}

	if err := s.sessionService.DeleteByTokenHash(ctx, tokenHash); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Tokens{}, ErrUnauthorized
		}
		return Tokens{}, err
	}

	return s.issue(ctx, u, client)
}

// Logout revokes the access token until it would have expired anyway and
// drops the refresh session when one is given.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := crypto.ParseToken(s.secret, accessToken)
	if err != nil {
		return ErrUnauthorized
	}

	expiresAt := s.now().Add(AccessTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.sessionService.AddToBlacklist(ctx, claims.ID, claims.Sub, expiresAt); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}
	err = s.sessionService.DeleteByTokenHash(ctx, crypto.HashToken(refreshToken))
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) issue(ctx context.Context, u user.User, client ClientInfo) (Tokens, error) {
	accessToken, _, err := crypto.GenerateToken(s.secret, u.ID, u.Role, AccessTokenTTL)
	if err != nil {
		return Tokens{}, err
	}

	refreshToken, err := crypto.GenerateOpaqueToken()
	if err != nil {
		return Tokens{}, err
	}

	sess := &session.Session{
		UserID:           u.ID,
		RefreshTokenHash: crypto.HashToken(refreshToken),
		UserAgent:        client.UserAgent,
		IPAddress:        client.IPAddress,
		ExpiresAt:        s.now().Add(RefreshTokenTTL),
	}
	if err := s.sessionService.Create(ctx, sess); err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	}, nil
}
