package user

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput is a validated registration request with an already hashed password.
type RegisterInput struct {
	Username       string
	Email          string
	HashedPassword string
	FirstName      string
	LastName       string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	newUser := &User{
		Username:  in.Username,
		Email:     email,
		Password:  in.HashedPassword,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      RoleUser,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		return User{}, err
	}
	return *newUser, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateProfile applies a partial update. Changing the email to one owned by
// another account fails with ErrEmailTaken.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	if update.IsEmpty() {
		return s.repo.GetByID(ctx, userID)
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		update.Email = &email
		existing, err := s.repo.GetByEmail(ctx, email)
		if err == nil && existing.ID != userID {
			return User{}, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
	}
	return s.repo.UpdateProfile(ctx, userID, update)
}
