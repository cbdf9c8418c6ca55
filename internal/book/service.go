package book

import (
	"context"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of books, newest first, and the total match count.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.List(ctx, q)
}

// GetByID returns a book by its ID.
func (s *Service) GetByID(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new book owned by userID.
func (s *Service) Create(ctx context.Context, userID string, b Book) (Book, error) {
	b.ID = ""
	b.CreatedBy = userID
	if err := s.repo.Create(ctx, &b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Update applies a partial update. Only the creator may update a book.
func (s *Service) Update(ctx context.Context, userID, id string, u Update) (Book, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if existing.CreatedBy != userID {
		return Book{}, ErrForbidden
	}
	if u.IsEmpty() {
		return existing, nil
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a book. Only the creator may delete it.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.CreatedBy != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
