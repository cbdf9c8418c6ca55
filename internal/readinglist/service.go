package readinglist

import (
	"context"
	"errors"
	"strings"

	"bookmanagement/internal/book"
)

type Service struct {
	repo  Repository
	books BookFinder
}

func NewService(repo Repository, books BookFinder) *Service {
	return &Service{repo: repo, books: books}
}

// AddBook puts a book in the list. With no order it is appended; with order p
// the items at p and after move down one place first. An order past the end
// is treated as an append.
//
// Lookups that need their own connection run before the transaction opens.
func (s *Service) AddBook(ctx context.Context, userID, listID, bookID string, order *int) (Item, error) {
	if _, err := s.repo.GetList(ctx, userID, listID); err != nil {
		return Item{}, err
	}
	if strings.TrimSpace(bookID) == "" {
		return Item{}, ErrBookIDRequired
	}
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return Item{}, ErrBookNotFound
		}
		return Item{}, err
	}

	var added Item
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.LockList(ctx, userID, listID); err != nil {
			return err
		}

		if _, err := tx.FindItem(ctx, listID, bookID); err == nil {
			return ErrAlreadyInList
		} else if !errors.Is(err, ErrItemNotFound) {
			return err
		}

		last, err := tx.MaxPosition(ctx, listID)
		if err != nil {
			return err
		}
		position := last + 1
		if order != nil {
			if *order < 1 {
				return ErrInvalidOrder
			}
			if *order <= last {
				if err := tx.ShiftFrom(ctx, listID, *order, 1); err != nil {
					return err
				}
				position = *order
			}
		}

		item := Item{ReadingListID: listID, BookID: bookID, Order: position}
		if err := tx.InsertItem(ctx, &item); err != nil {
			return err
		}
		item.Book = &b
		added = item
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return added, nil
}

// RemoveBook takes a book out of the list and closes the gap it leaves.
func (s *Service) RemoveBook(ctx context.Context, userID, listID, bookID string) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.LockList(ctx, userID, listID); err != nil {
			return err
		}

		item, err := tx.FindItem(ctx, listID, bookID)
		if err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, listID, bookID); err != nil {
			return err
		}
		return tx.ShiftFrom(ctx, listID, item.Order+1, -1)
	})
}

// Reorder overwrites the order of each listed book, in the given sequence.
// Books not in the list are skipped. The result is not checked for gaps or
// duplicates. It returns how many pairs were applied.
func (s *Service) Reorder(ctx context.Context, userID, listID string, orderings []Ordering) (int, error) {
	var applied int
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.LockList(ctx, userID, listID); err != nil {
			return err
		}
		if len(orderings) == 0 {
			return ErrOrderingsRequired
		}
		for _, o := range orderings {
			if o.Order < 1 {
				return ErrInvalidOrder
			}
		}

		applied = 0
		for _, o := range orderings {
			ok, err := tx.SetPosition(ctx, listID, o.BookID, o.Order)
			if err != nil {
				return err
			}
			if ok {
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

func (s *Service) CreateList(ctx context.Context, userID, name, description string) (ReadingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ReadingList{}, ErrNameRequired
	}
	l := &ReadingList{UserID: userID, Name: name, Description: description}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return ReadingList{}, err
	}
	return *l, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]ReadingList, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns the list with its items in order.
func (s *Service) Get(ctx context.Context, userID, listID string) (Detail, error) {
	l, err := s.repo.GetList(ctx, userID, listID)
	if err != nil {
		return Detail{}, err
	}
	items, err := s.repo.ListItems(ctx, listID)
	if err != nil {
		return Detail{}, err
	}
	l.BooksCount = len(items)
	return Detail{ReadingList: l, Items: items}, nil
}

func (s *Service) UpdateList(ctx context.Context, userID, listID string, u ListUpdate) (ReadingList, error) {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return ReadingList{}, ErrNameRequired
		}
		u.Name = &name
	}
	if u.Name == nil && u.Description == nil {
		return s.repo.GetList(ctx, userID, listID)
	}
	return s.repo.UpdateList(ctx, userID, listID, u)
}

// DeleteList removes the list and all of its items.
func (s *Service) DeleteList(ctx context.Context, userID, listID string) error {
	return s.repo.DeleteList(ctx, userID, listID)
}
