package readinglist

import (
	"context"

	"bookmanagement/internal/book"
)

// BookFinder is the catalog lookup the list operations depend on.
type BookFinder interface {
	GetByID(ctx context.Context, id string) (book.Book, error)
}

type Repository interface {
	// WithinTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CreateList(ctx context.Context, l *ReadingList) error
	ListByUser(ctx context.Context, userID string) ([]ReadingList, error)
	GetList(ctx context.Context, userID, listID string) (ReadingList, error)
	// ListItems returns the items ordered by order, each with its book.
	ListItems(ctx context.Context, listID string) ([]Item, error)
	UpdateList(ctx context.Context, userID, listID string, u ListUpdate) (ReadingList, error)
	DeleteList(ctx context.Context, userID, listID string) error
}

// Tx is the item store seen from inside a transaction.
type Tx interface {
	// LockList returns the list owned by userID and holds it exclusively
	// until the transaction ends.
	LockList(ctx context.Context, userID, listID string) (ReadingList, error)
	FindItem(ctx context.Context, listID, bookID string) (Item, error)
	// MaxPosition is 0 for an empty list.
	MaxPosition(ctx context.Context, listID string) (int, error)
	// ShiftFrom adds delta to the order of every item with order >= from.
	ShiftFrom(ctx context.Context, listID string, from, delta int) error
	InsertItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, listID, bookID string) error
	// SetPosition reports false when the book is not in the list.
	SetPosition(ctx context.Context, listID, bookID string, order int) (bool, error)
}
