package readinglist

import (
	"errors"
	"time"

	"bookmanagement/internal/book"
)

// Error kinds. Every error returned by Service that the caller can act on
// matches exactly one of these with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	// ErrListNotFound also covers lists owned by someone else.
	ErrListNotFound      = newError(ErrNotFound, "reading list not found")
	ErrBookNotFound      = newError(ErrNotFound, "book not found")
	ErrItemNotFound      = newError(ErrNotFound, "book not found in reading list")
	ErrAlreadyInList     = newError(ErrConflict, "book already in reading list")
	ErrNameTaken         = newError(ErrConflict, "a reading list with this name already exists")
	ErrNameRequired      = newError(ErrInvalidInput, "name is required")
	ErrBookIDRequired    = newError(ErrInvalidInput, "book_id is required")
	ErrOrderingsRequired = newError(ErrInvalidInput, "orderings list is required")
	ErrInvalidOrder      = newError(ErrInvalidInput, "order must be at least 1")
)

type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

type ReadingList struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BooksCount  int       `json:"books_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Item places a book in a list. Order is 1-based and, outside Reorder,
// the orders of a list are exactly 1..n.
type Item struct {
	ID            string     `json:"id"`
	ReadingListID string     `json:"reading_list_id"`
	BookID        string     `json:"book_id"`
	Order         int        `json:"order"`
	AddedAt       time.Time  `json:"added_at"`
	Book          *book.Book `json:"book,omitempty"`
}

// Detail is a list with its items in order.
type Detail struct {
	ReadingList
	Items []Item `json:"items"`
}

type Ordering struct {
	BookID string `json:"book_id"`
	Order  int    `json:"order"`
}

// ListUpdate carries the editable fields; nil means unchanged.
type ListUpdate struct {
	Name        *string
	Description *string
}
