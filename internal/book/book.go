package book

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrForbidden is returned when a user changes a book they did not create.
	ErrForbidden = errors.New("only the creator can modify this book")
)

// Book represents a catalog entry. PublicationDate is YYYY-MM-DD.
type Book struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Authors           string    `json:"authors"`
	Genre             string    `json:"genre"`
	PublicationDate   string    `json:"publication_date"`
	Description       string    `json:"description"`
	CreatedBy         string    `json:"created_by"`
	CreatedByUsername string    `json:"created_by_username"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Query defines filters and pagination for listing books.
type Query struct {
	Genre  string
	Q      string
	Limit  int
	Offset int
}

// Update carries the editable fields; nil means unchanged.
type Update struct {
	Title           *string
	Authors         *string
	Genre           *string
	PublicationDate *string
	Description     *string
}

func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Authors == nil && u.Genre == nil && u.PublicationDate == nil && u.Description == nil
}
