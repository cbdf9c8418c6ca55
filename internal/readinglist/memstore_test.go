package readinglist

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"bookmanagement/internal/book"
)

var errInjected = errors.New("injected failure")

type memState struct {
	lists map[string]ReadingList
	items map[string]map[string]Item // list id -> book id -> item
}

func (s memState) clone() memState {
	c := memState{
		lists: make(map[string]ReadingList, len(s.lists)),
		items: make(map[string]map[string]Item, len(s.items)),
	}
	for id, l := range s.lists {
		c.lists[id] = l
	}
	for listID, items := range s.items {
		m := make(map[string]Item, len(items))
		for bookID, it := range items {
			m[bookID] = it
		}
		c.items[listID] = m
	}
	return c
}

// memStore is an in-memory Repository. Transactions are serialized by mu and
// work on a copy of the state that replaces the original only on commit.
type memStore struct {
	mu     sync.Mutex
	state  memState
	books  memBooks
	seq    int
	failOn string
}

func newMemStore(books memBooks) *memStore {
	return &memStore{
		state: memState{lists: map[string]ReadingList{}, items: map[string]map[string]Item{}},
		books: books,
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &memTx{store: s, state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *memStore) countItems(listID string) int {
	return len(s.state.items[listID])
}

func (s *memStore) CreateList(_ context.Context, l *ReadingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.state.lists {
		if existing.UserID == l.UserID && existing.Name == l.Name {
			return ErrNameTaken
		}
	}
	l.ID = s.nextID("list")
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	s.state.lists[l.ID] = *l
	s.state.items[l.ID] = map[string]Item{}
	return nil
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]ReadingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ReadingList{}
	for _, l := range s.state.lists {
		if l.UserID == userID {
			l.BooksCount = s.countItems(l.ID)
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) GetList(_ context.Context, userID, listID string) (ReadingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state.lists[listID]
	if !ok || l.UserID != userID {
		return ReadingList{}, ErrListNotFound
	}
	l.BooksCount = s.countItems(listID)
	return l, nil
}

func (s *memStore) ListItems(_ context.Context, listID string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []Item{}
	for _, it := range s.state.items[listID] {
		if b, ok := s.books[it.BookID]; ok {
			it.Book = &b
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (s *memStore) UpdateList(_ context.Context, userID, listID string, u ListUpdate) (ReadingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state.lists[listID]
	if !ok || l.UserID != userID {
		return ReadingList{}, ErrListNotFound
	}
	if u.Name != nil {
		for id, other := range s.state.lists {
			if id != listID && other.UserID == userID && other.Name == *u.Name {
				return ReadingList{}, ErrNameTaken
			}
		}
		l.Name = *u.Name
	}
	if u.Description != nil {
		l.Description = *u.Description
	}
	l.UpdatedAt = time.Now()
	s.state.lists[listID] = l
	l.BooksCount = s.countItems(listID)
	return l, nil
}

func (s *memStore) DeleteList(_ context.Context, userID, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state.lists[listID]
	if !ok || l.UserID != userID {
		return ErrListNotFound
	}
	delete(s.state.lists, listID)
	delete(s.state.items, listID)
	return nil
}

// positions returns book id -> order for a list.
func (s *memStore) positions(listID string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for bookID, it := range s.state.items[listID] {
		out[bookID] = it.Order
	}
	return out
}

type memTx struct {
	store *memStore
	state memState
}

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return errInjected
	}
	return nil
}

func (t *memTx) LockList(_ context.Context, userID, listID string) (ReadingList, error) {
	l, ok := t.state.lists[listID]
	if !ok || l.UserID != userID {
		return ReadingList{}, ErrListNotFound
	}
	return l, nil
}

func (t *memTx) FindItem(_ context.Context, listID, bookID string) (Item, error) {
	it, ok := t.state.items[listID][bookID]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

func (t *memTx) MaxPosition(_ context.Context, listID string) (int, error) {
	last := 0
	for _, it := range t.state.items[listID] {
		if it.Order > last {
			last = it.Order
		}
	}
	return last, nil
}

func (t *memTx) ShiftFrom(_ context.Context, listID string, from, delta int) error {
	if err := t.fail("ShiftFrom"); err != nil {
		return err
	}
	for bookID, it := range t.state.items[listID] {
		if it.Order >= from {
			it.Order += delta
			t.state.items[listID][bookID] = it
		}
	}
	return nil
}

func (t *memTx) InsertItem(_ context.Context, item *Item) error {
	if err := t.fail("InsertItem"); err != nil {
		return err
	}
	if _, ok := t.state.items[item.ReadingListID][item.BookID]; ok {
		return ErrAlreadyInList
	}
	item.ID = t.store.nextID("item")
	item.AddedAt = time.Now()
	t.state.items[item.ReadingListID][item.BookID] = *item
	return nil
}

func (t *memTx) DeleteItem(_ context.Context, listID, bookID string) error {
	if err := t.fail("DeleteItem"); err != nil {
		return err
	}
	if _, ok := t.state.items[listID][bookID]; !ok {
		return ErrItemNotFound
	}
	delete(t.state.items[listID], bookID)
	return nil
}

func (t *memTx) SetPosition(_ context.Context, listID, bookID string, order int) (bool, error) {
	if err := t.fail("SetPosition"); err != nil {
		return false, err
	}
	it, ok := t.state.items[listID][bookID]
	if !ok {
		return false, nil
	}
	it.Order = order
	t.state.items[listID][bookID] = it
	return true, nil
}

// memBooks is a read-only catalog.
type memBooks map[string]book.Book

func (b memBooks) GetByID(_ context.Context, id string) (book.Book, error) {
	bk, ok := b[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return bk, nil
}

func newCatalog(ids ...string) memBooks {
	books := memBooks{}
	for _, id := range ids {
		books[id] = book.Book{ID: id, Title: "Title " + id}
	}
	return books
}
