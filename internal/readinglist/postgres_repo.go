package readinglist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookmanagement/internal/book"
	"bookmanagement/internal/platform/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	if err := fn(timeoutCtx, &postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(timeoutCtx)
}

const listColumns = `rl.id, rl.user_id, rl.name, COALESCE(rl.description, ''),
	(SELECT COUNT(*) FROM reading_list_items i WHERE i.reading_list_id = rl.id),
	rl.created_at, rl.updated_at`

func scanList(row pgx.Row) (ReadingList, error) {
	var l ReadingList
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.Description, &l.BooksCount, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidInput(err) {
			return ReadingList{}, ErrListNotFound
		}
		return ReadingList{}, err
	}
	return l, nil
}

func (r *PostgresRepo) CreateList(ctx context.Context, l *ReadingList) error {
	const query = `
	INSERT INTO reading_lists (user_id, name, description)
	VALUES ($1, $2, NULLIF($3, ''))
	RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, l.UserID, l.Name, l.Description).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]ReadingList, error) {
	query := `SELECT ` + listColumns + ` FROM reading_lists rl WHERE rl.user_id = $1 ORDER BY rl.created_at DESC, rl.id`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReadingList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetList(ctx context.Context, userID, listID string) (ReadingList, error) {
	query := `SELECT ` + listColumns + ` FROM reading_lists rl WHERE rl.id = $1 AND rl.user_id = $2`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanList(r.db.QueryRow(timeoutCtx, query, listID, userID))
}

func (r *PostgresRepo) ListItems(ctx context.Context, listID string) ([]Item, error) {
	const query = `
	SELECT i.id, i.reading_list_id, i.book_id, i.position, i.added_at,
	       b.id, b.title, b.authors, b.genre, to_char(b.publication_date, 'YYYY-MM-DD'),
	       COALESCE(b.description, ''), b.created_by, u.username, b.created_at, b.updated_at
	FROM reading_list_items i
	JOIN books b ON b.id = i.book_id
	JOIN users u ON u.id = b.created_by
	WHERE i.reading_list_id = $1
	ORDER BY i.position, i.added_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		var b book.Book
		if err := rows.Scan(
			&it.ID, &it.ReadingListID, &it.BookID, &it.Order, &it.AddedAt,
			&b.ID, &b.Title, &b.Authors, &b.Genre, &b.PublicationDate,
			&b.Description, &b.CreatedBy, &b.CreatedByUsername, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		it.Book = &b
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepo) UpdateList(ctx context.Context, userID, listID string, u ListUpdate) (ReadingList, error) {
	fields := []string{}
	args := []any{}
	argn := 1

	if u.Name != nil {
		fields = append(fields, "name = $"+strconv.Itoa(argn))
		args = append(args, *u.Name)
		argn++
	}
	if u.Description != nil {
		fields = append(fields, "description = NULLIF($"+strconv.Itoa(argn)+", '')")
		args = append(args, *u.Description)
		argn++
	}
	if len(fields) == 0 {
		return r.GetList(ctx, userID, listID)
	}

	fields = append(fields, "updated_at = now()")
	args = append(args, listID, userID)

	query := `
	WITH rl AS (
		UPDATE reading_lists SET ` + strings.Join(fields, ", ") + `
		WHERE id = $` + strconv.Itoa(argn) + ` AND user_id = $` + strconv.Itoa(argn+1) + `
		RETURNING *
	)
	SELECT ` + listColumns + ` FROM rl`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	l, err := scanList(r.db.QueryRow(timeoutCtx, query, args...))
	if postgres.IsUniqueViolation(err) {
		return ReadingList{}, ErrNameTaken
	}
	return l, err
}

func (r *PostgresRepo) DeleteList(ctx context.Context, userID, listID string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM reading_lists WHERE id = $1 AND user_id = $2`, listID, userID)
	if err != nil {
		if postgres.IsInvalidInput(err) {
			return ErrListNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrListNotFound
	}
	return nil
}

// postgresTx runs item statements on one transaction. Ids that are not
// UUIDs are answered without a round trip: a failed cast would abort the
// whole transaction.
type postgresTx struct {
	tx pgx.Tx
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func (t *postgresTx) LockList(ctx context.Context, userID, listID string) (ReadingList, error) {
	if !validID(listID) {
		return ReadingList{}, ErrListNotFound
	}
	const query = `
	SELECT rl.id, rl.user_id, rl.name, COALESCE(rl.description, ''), 0, rl.created_at, rl.updated_at
	FROM reading_lists rl
	WHERE rl.id = $1 AND rl.user_id = $2
	FOR UPDATE
	`
	return scanList(t.tx.QueryRow(ctx, query, listID, userID))
}

func (t *postgresTx) FindItem(ctx context.Context, listID, bookID string) (Item, error) {
	if !validID(bookID) {
		return Item{}, ErrItemNotFound
	}
	const query = `
	SELECT id, reading_list_id, book_id, position, added_at
	FROM reading_list_items
	WHERE reading_list_id = $1 AND book_id = $2
	`
	var it Item
	err := t.tx.QueryRow(ctx, query, listID, bookID).Scan(&it.ID, &it.ReadingListID, &it.BookID, &it.Order, &it.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("find item: %w", err)
	}
	return it, nil
}

func (t *postgresTx) MaxPosition(ctx context.Context, listID string) (int, error) {
	var last int
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) FROM reading_list_items WHERE reading_list_id = $1`, listID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	return last, nil
}

func (t *postgresTx) ShiftFrom(ctx context.Context, listID string, from, delta int) error {
	const query = `
	UPDATE reading_list_items
	SET position = position + $3
	WHERE reading_list_id = $1 AND position >= $2
	`
	if _, err := t.tx.Exec(ctx, query, listID, from, delta); err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}
	return nil
}

func (t *postgresTx) InsertItem(ctx context.Context, item *Item) error {
	const query = `
	INSERT INTO reading_list_items (reading_list_id, book_id, position)
	VALUES ($1, $2, $3)
	RETURNING id, added_at
	`
	err := t.tx.QueryRow(ctx, query, item.ReadingListID, item.BookID, item.Order).Scan(&item.ID, &item.AddedAt)
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err):
		return ErrAlreadyInList
	case postgres.IsForeignKeyViolation(err):
		return ErrBookNotFound
	default:
		return fmt.Errorf("insert item: %w", err)
	}
}

func (t *postgresTx) DeleteItem(ctx context.Context, listID, bookID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM reading_list_items WHERE reading_list_id = $1 AND book_id = $2`, listID, bookID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (t *postgresTx) SetPosition(ctx context.Context, listID, bookID string, order int) (bool, error) {
	if !validID(bookID) {
		return false, nil
	}
	tag, err := t.tx.Exec(ctx, `UPDATE reading_list_items SET position = $3 WHERE reading_list_id = $1 AND book_id = $2`, listID, bookID, order)
	if err != nil {
		return false, fmt.Errorf("set position: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
