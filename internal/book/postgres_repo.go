package book

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookmanagement/internal/platform/postgres"

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

// bookColumns expects books aliased as b and users as u.
const bookColumns = `b.id, b.title, b.authors, b.genre, to_char(b.publication_date, 'YYYY-MM-DD'),
	COALESCE(b.description, ''), b.created_by, u.username, b.created_at, b.updated_at`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Authors, &b.Genre, &b.PublicationDate,
		&b.Description, &b.CreatedBy, &b.CreatedByUsername, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidInput(err) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Genre != "" {
		clauses = append(clauses, fmt.Sprintf("b.genre ILIKE $%d", argn))
		args = append(args, q.Genre)
		argn++
	}

	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(b.title ILIKE $%d OR b.authors ILIKE $%d)", argn, argn))
		args = append(args, "%"+q.Q+"%")
		argn++
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM books b %s", where)
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT %s
		FROM books b
		JOIN users u ON u.id = b.created_by
		%s
		ORDER BY b.created_at DESC, b.id
		LIMIT $%d OFFSET $%d`,
		bookColumns, where, argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, q.Limit, q.Offset)
	rows, err := r.db.Query(timeoutCtx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b JOIN users u ON u.id = b.created_by WHERE b.id = $1 LIMIT 1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, query, id))
}

func (r *PostgresRepo) Create(ctx context.Context, book *Book) error {
	query := `
	WITH b AS (
		INSERT INTO books (title, authors, genre, publication_date, description, created_by)
		VALUES ($1, $2, $3, $4::date, NULLIF($5, ''), $6)
		RETURNING *
	)
	SELECT ` + bookColumns + ` FROM b JOIN users u ON u.id = b.created_by`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	created, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		book.Title, book.Authors, book.Genre, book.PublicationDate, book.Description, book.CreatedBy,
	))
	if err != nil {
		return err
	}
	*book = created
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, u Update) (Book, error) {
	fields := []string{}
	args := []any{}
	argn := 1

	add := func(expr string, value *string) {
		if value == nil {
			return
		}
		fields = append(fields, fmt.Sprintf(expr, argn))
		args = append(args, *value)
		argn++
	}
	add("title = $%d", u.Title)
	add("authors = $%d", u.Authors)
	add("genre = $%d", u.Genre)
	add("publication_date = $%d::date", u.PublicationDate)
	add("description = NULLIF($%d, '')", u.Description)

	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}

	fields = append(fields, "updated_at = now()")
	args = append(args, id)

	query := `
	WITH b AS (
		UPDATE books SET ` + strings.Join(fields, ", ") + `
		WHERE id = $` + strconv.Itoa(argn) + `
		RETURNING *
	)
	SELECT ` + bookColumns + ` FROM b JOIN users u ON u.id = b.created_by`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, query, args...))
}

// Delete takes the book out of every reading list, closing the gap it leaves
// in each, and then removes it.
//
// The book row is locked first. An item insert that references the book holds
// a key-share lock on it, so by the time the lock is granted every such insert
// has committed and is visible below, and later inserts fail the foreign key.
func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	var locked string
	err = tx.QueryRow(timeoutCtx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidInput(err) {
			return ErrNotFound
		}
		return fmt.Errorf("lock book: %w", err)
	}

	// Lists in id order so concurrent list edits queue behind us.
	const lockLists = `
	SELECT rl.id FROM reading_lists rl
	WHERE rl.id IN (SELECT reading_list_id FROM reading_list_items WHERE book_id = $1)
	ORDER BY rl.id
	FOR UPDATE
	`
	if _, err := tx.Exec(timeoutCtx, lockLists, id); err != nil {
		return fmt.Errorf("lock lists: %w", err)
	}

	rows, err := tx.Query(timeoutCtx, `DELETE FROM reading_list_items WHERE book_id = $1 RETURNING reading_list_id, position`, id)
	if err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	type removed struct {
		listID   string
		position int
	}
	var gone []removed
	for rows.Next() {
		var rm removed
		if err := rows.Scan(&rm.listID, &rm.position); err != nil {
			rows.Close()
			return err
		}
		gone = append(gone, rm)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	const compact = `
	UPDATE reading_list_items
	SET position = position - 1
	WHERE reading_list_id = $1 AND position > $2
	`
	for _, rm := range gone {
		if _, err := tx.Exec(timeoutCtx, compact, rm.listID, rm.position); err != nil {
			return fmt.Errorf("compact list %s: %w", rm.listID, err)
		}
	}

	if _, err := tx.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return tx.Commit(timeoutCtx)
}
