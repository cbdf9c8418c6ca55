package user

import (
	"context"
	"errors"
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

const userColumns = `id, username, email, password_hash, first_name, last_name, role, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidInput(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	const query = `
	INSERT INTO users (username, email, password_hash, first_name, last_name, role)
	VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'USER'))
	RETURNING id, role, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, u.Username, u.Email, u.Password, u.FirstName, u.LastName, u.Role).
		Scan(&u.ID, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id))
}

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, `SELECT `+userColumns+` FROM users WHERE username = $1 LIMIT 1`, username))
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email))
}

func (r *PostgresRepo) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	fields := []string{}
	args := []any{}
	argn := 1

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		fields = append(fields, column+" = $"+strconv.Itoa(argn))
		args = append(args, *value)
		argn++
	}
	add("email", update.Email)
	add("first_name", update.FirstName)
	add("last_name", update.LastName)

	if len(fields) == 0 {
		return r.GetByID(ctx, userID)
	}

	fields = append(fields, "updated_at = now()")
	args = append(args, userID)

	query := "UPDATE users SET " + strings.Join(fields, ", ") + " WHERE id = $" + strconv.Itoa(argn) + " RETURNING " + userColumns
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	u, err := scanUser(r.db.QueryRow(timeoutCtx, query, args...))
	if postgres.IsUniqueViolation(err) {
		return User{}, ErrEmailTaken
	}
	return u, err
}
