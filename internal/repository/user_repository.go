package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/secureleak/report-service/internal/domain"
)

// userMutableColumns is the allow-list for partial user updates. Email
// and id are immutable; role changes go through this list only via
// admin-driven code paths.
var userMutableColumns = map[string]struct{}{
	"username":      {},
	"password_hash": {},
	"role":          {},
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, username, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT id, email, username, password_hash, role, created_at, updated_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, username, password_hash, role, created_at, updated_at
        FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

// UpdateFields applies a partial update restricted to the allow-listed
// mutable columns. Unknown keys are rejected before any SQL is built.
func (r *userRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	sets, args, err := buildAllowListedUpdate(fields, userMutableColumns)
	if err != nil {
		return err
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s, updated_at=NOW() WHERE id=$%d",
		strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// buildAllowListedUpdate turns an allow-listed field map into SET clauses
// and positional args. Column names come only from the allow-list, never
// from the input map keys themselves, so no caller-controlled identifier
// ever reaches the SQL text.
func buildAllowListedUpdate(fields map[string]any, allowed map[string]struct{}) ([]string, []any, error) {
	if len(fields) == 0 {
		return nil, nil, ErrNoFields
	}
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for column, value := range fields {
		if _, ok := allowed[column]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrColumnNotAllowed, column)
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	return sets, args, nil
}
