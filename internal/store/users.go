// Package store is the PostgreSQL-backed user directory.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/vaughan-dsouza/BeAuth/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

const CodeStoreFailed = "STORE_FAILED"

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail returns ErrNotFound when no user has the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, name, email, password, role, created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1
	`, email)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code(CodeStoreFailed).
			With("operation", "get user by email").
			Wrap(err)
	}
	return &u, nil
}

// Create inserts u and fills in its generated id and timestamps.
// A unique violation on email is reported as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.Password, u.Role).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code(CodeStoreFailed).
				With("operation", "insert user").
				With("constraint", pgErr.ConstraintName).
				Wrap(ErrDuplicate)
		}
		return nil, oops.Code(CodeStoreFailed).
			With("operation", "insert user").
			Wrap(err)
	}
	return u, nil
}

// List returns every user without the password column.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, oops.Code(CodeStoreFailed).
			With("operation", "list users").
			Wrap(err)
	}
	return users, nil
}
