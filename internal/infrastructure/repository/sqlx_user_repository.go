package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"user-service/internal/domain/user"

	"github.com/jmoiron/sqlx"
)

const userColumns = "id, name, email, age, created_at"

// SqlxUserRepository implements UserRepository with hand-written SQL over sqlx
type SqlxUserRepository struct {
	db *sqlx.DB
}

// NewSqlxUserRepository creates a new sqlx user repository
func NewSqlxUserRepository(db *sqlx.DB) *SqlxUserRepository {
	return &SqlxUserRepository{db: db}
}

// Save inserts a new user or updates the mutable fields of an existing one
func (r *SqlxUserRepository) Save(ctx context.Context, u *user.User) error {
	if u.IsNew() {
		row := r.db.QueryRowxContext(ctx,
			`INSERT INTO users (name, email, age, created_at) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
			u.Name, u.Email, u.Age, u.CreatedAt)
		if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
			return r.translate(u, err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $1, email = $2, age = $3 WHERE id = $4`,
		u.Name, u.Email, u.Age, u.ID)
	if err != nil {
		return r.translate(u, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d does not exist", u.ID)
	}
	return nil
}

// FindByID retrieves a user by ID
func (r *SqlxUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail retrieves a user by email
func (r *SqlxUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindAll returns all users ordered by ID
func (r *SqlxUserRepository) FindAll(ctx context.Context) ([]*user.User, error) {
	users := []*user.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByNameContaining matches name case-insensitively
func (r *SqlxUserRepository) FindByNameContaining(ctx context.Context, substring string) ([]*user.User, error) {
	users := []*user.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE LOWER(name) LIKE $1 ORDER BY id`,
		containsPattern(substring))
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ExistsByEmail reports whether any user holds email
func (r *SqlxUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	return exists, err
}

// DeleteByID hard-deletes a user
func (r *SqlxUserRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// Count returns the number of users
func (r *SqlxUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (r *SqlxUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var u user.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *SqlxUserRepository) translate(u *user.User, err error) error {
	if isDuplicateKey(err) {
		return fmt.Errorf("email %s: %w", u.Email, user.ErrDuplicateKey)
	}
	return err
}

var _ user.UserRepository = (*SqlxUserRepository)(nil)
