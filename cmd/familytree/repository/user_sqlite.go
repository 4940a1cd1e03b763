package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vanshavali/familytree/common/db"
	"github.com/vanshavali/familytree/common/models"
)

// SQLiteUserRepository handles accounts in the embedded store
type SQLiteUserRepository struct {
	db *db.SQLite
}

// NewSQLiteUserRepository creates a new user repository
func NewSQLiteUserRepository(database *db.SQLite) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: database}
}

// Create inserts a user; a taken email is reported as models.ErrDuplicate
func (r *SQLiteUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, u.ID.String(), u.Email, u.PasswordHash, u.CreatedAt); err != nil {
		if isSQLiteUnique(err) {
			return fmt.Errorf("user %s: %w", u.Email, models.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}
