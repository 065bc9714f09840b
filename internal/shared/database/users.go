package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

const userColumns = `id, name, email, email_verified, image, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.EmailVerified,
		&u.Image,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserIDByEmail resolves a customer email to a user id.
func (db *DB) FindUserIDByEmail(ctx context.Context, email string) (string, error) {
	query := `SELECT id FROM users WHERE lower(email) = lower($1)`

	var id string
	err := db.conn.QueryRowContext(ctx, query, strings.TrimSpace(email)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}
	return id, nil
}

// GetUser retrieves a user by id
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	u, err := scanUser(db.conn.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return u, nil
}

// searchPattern builds an ILIKE pattern, escaping wildcards in the input.
func searchPattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}

// ListUsers returns users newest first. An empty search matches everyone,
// otherwise name or email must contain it case-insensitively.
func (db *DB) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE $1 = '' OR name ILIKE $2 OR email ILIKE $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := db.conn.QueryContext(ctx, query, strings.TrimSpace(search), searchPattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return users, nil
}

// CountUsers counts users matching the same filter as ListUsers
func (db *DB) CountUsers(ctx context.Context, search string) (int, error) {
	query := `SELECT count(*) FROM users WHERE $1 = '' OR name ILIKE $2 OR email ILIKE $2`

	var n int
	if err := db.conn.QueryRowContext(ctx, query, strings.TrimSpace(search), searchPattern(search)).Scan(&n); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return n, nil
}
