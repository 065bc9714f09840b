package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

// InsertGrant appends a premium grant
func (db *DB) InsertGrant(ctx context.Context, g *models.AdminGrant) error {
	query := `
		INSERT INTO admin_grants (id, user_id, granted_by, granted_at, expires_at, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.conn.ExecContext(ctx, query,
		g.ID,
		g.UserID,
		g.GrantedBy,
		g.GrantedAt,
		g.ExpiresAt,
		g.Reason,
		g.Status,
	)
	if err != nil {
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

// RevokeGrants marks every active grant of a user as revoked and returns
// how many were changed. Rows are kept for the audit trail.
func (db *DB) RevokeGrants(ctx context.Context, userID, revokedBy, reason string, at time.Time) (int64, error) {
	query := `
		UPDATE admin_grants
		SET status = 'revoked', revoked_at = $2, revoked_by = $3, revoke_reason = $4
		WHERE user_id = $1 AND status = 'active'
	`
	res, err := db.conn.ExecContext(ctx, query, userID, at, revokedBy, reason)
	if err != nil {
		return 0, fmt.Errorf("revoke grants: %w", err)
	}
	return res.RowsAffected()
}

// ActiveGrant returns the newest active grant that has not expired at now
func (db *DB) ActiveGrant(ctx context.Context, userID string, now time.Time) (*models.AdminGrant, error) {
	query := `
		SELECT id, user_id, granted_by, granted_at, expires_at, reason, status,
		       revoked_at, revoked_by, revoke_reason
		FROM admin_grants
		WHERE user_id = $1 AND status = 'active' AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY granted_at DESC
		LIMIT 1
	`

	var g models.AdminGrant
	err := db.conn.QueryRowContext(ctx, query, userID, now).Scan(
		&g.ID,
		&g.UserID,
		&g.GrantedBy,
		&g.GrantedAt,
		&g.ExpiresAt,
		&g.Reason,
		&g.Status,
		&g.RevokedAt,
		&g.RevokedBy,
		&g.RevokeReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &g, nil
}

// ListGrants returns the full grant history joined with user details
func (db *DB) ListGrants(ctx context.Context) ([]models.AdminGrantView, error) {
	query := `
		SELECT g.id, g.user_id, g.granted_by, g.granted_at, g.expires_at, g.reason, g.status,
		       g.revoked_at, g.revoked_by, g.revoke_reason, u.email, u.name
		FROM admin_grants g
		LEFT JOIN users u ON u.id = g.user_id
		ORDER BY g.granted_at
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var grants []models.AdminGrantView
	for rows.Next() {
		var v models.AdminGrantView
		if err := rows.Scan(
			&v.ID,
			&v.UserID,
			&v.GrantedBy,
			&v.GrantedAt,
			&v.ExpiresAt,
			&v.Reason,
			&v.Status,
			&v.RevokedAt,
			&v.RevokedBy,
			&v.RevokeReason,
			&v.UserEmail,
			&v.UserName,
		); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return grants, nil
}
