package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

// UpsertPayment writes a payment record in a single statement keyed on id.
//
// The first status written for an id is kept: a replayed or out-of-order
// webhook only refreshes metadata and updated_at, and fills user_id if it
// was unknown. Concurrent writers for one id are serialised by the
// primary key conflict, so at most one row ever exists.
func (db *DB) UpsertPayment(ctx context.Context, p *models.PaymentRecord) (*models.UpsertResult, error) {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	var customer *string
	if p.Customer != nil {
		b, err := json.Marshal(p.Customer)
		if err != nil {
			return nil, fmt.Errorf("marshal customer: %w", err)
		}
		s := string(b)
		customer = &s
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO payments (
			id, status, total_amount, currency, payment_method, user_id,
			error_code, error_message, metadata, customer, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (id) DO UPDATE SET
			metadata   = EXCLUDED.metadata,
			user_id    = COALESCE(payments.user_id, EXCLUDED.user_id),
			updated_at = NOW()
		RETURNING status, (xmax = 0) AS inserted
	`

	var res models.UpsertResult
	var status string
	err = db.conn.QueryRowContext(ctx, query,
		p.ID,
		string(p.Status),
		p.TotalAmount,
		p.Currency,
		p.PaymentMethod,
		p.UserID,
		p.ErrorCode,
		p.ErrorMessage,
		string(metadata),
		customer,
		createdAt,
	).Scan(&status, &res.Inserted)
	if err != nil {
		return nil, fmt.Errorf("upsert payment %s: %w", p.ID, err)
	}

	res.Status = models.PaymentStatus(status)
	return &res, nil
}

// LatestSucceededPayment returns the user's most recent succeeded payment
func (db *DB) LatestSucceededPayment(ctx context.Context, userID string) (*models.PaymentRecord, error) {
	query := `
		SELECT id, status, total_amount, currency, payment_method, user_id,
		       error_code, error_message, metadata, created_at, updated_at
		FROM payments
		WHERE user_id = $1 AND status = 'succeeded'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p models.PaymentRecord
	var status string
	var metadata []byte
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&p.ID,
		&status,
		&p.TotalAmount,
		&p.Currency,
		&p.PaymentMethod,
		&p.UserID,
		&p.ErrorCode,
		&p.ErrorMessage,
		&metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	p.Status = models.PaymentStatus(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", p.ID, err)
		}
	}
	return &p, nil
}
