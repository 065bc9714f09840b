package database

import (
	"context"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

// LogChatUsage records one chat request
func (db *DB) LogChatUsage(ctx context.Context, u *models.ChatUsage) error {
	query := `
		INSERT INTO chat_usage (
			user_id, model_id, provider, backend_model, latency_ms, prompt_tokens,
			completion_tokens, total_tokens, cache_hit, failover_used, status_code, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := db.conn.ExecContext(ctx,
		query,
		u.UserID,
		u.ModelID,
		u.Provider,
		u.BackendModel,
		u.LatencyMs,
		u.PromptTokens,
		u.CompletionTokens,
		u.TotalTokens,
		u.CacheHit,
		u.FailoverUsed,
		u.StatusCode,
		u.ErrorMessage,
		u.CreatedAt,
	)

	return err
}
