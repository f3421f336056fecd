package db

import (
	"context"
	"database/sql"
	"time"
)

// APIKey mirrors the api_keys row shape, matching ncecere-raito's
// db.ApiKey field naming so internal/store's wrapping code reads the
// same way against either.
type APIKey struct {
	ID                 string
	KeyHash            string
	Label              string
	IsAdmin            bool
	RateLimitPerMinute sql.NullInt32
	CreatedAt          time.Time
}

type InsertAPIKeyParams struct {
	ID                 string
	KeyHash            string
	Label              string
	IsAdmin            bool
	RateLimitPerMinute sql.NullInt32
}

func (q *Queries) InsertAPIKey(ctx context.Context, arg InsertAPIKeyParams) (APIKey, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO api_keys (id, key_hash, label, is_admin, rate_limit_per_minute)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, key_hash, label, is_admin, rate_limit_per_minute, created_at
	`, arg.ID, arg.KeyHash, arg.Label, arg.IsAdmin, arg.RateLimitPerMinute)

	var out APIKey
	err := row.Scan(&out.ID, &out.KeyHash, &out.Label, &out.IsAdmin, &out.RateLimitPerMinute, &out.CreatedAt)
	return out, err
}

func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (APIKey, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, key_hash, label, is_admin, rate_limit_per_minute, created_at
		FROM api_keys WHERE key_hash = $1
	`, keyHash)

	var out APIKey
	err := row.Scan(&out.ID, &out.KeyHash, &out.Label, &out.IsAdmin, &out.RateLimitPerMinute, &out.CreatedAt)
	return out, err
}

func (q *Queries) DeleteAPIKey(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	return err
}
