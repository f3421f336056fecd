package db

import (
	"context"
	"database/sql"
	"time"
)

// Watch mirrors the watches table row.
type Watch struct {
	ID                   string
	AccountID            sql.NullString
	Url                  string
	WebhookUrl           sql.NullString
	CheckIntervalMinutes int32
	Selector             sql.NullString
	LastFingerprint      sql.NullString
	LastContent          sql.NullString
	LastCheckedAt        sql.NullTime
	LastChangedAt        sql.NullTime
	ChangeCount          int64
	Status               string
	ErrorMessage         sql.NullString
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type InsertWatchParams struct {
	ID                   string
	AccountID            sql.NullString
	Url                  string
	WebhookUrl           sql.NullString
	CheckIntervalMinutes int32
	Selector             sql.NullString
}

func (q *Queries) InsertWatch(ctx context.Context, arg InsertWatchParams) (Watch, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO watches (id, account_id, url, webhook_url, check_interval_minutes, selector, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'active')
		RETURNING id, account_id, url, webhook_url, check_interval_minutes, selector,
			last_fingerprint, last_content, last_checked_at, last_changed_at,
			change_count, status, error_message, created_at, updated_at
	`, arg.ID, arg.AccountID, arg.Url, arg.WebhookUrl, arg.CheckIntervalMinutes, arg.Selector)
	return scanWatch(row)
}

func (q *Queries) GetWatch(ctx context.Context, id string) (Watch, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, account_id, url, webhook_url, check_interval_minutes, selector,
			last_fingerprint, last_content, last_checked_at, last_changed_at,
			change_count, status, error_message, created_at, updated_at
		FROM watches WHERE id = $1
	`, id)
	return scanWatch(row)
}

func (q *Queries) ListWatchesByAccount(ctx context.Context, accountID string) ([]Watch, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, url, webhook_url, check_interval_minutes, selector,
			last_fingerprint, last_content, last_checked_at, last_changed_at,
			change_count, status, error_message, created_at, updated_at
		FROM watches WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWatches(rows)
}

// DueWatches returns active watches whose interval has elapsed (or that
// have never been checked), oldest-checked first, capped at limit.
func (q *Queries) DueWatches(ctx context.Context, now time.Time, limit int32) ([]Watch, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, url, webhook_url, check_interval_minutes, selector,
			last_fingerprint, last_content, last_checked_at, last_changed_at,
			change_count, status, error_message, created_at, updated_at
		FROM watches
		WHERE status = 'active'
		  AND (last_checked_at IS NULL
		       OR last_checked_at < $1 - (GREATEST(check_interval_minutes, 5) * interval '1 minute'))
		ORDER BY COALESCE(last_checked_at, to_timestamp(0)) ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWatches(rows)
}

type UpdateWatchParams struct {
	ID              string
	LastFingerprint sql.NullString
	LastContent     sql.NullString
	LastCheckedAt   sql.NullTime
	LastChangedAt   sql.NullTime
	ChangeCount     int64
	Status          string
	ErrorMessage    sql.NullString
}

func (q *Queries) UpdateWatch(ctx context.Context, arg UpdateWatchParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE watches SET
			last_fingerprint = $2,
			last_content = $3,
			last_checked_at = $4,
			last_changed_at = $5,
			change_count = $6,
			status = $7,
			error_message = $8,
			updated_at = now()
		WHERE id = $1
	`, arg.ID, arg.LastFingerprint, arg.LastContent, arg.LastCheckedAt, arg.LastChangedAt,
		arg.ChangeCount, arg.Status, arg.ErrorMessage)
	return err
}

func (q *Queries) DeleteWatch(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM watches WHERE id = $1`, id)
	return err
}

func scanWatch(row *sql.Row) (Watch, error) {
	var w Watch
	err := row.Scan(
		&w.ID, &w.AccountID, &w.Url, &w.WebhookUrl, &w.CheckIntervalMinutes, &w.Selector,
		&w.LastFingerprint, &w.LastContent, &w.LastCheckedAt, &w.LastChangedAt,
		&w.ChangeCount, &w.Status, &w.ErrorMessage, &w.CreatedAt, &w.UpdatedAt,
	)
	return w, err
}

func scanWatches(rows *sql.Rows) ([]Watch, error) {
	var out []Watch
	for rows.Next() {
		var w Watch
		if err := rows.Scan(
			&w.ID, &w.AccountID, &w.Url, &w.WebhookUrl, &w.CheckIntervalMinutes, &w.Selector,
			&w.LastFingerprint, &w.LastContent, &w.LastCheckedAt, &w.LastChangedAt,
			&w.ChangeCount, &w.Status, &w.ErrorMessage, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
