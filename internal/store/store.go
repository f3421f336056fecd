// Package store wraps internal/db exactly as ncecere-raito's
// store.Store does: UUID generation, SHA-256 API-key hashing, and the
// translation between db rows and model types at the boundary. It backs
// internal/watch's Store interface directly so the watch manager talks
// to Postgres through the same wrapper the HTTP layer uses for watch
// CRUD and API-key auth.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"webpeel/internal/db"
	"webpeel/internal/model"
)

var ErrNotFound = errors.New("store: not found")

// Store wraps access to the database via the hand-written db.Queries.
type Store struct {
	DB *sql.DB
}

func New(database *sql.DB) *Store {
	return &Store{DB: database}
}

func (s *Store) queries() *db.Queries {
	return db.New(s.DB)
}

func hashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// newID prefers UUIDv7 (time-ordered, matching the teacher's job-ID
// generation) and falls back to v4 if the runtime can't produce one.
func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}

// --- API keys ---

// CreateRandomAPIKey generates a new random API key with a "wp_" prefix
// and stores only its SHA-256 hash, returning the raw key once (it is
// never retrievable again) alongside the stored record.
func (s *Store) CreateRandomAPIKey(ctx context.Context, label string, isAdmin bool, rateLimitPerMinute *int32) (string, model.APIKey, error) {
	raw := "wp_" + uuid.NewString()
	hash := hashAPIKey(raw)

	var rl sql.NullInt32
	if rateLimitPerMinute != nil {
		rl = sql.NullInt32{Int32: *rateLimitPerMinute, Valid: true}
	}

	row, err := s.queries().InsertAPIKey(ctx, db.InsertAPIKeyParams{
		ID:                 newID(),
		KeyHash:            hash,
		Label:              label,
		IsAdmin:            isAdmin,
		RateLimitPerMinute: rl,
	})
	if err != nil {
		return "", model.APIKey{}, err
	}
	return raw, apiKeyFromRow(row), nil
}

// EnsureAdminAPIKey returns the existing admin key matching rawKey, or
// creates one if none exists yet, for first-run bootstrap.
func (s *Store) EnsureAdminAPIKey(ctx context.Context, rawKey, label string) (model.APIKey, error) {
	hash := hashAPIKey(rawKey)
	existing, err := s.queries().GetAPIKeyByHash(ctx, hash)
	if err == nil {
		return apiKeyFromRow(existing), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.APIKey{}, err
	}

	row, err := s.queries().InsertAPIKey(ctx, db.InsertAPIKeyParams{
		ID:      newID(),
		KeyHash: hash,
		Label:   label,
		IsAdmin: true,
	})
	if err != nil {
		return model.APIKey{}, err
	}
	return apiKeyFromRow(row), nil
}

// GetAPIKeyByRawKey hashes rawKey and looks up the matching stored row.
func (s *Store) GetAPIKeyByRawKey(ctx context.Context, rawKey string) (model.APIKey, error) {
	row, err := s.queries().GetAPIKeyByHash(ctx, hashAPIKey(rawKey))
	if errors.Is(err, sql.ErrNoRows) {
		return model.APIKey{}, ErrNotFound
	}
	if err != nil {
		return model.APIKey{}, err
	}
	return apiKeyFromRow(row), nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	return s.queries().DeleteAPIKey(ctx, id)
}

func apiKeyFromRow(row db.APIKey) model.APIKey {
	key := model.APIKey{
		ID:        row.ID,
		KeyHash:   row.KeyHash,
		Label:     row.Label,
		IsAdmin:   row.IsAdmin,
		CreatedAt: row.CreatedAt,
	}
	if row.RateLimitPerMinute.Valid {
		v := row.RateLimitPerMinute.Int32
		key.RateLimitPerMinute = &v
	}
	return key
}

// --- Watches ---

// CreateWatch inserts a new watch row for accountID (an API key ID).
func (s *Store) CreateWatch(ctx context.Context, accountID, url, webhookURL, selector string, checkIntervalMinutes int32) (*model.Watch, error) {
	row, err := s.queries().InsertWatch(ctx, db.InsertWatchParams{
		ID:                   newID(),
		AccountID:            nullString(accountID),
		Url:                  url,
		WebhookUrl:           nullString(webhookURL),
		CheckIntervalMinutes: checkIntervalMinutes,
		Selector:             nullString(selector),
	})
	if err != nil {
		return nil, err
	}
	return watchFromRow(row), nil
}

func (s *Store) GetWatch(ctx context.Context, id string) (*model.Watch, error) {
	row, err := s.queries().GetWatch(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return watchFromRow(row), nil
}

func (s *Store) ListWatchesByAccount(ctx context.Context, accountID string) ([]*model.Watch, error) {
	rows, err := s.queries().ListWatchesByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Watch, 0, len(rows))
	for _, row := range rows {
		out = append(out, watchFromRow(row))
	}
	return out, nil
}

func (s *Store) DeleteWatch(ctx context.Context, id string) error {
	return s.queries().DeleteWatch(ctx, id)
}

// DueWatches implements internal/watch's Store interface.
func (s *Store) DueWatches(ctx context.Context, now time.Time, limit int) ([]*model.Watch, error) {
	rows, err := s.queries().DueWatches(ctx, now, int32(limit))
	if err != nil {
		return nil, err
	}
	out := make([]*model.Watch, 0, len(rows))
	for _, row := range rows {
		out = append(out, watchFromRow(row))
	}
	return out, nil
}

// UpdateWatch implements internal/watch's Store interface, persisting
// the fields the watch manager's check() mutates in place.
func (s *Store) UpdateWatch(ctx context.Context, w *model.Watch) error {
	var lastChecked, lastChanged sql.NullTime
	if w.LastCheckedAt != nil {
		lastChecked = sql.NullTime{Time: *w.LastCheckedAt, Valid: true}
	}
	if w.LastChangedAt != nil {
		lastChanged = sql.NullTime{Time: *w.LastChangedAt, Valid: true}
	}

	return s.queries().UpdateWatch(ctx, db.UpdateWatchParams{
		ID:              w.ID,
		LastFingerprint: nullString(w.LastFingerprint),
		LastContent:     nullString(w.LastContent),
		LastCheckedAt:   lastChecked,
		LastChangedAt:   lastChanged,
		ChangeCount:     w.ChangeCount,
		Status:          string(w.Status),
		ErrorMessage:    nullString(w.ErrorMessage),
	})
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func watchFromRow(row db.Watch) *model.Watch {
	w := &model.Watch{
		ID:                   row.ID,
		URL:                  row.Url,
		CheckIntervalMinutes: int(row.CheckIntervalMinutes),
		ChangeCount:          row.ChangeCount,
		Status:               model.WatchStatus(row.Status),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	if row.AccountID.Valid {
		w.AccountID = row.AccountID.String
	}
	if row.WebhookUrl.Valid {
		w.WebhookURL = row.WebhookUrl.String
	}
	if row.Selector.Valid {
		w.Selector = row.Selector.String
	}
	if row.LastFingerprint.Valid {
		w.LastFingerprint = row.LastFingerprint.String
	}
	if row.LastContent.Valid {
		w.LastContent = row.LastContent.String
	}
	if row.LastCheckedAt.Valid {
		t := row.LastCheckedAt.Time
		w.LastCheckedAt = &t
	}
	if row.LastChangedAt.Valid {
		t := row.LastChangedAt.Time
		w.LastChangedAt = &t
	}
	if row.ErrorMessage.Valid {
		w.ErrorMessage = row.ErrorMessage.String
	}
	return w
}
