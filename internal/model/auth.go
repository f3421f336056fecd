package model

import "time"

// APIKey is the persisted row behind quota and watch ownership; the raw
// key is never stored, only its SHA-256 hash, per spec §9's persistent
// state section.
type APIKey struct {
	ID                  string
	KeyHash             string
	Label               string
	IsAdmin             bool
	RateLimitPerMinute  *int32
	CreatedAt           time.Time
}
