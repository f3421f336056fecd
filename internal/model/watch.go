package model

import "time"

// WatchStatus is the lifecycle state of a persistent watch.
type WatchStatus string

const (
	WatchActive WatchStatus = "active"
	WatchPaused WatchStatus = "paused"
	WatchError  WatchStatus = "error"
)

// Watch is a persistent, scheduled re-fetch of a URL (C12).
type Watch struct {
	ID                  string
	AccountID           string
	URL                 string
	WebhookURL          string
	CheckIntervalMinutes int
	Selector            string
	LastFingerprint     string
	LastContent         string
	LastCheckedAt       *time.Time
	LastChangedAt       *time.Time
	ChangeCount         int64
	Status              WatchStatus
	ErrorMessage        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// JobType enumerates the kinds of async work the job queue runs.
type JobType string

const (
	JobBatch     JobType = "batch"
	JobCrawl     JobType = "crawl"
	JobAgent     JobType = "agent"
	JobDeepFetch JobType = "deepFetch"
)

// JobStatus is the job lifecycle state (§4.11).
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is an async unit of work tracked through its lifecycle and purged
// 24h after reaching a terminal state.
type Job struct {
	ID          string
	Type        JobType
	Status      JobStatus
	Total       int
	Completed   int
	CreditsUsed float64
	Data        map[string]any
	Error       string
	WebhookURL  string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// ParagraphDiff is the paragraph-level added/removed set computed by
// the watch manager's change check (§4.12).
type ParagraphDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// IsTerminal reports whether the job has reached a terminal status.
func (j JobStatus) IsTerminal() bool {
	switch j {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}
