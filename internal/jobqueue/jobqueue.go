// Package jobqueue implements the async job lifecycle of spec §4.11
// (C11): createJob/updateJob/getJob/cancelJob/listJobs, the
// pending→running→{completed,failed,cancelled} status machine, webhook
// event delivery, and a bounded-concurrency batch worker pool. The
// in-memory store plus status-transition vocabulary is grounded on
// ncecere-raito's internal/jobs/status.go (Status constants) and
// runner.go (semaphore-bounded dispatch loop); webhook delivery is
// grounded on Easonliuliang-purify's webhook/webhook.go (HMAC-SHA256
// signed POST, sent once from a goroutine with no retry; failures are
// logged).
package jobqueue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"webpeel/internal/model"
)

var ErrJobNotFound = errors.New("jobqueue: job not found")
var ErrNotCancellable = errors.New("jobqueue: job is not pending or running")

const jobRetention = 24 * time.Hour

// Filter narrows listJobs results.
type Filter struct {
	Type   model.JobType
	Status model.JobStatus
}

// Queue tracks jobs in memory and fires webhook events on lifecycle
// transitions. Terminal jobs are purged jobRetention after completion.
type Queue struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	notifier Notifier
}

// Notifier delivers a webhook event; implemented by Webhook (see
// webhook.go) in production and a recording fake in tests.
type Notifier interface {
	Notify(jobID, webhookURL, eventType string, data any)
}

func New(notifier Notifier) *Queue {
	return &Queue{
		jobs:     make(map[string]*model.Job),
		notifier: notifier,
	}
}

// CreateJob implements createJob(type, webhookUrl?).
func (q *Queue) CreateJob(jobType model.JobType, webhookURL string, total int) *model.Job {
	job := &model.Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Status:     model.JobPending,
		Total:      total,
		Data:       make(map[string]any),
		WebhookURL: webhookURL,
		CreatedAt:  time.Now(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()
	return job
}

// GetJob implements getJob(id).
func (q *Queue) GetJob(id string) (*model.Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

// ListJobs implements listJobs(filter).
func (q *Queue) ListJobs(filter Filter) []*model.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []*model.Job
	for _, job := range q.jobs {
		if filter.Type != "" && job.Type != filter.Type {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		clone := *job
		out = append(out, &clone)
	}
	return out
}

// Patch carries the mutable fields updateJob(id, patch) may apply.
type Patch struct {
	Status      *model.JobStatus
	Completed   *int
	CreditsUsed *float64
	Error       *string
	Data        map[string]any
}

// UpdateJob implements updateJob(id, patch), firing the matching
// webhook event on status transitions into running or a terminal
// state, and stamping ExpiresAt when a terminal state is reached.
func (q *Queue) UpdateJob(id string, patch Patch) (*model.Job, error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return nil, ErrJobNotFound
	}

	prevStatus := job.Status
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Completed != nil {
		job.Completed = *patch.Completed
	}
	if patch.CreditsUsed != nil {
		job.CreditsUsed = *patch.CreditsUsed
	}
	if patch.Error != nil {
		job.Error = *patch.Error
	}
	for k, v := range patch.Data {
		job.Data[k] = v
	}
	if job.Status.IsTerminal() && job.ExpiresAt.IsZero() {
		job.ExpiresAt = time.Now().Add(jobRetention)
	}

	clone := *job
	q.mu.Unlock()

	q.fireTransitionEvent(&clone, prevStatus)
	return &clone, nil
}

func (q *Queue) fireTransitionEvent(job *model.Job, prevStatus model.JobStatus) {
	if job.WebhookURL == "" || q.notifier == nil || job.Status == prevStatus {
		return
	}
	switch job.Status {
	case model.JobRunning:
		q.notifier.Notify(job.ID, job.WebhookURL, "started", job)
	case model.JobCompleted:
		q.notifier.Notify(job.ID, job.WebhookURL, "completed", job)
	case model.JobFailed:
		q.notifier.Notify(job.ID, job.WebhookURL, "failed", job)
	case model.JobCancelled:
		q.notifier.Notify(job.ID, job.WebhookURL, "cancelled", job)
	}
}

// ReportProgress emits a best-effort "page" progress webhook without
// altering job status (spec §4.11's per-unit progress event).
func (q *Queue) ReportProgress(id string, data any) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok || job.WebhookURL == "" || q.notifier == nil {
		return
	}
	q.notifier.Notify(job.ID, job.WebhookURL, "page", data)
}

// CancelJob implements cancelJob(id) → bool, only succeeding from
// pending or running.
func (q *Queue) CancelJob(id string) (bool, error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return false, ErrJobNotFound
	}
	if job.Status != model.JobPending && job.Status != model.JobRunning {
		q.mu.Unlock()
		return false, ErrNotCancellable
	}
	prevStatus := job.Status
	job.Status = model.JobCancelled
	job.ExpiresAt = time.Now().Add(jobRetention)
	clone := *job
	q.mu.Unlock()

	q.fireTransitionEvent(&clone, prevStatus)
	return true, nil
}

// IncrementCompleted atomically bumps the job's completed-unit counter,
// used by batch workers so concurrent unit completions never race a
// read-modify-write over GetJob+UpdateJob.
func (q *Queue) IncrementCompleted(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		job.Completed++
	}
}

// PurgeExpired removes terminal jobs past their ExpiresAt, per spec
// §4.11's "purged at expiresAt".
func (q *Queue) PurgeExpired(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	purged := 0
	for id, job := range q.jobs {
		if job.Status.IsTerminal() && !job.ExpiresAt.IsZero() && now.After(job.ExpiresAt) {
			delete(q.jobs, id)
			purged++
		}
	}
	return purged
}

// IsCancelled is a convenience check batch workers use in their loop to
// respect cancellation on each iteration (spec §4.11).
func (q *Queue) IsCancelled(id string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[id]
	return ok && job.Status == model.JobCancelled
}
