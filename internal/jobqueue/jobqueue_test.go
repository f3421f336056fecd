package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"webpeel/internal/model"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) Notify(jobID, webhookURL, eventType string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestCreateJobStartsPending(t *testing.T) {
	q := New(nil)
	job := q.CreateJob(model.JobBatch, "", 3)
	if job.Status != model.JobPending {
		t.Fatalf("expected pending, got %v", job.Status)
	}
}

func TestUpdateJobTransitionsFireWebhook(t *testing.T) {
	notifier := &recordingNotifier{}
	q := New(notifier)
	job := q.CreateJob(model.JobBatch, "https://example.com/hook", 1)

	running := model.JobRunning
	if _, err := q.UpdateJob(job.ID, Patch{Status: &running}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	completed := model.JobCompleted
	if _, err := q.UpdateJob(job.ID, Patch{Status: &completed}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	// Webhook delivery is async; give it a moment.
	time.Sleep(10 * time.Millisecond)
	if notifier.count() != 2 {
		t.Fatalf("expected started+completed events, got %d", notifier.count())
	}
}

func TestUpdateJobSetsExpiresAtOnTerminal(t *testing.T) {
	q := New(nil)
	job := q.CreateJob(model.JobBatch, "", 1)
	failed := model.JobFailed
	updated, err := q.UpdateJob(job.ID, Patch{Status: &failed})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if updated.ExpiresAt.IsZero() {
		t.Fatalf("expected ExpiresAt set on terminal transition")
	}
}

func TestCancelJobOnlyFromPendingOrRunning(t *testing.T) {
	q := New(nil)
	job := q.CreateJob(model.JobBatch, "", 1)
	completed := model.JobCompleted
	if _, err := q.UpdateJob(job.ID, Patch{Status: &completed}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	ok, err := q.CancelJob(job.ID)
	if ok || !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("expected cancellation rejected from completed state, got ok=%v err=%v", ok, err)
	}
}

func TestCancelJobFromPendingSucceeds(t *testing.T) {
	q := New(nil)
	job := q.CreateJob(model.JobBatch, "", 1)
	ok, err := q.CancelJob(job.ID)
	if !ok || err != nil {
		t.Fatalf("expected cancellation to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestListJobsFiltersByTypeAndStatus(t *testing.T) {
	q := New(nil)
	q.CreateJob(model.JobBatch, "", 1)
	q.CreateJob(model.JobCrawl, "", 1)

	batches := q.ListJobs(Filter{Type: model.JobBatch})
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch job, got %d", len(batches))
	}
}

func TestPurgeExpiredRemovesOldTerminalJobs(t *testing.T) {
	q := New(nil)
	job := q.CreateJob(model.JobBatch, "", 1)
	completed := model.JobCompleted
	if _, err := q.UpdateJob(job.ID, Patch{Status: &completed}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	purged := q.PurgeExpired(time.Now().Add(25 * time.Hour))
	if purged != 1 {
		t.Fatalf("expected 1 purged job, got %d", purged)
	}
	if _, err := q.GetJob(job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected job gone after purge, got err=%v", err)
	}
}

func TestRunBatchRecordsPerURLFailuresWithoutAbortingBatch(t *testing.T) {
	q := New(nil)
	job := q.CreateJob(model.JobBatch, "", 3)

	urls := []string{"https://ok.example.com", "https://fail.example.com", "https://ok2.example.com"}
	peel := func(_ context.Context, url string) (any, error) {
		if url == "https://fail.example.com" {
			return nil, errors.New("boom")
		}
		return map[string]string{"url": url}, nil
	}

	results := q.RunBatch(context.Background(), job.ID, urls, 2, peel)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failures := 0
	for _, r := range results {
		if !r.Ok {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly 1 failure, got %d", failures)
	}

	updated, err := q.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if updated.Completed != 3 {
		t.Fatalf("expected completed counter at 3, got %d", updated.Completed)
	}
}

func TestRunBatchRespectsCancellation(t *testing.T) {
	q := New(nil)
	job := q.CreateJob(model.JobBatch, "", 2)
	if ok, err := q.CancelJob(job.ID); !ok || err != nil {
		t.Fatalf("CancelJob: ok=%v err=%v", ok, err)
	}

	calls := 0
	var mu sync.Mutex
	peel := func(_ context.Context, url string) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, nil
	}

	results := q.RunBatch(context.Background(), job.ID, []string{"a", "b"}, 2, peel)
	for _, r := range results {
		if r.Ok {
			t.Fatalf("expected all units skipped after cancellation, got %+v", r)
		}
	}
	if calls != 0 {
		t.Fatalf("expected peel never called after cancellation, got %d calls", calls)
	}
}
