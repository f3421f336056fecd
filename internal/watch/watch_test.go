package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"webpeel/internal/model"
)

type fakeStore struct {
	mu      sync.Mutex
	watches map[string]*model.Watch
	updates []string
}

func newFakeStore(watches ...*model.Watch) *fakeStore {
	s := &fakeStore{watches: make(map[string]*model.Watch)}
	for _, w := range watches {
		s.watches[w.ID] = w
	}
	return s
}

func (s *fakeStore) DueWatches(_ context.Context, _ time.Time, limit int) ([]*model.Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Watch
	for _, w := range s.watches {
		if w.Status == model.WatchActive {
			out = append(out, w)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateWatch(_ context.Context, w *model.Watch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches[w.ID] = w
	s.updates = append(s.updates, w.ID)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(jobID, webhookURL, eventType string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

func TestCheckFirstSightSetsFingerprintWithoutChangeEvent(t *testing.T) {
	w := &model.Watch{ID: "w1", URL: "https://example.com", Status: model.WatchActive, WebhookURL: "https://hook"}
	store := newFakeStore(w)
	notifier := &fakeNotifier{}
	peel := func(_ context.Context, _, _ string) (string, string, error) {
		return "hello world", "fp1", nil
	}
	mgr := NewManager(store, peel, notifier, nil)

	mgr.check(context.Background(), w)

	if w.LastFingerprint != "fp1" {
		t.Fatalf("expected fingerprint recorded, got %q", w.LastFingerprint)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no webhook on first sight, got %v", notifier.events)
	}
}

func TestCheckDetectsChangeAndFiresWebhook(t *testing.T) {
	w := &model.Watch{
		ID: "w1", URL: "https://example.com", Status: model.WatchActive,
		WebhookURL: "https://hook", LastFingerprint: "fp1", LastContent: "old paragraph text here\n\nanother one",
	}
	store := newFakeStore(w)
	notifier := &fakeNotifier{}
	peel := func(_ context.Context, _, _ string) (string, string, error) {
		return "new paragraph text here\n\nanother one", "fp2", nil
	}
	mgr := NewManager(store, peel, notifier, nil)

	mgr.check(context.Background(), w)

	if w.ChangeCount != 1 {
		t.Fatalf("expected change count incremented, got %d", w.ChangeCount)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "watch.changed" {
		t.Fatalf("expected watch.changed event, got %v", notifier.events)
	}
}

func TestCheckSameFingerprintNoEvent(t *testing.T) {
	w := &model.Watch{ID: "w1", URL: "https://example.com", Status: model.WatchActive, LastFingerprint: "fp1", WebhookURL: "https://hook"}
	store := newFakeStore(w)
	notifier := &fakeNotifier{}
	peel := func(_ context.Context, _, _ string) (string, string, error) {
		return "same content", "fp1", nil
	}
	mgr := NewManager(store, peel, notifier, nil)

	mgr.check(context.Background(), w)

	if w.ChangeCount != 0 {
		t.Fatalf("expected no change recorded, got %d", w.ChangeCount)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no webhook on unchanged fetch, got %v", notifier.events)
	}
}

func TestCheckFetchErrorSetsErrorStatus(t *testing.T) {
	w := &model.Watch{ID: "w1", URL: "https://example.com", Status: model.WatchActive}
	store := newFakeStore(w)
	peel := func(_ context.Context, _, _ string) (string, string, error) {
		return "", "", errors.New("fetch failed: timeout")
	}
	mgr := NewManager(store, peel, nil, nil)

	mgr.check(context.Background(), w)

	if w.Status != model.WatchError {
		t.Fatalf("expected error status, got %v", w.Status)
	}
	if w.ErrorMessage == "" {
		t.Fatalf("expected error message recorded")
	}
}

func TestEffectiveIntervalEnforcesFloor(t *testing.T) {
	w := &model.Watch{CheckIntervalMinutes: 1}
	if got := EffectiveInterval(w); got != intervalFloor {
		t.Fatalf("expected floor applied, got %v", got)
	}
}

func TestParagraphDiffAddedAndRemoved(t *testing.T) {
	old := "This paragraph stays the same across versions.\n\nThis paragraph will be removed entirely."
	updated := "This paragraph stays the same across versions.\n\nThis paragraph is brand new in this version."
	diff := ParagraphDiff(old, updated)
	if len(diff.Added) != 1 || len(diff.Removed) != 1 {
		t.Fatalf("expected one added and one removed paragraph, got %+v", diff)
	}
}

func TestParagraphDiffFiltersShortParagraphs(t *testing.T) {
	diff := ParagraphDiff("hi\n\nThis is a long enough paragraph to count as real content here.", "bye\n\nThis is a long enough paragraph to count as real content here.")
	if len(diff.Added) != 0 || len(diff.Removed) != 0 {
		t.Fatalf("expected short paragraphs filtered out, got %+v", diff)
	}
}
