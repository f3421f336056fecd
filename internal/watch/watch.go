// Package watch implements the persistent watch manager of spec §4.12
// (C12): a periodic ticker selecting due watches, per-watch fingerprint
// comparison against the change tracker, paragraph-level diffing, and
// webhook delivery on change. The ticker/select-then-dispatch shape is
// grounded on ncecere-raito's internal/jobs/runner.go Start loop;
// webhook delivery reuses jobqueue.Notifier so "watch.changed" events
// are signed and delivered the same way job lifecycle events are.
package watch

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"webpeel/internal/jobqueue"
	"webpeel/internal/model"
)

const (
	tickInterval    = 60 * time.Second
	batchSize       = 50
	intervalFloor   = 5 * time.Minute
	paragraphMinLen = 10
	paragraphMaxLen = 500
	errorMessageCap = 500
)

// Store is the persistence boundary for watches, implemented against
// Postgres in production (internal/store) and a fake in tests.
type Store interface {
	DueWatches(ctx context.Context, now time.Time, limit int) ([]*model.Watch, error)
	UpdateWatch(ctx context.Context, w *model.Watch) error
}

// PeelFunc fetches and extracts a URL the way the orchestrator's
// peel(url, opts) operation does; the watch manager only needs the
// resulting content and fingerprint.
type PeelFunc func(ctx context.Context, url, selector string) (content, fingerprint string, err error)

// Manager runs the periodic check loop over due watches.
type Manager struct {
	store    Store
	peel     PeelFunc
	notifier jobqueue.Notifier
	log      *logrus.Logger
}

func NewManager(store Store, peel PeelFunc, notifier jobqueue.Notifier, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{store: store, peel: peel, notifier: notifier, log: log}
}

// Start runs the 60s ticker loop until ctx is cancelled, selecting up
// to batchSize due watches per tick, oldest first, and checking each.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		m.tick(ctx)
	}
}

func (m *Manager) tick(ctx context.Context) {
	watches, err := m.store.DueWatches(ctx, time.Now(), batchSize)
	if err != nil {
		m.log.WithError(err).Warn("watch: failed to list due watches")
		return
	}

	sort.SliceStable(watches, func(i, j int) bool {
		oldest := func(w *model.Watch) time.Time {
			if w.LastCheckedAt != nil {
				return *w.LastCheckedAt
			}
			return time.Time{}
		}
		return oldest(watches[i]).Before(oldest(watches[j]))
	})

	for _, w := range watches {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.WithField("watch_id", w.ID).Errorf("watch: check panicked: %v", r)
				}
			}()
			m.check(ctx, w)
		}()
	}
}

// EffectiveInterval enforces the 5-minute floor on a watch's configured
// check interval. The store layer's DueWatches query does not call it;
// its SQL applies the same floor with GREATEST(check_interval_minutes, 5).
func EffectiveInterval(w *model.Watch) time.Duration {
	interval := time.Duration(w.CheckIntervalMinutes) * time.Minute
	if interval < intervalFloor {
		return intervalFloor
	}
	return interval
}

// check implements spec §4.12's per-watch algorithm: fetch, fingerprint
// compare, paragraph diff on change, and atomic row update.
func (m *Manager) check(ctx context.Context, w *model.Watch) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	priorFingerprint := w.LastFingerprint
	content, fingerprint, err := m.peel(fetchCtx, w.URL, w.Selector)
	now := time.Now()

	if err != nil {
		w.Status = model.WatchError
		msg := err.Error()
		if len(msg) > errorMessageCap {
			msg = msg[:errorMessageCap]
		}
		w.ErrorMessage = msg
		w.LastCheckedAt = &now
		if updateErr := m.store.UpdateWatch(ctx, w); updateErr != nil {
			m.log.WithError(updateErr).Warn("watch: failed to persist error state")
		}
		return
	}

	changed := priorFingerprint != "" && priorFingerprint != fingerprint

	if !changed {
		w.LastCheckedAt = &now
		if priorFingerprint == "" {
			w.LastFingerprint = fingerprint
		}
		w.Status = model.WatchActive
		w.ErrorMessage = ""
		if updateErr := m.store.UpdateWatch(ctx, w); updateErr != nil {
			m.log.WithError(updateErr).Warn("watch: failed to persist unchanged state")
		}
		return
	}

	diff := ParagraphDiff(w.LastContent, content)

	w.LastFingerprint = fingerprint
	w.LastCheckedAt = &now
	w.LastChangedAt = &now
	w.ChangeCount++
	w.Status = model.WatchActive
	w.ErrorMessage = ""
	w.LastContent = content

	if updateErr := m.store.UpdateWatch(ctx, w); updateErr != nil {
		m.log.WithError(updateErr).Warn("watch: failed to persist changed state")
		return
	}

	if w.WebhookURL != "" && m.notifier != nil {
		// jobqueue.Webhook bounds each delivery with its own 10s timeout
		// internally; Notify returns immediately.
		m.notifier.Notify(w.ID, w.WebhookURL, "watch.changed", map[string]any{
			"watchId": w.ID,
			"url":     w.URL,
			"diff":    diff,
		})
	}
}

// ParagraphDiff splits old and new content on blank-line boundaries,
// filters paragraphs shorter than paragraphMinLen, and reports the
// set-difference of added/removed paragraphs, each truncated to
// paragraphMaxLen chars, per spec §4.12.
func ParagraphDiff(oldContent, newContent string) model.ParagraphDiff {
	oldSet := paragraphSet(oldContent)
	newSet := paragraphSet(newContent)

	var added, removed []string
	for p := range newSet {
		if _, ok := oldSet[p]; !ok {
			added = append(added, truncateParagraph(p))
		}
	}
	for p := range oldSet {
		if _, ok := newSet[p]; !ok {
			removed = append(removed, truncateParagraph(p))
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	return model.ParagraphDiff{Added: added, Removed: removed}
}

func truncateParagraph(p string) string {
	if len(p) > paragraphMaxLen {
		return p[:paragraphMaxLen]
	}
	return p
}

func paragraphSet(content string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) > paragraphMinLen {
			set[p] = struct{}{}
		}
	}
	return set
}
