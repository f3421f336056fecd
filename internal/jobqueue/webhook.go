package jobqueue

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// webhookEvent is the payload POSTed to a job's webhook URL, matching
// Easonliuliang-purify's webhook.Event shape.
type webhookEvent struct {
	Type      string `json:"type"`
	JobID     string `json:"jobId"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Webhook delivers job lifecycle events over HTTP, HMAC-signing the
// body when a secret is configured. Deliveries use a short timeout, are
// attempted once, and swallow failures after logging a warning, per spec
// §4.11: best-effort, non-blocking.
type Webhook struct {
	client *http.Client
	secret string
	log    *logrus.Logger
}

func NewWebhook(secret string, log *logrus.Logger) *Webhook {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		secret: secret,
		log:    log,
	}
}

// Notify implements Notifier by firing the delivery in its own
// goroutine so job-status updates never block on network I/O.
func (w *Webhook) Notify(jobID, webhookURL, eventType string, data any) {
	event := &webhookEvent{
		Type:      eventType,
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	go w.deliver(webhookURL, event)
}

func (w *Webhook) deliver(url string, event *webhookEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		w.log.WithError(err).Warn("webhook: marshal event failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		w.log.WithError(err).Warn("webhook: build request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "WebPeel-Webhook/1.0")

	if w.secret != "" {
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		req.Header.Set("X-WebPeel-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.WithFields(logrus.Fields{"url": url, "event": event.Type}).WithError(err).Warn("webhook: delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		w.log.WithFields(logrus.Fields{"url": url, "event": event.Type, "status": resp.StatusCode}).
			Warn("webhook: endpoint returned error status")
	}
}
