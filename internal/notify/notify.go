// Package notify delivers best-effort JSON webhooks. Delivery is never
// confirmed to the caller's user: a failure is reported as a
// *NotificationError on the dispatch channel, logged and counted, but the
// operation that triggered it has already completed.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"aslipolitik/internal/metrics"
)

// DefaultTimeout bounds one webhook call when none is configured.
const DefaultTimeout = 10 * time.Second

// Result labels for metrics.Notifications.
const (
	resultSent     = "sent"
	resultFailed   = "failed"
	resultDisabled = "disabled"
)

// NotificationError reports a webhook call that failed. Status is the HTTP
// status when the sink answered, 0 when it could not be reached.
type NotificationError struct {
	Hook   string
	Status int
	Err    error
}

func (e *NotificationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notify %s: sink answered %d", e.Hook, e.Status)
	}
	return fmt.Sprintf("notify %s: %v", e.Hook, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// ErrSinkStatus is wrapped by a NotificationError whose sink answered with
// a non-2xx status.
var ErrSinkStatus = errors.New("unexpected webhook status")

// Webhook posts JSON payloads to one URL. A Webhook with an empty URL is
// disabled and every send succeeds without a network call.
type Webhook struct {
	name   string
	url    string
	client *http.Client
	wg     sync.WaitGroup
}

// NewWebhook creates a webhook named name (used in logs and metrics).
func NewWebhook(name, url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Webhook{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a URL is configured.
func (h *Webhook) Enabled() bool {
	return h != nil && h.url != ""
}

// Send posts payload and waits for the answer.
func (h *Webhook) Send(ctx context.Context, payload any) error {
	if !h.Enabled() {
		metrics.Notifications.WithLabelValues(h.label(), resultDisabled).Inc()
		return nil
	}

	err := h.post(ctx, payload)
	if err != nil {
		metrics.Notifications.WithLabelValues(h.name, resultFailed).Inc()
		return err
	}
	metrics.Notifications.WithLabelValues(h.name, resultSent).Inc()
	return nil
}

// Dispatch sends payload in the background and returns at once. The
// returned channel yields the delivery error (nil on success) and is then
// closed. Callers are free to ignore it; it is buffered.
func (h *Webhook) Dispatch(payload any) <-chan error {
	done := make(chan error, 1)
	if !h.Enabled() {
		done <- h.Send(context.Background(), payload)
		close(done)
		return done
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer close(done)

		// Detached from the request: the client timeout bounds the call.
		err := h.Send(context.Background(), payload)
		if err != nil {
			slog.Warn("webhook delivery failed", "hook", h.name, "error", err)
		}
		done <- err
	}()
	return done
}

// Wait blocks until every dispatched call has finished or ctx is done.
func (h *Webhook) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &NotificationError{Hook: h.name, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return &NotificationError{Hook: h.name, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return &NotificationError{Hook: h.name, Err: err}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NotificationError{Hook: h.name, Status: resp.StatusCode, Err: ErrSinkStatus}
	}
	return nil
}

func (h *Webhook) label() string {
	if h == nil {
		return "none"
	}
	return h.name
}
