// Package notify delivers emitted alerts out of band: a colored
// terminal banner and an optional JSON webhook. Rendering of batch
// results stays in the CLI; notify exists so high-severity alerts get
// attention even when stdout goes to a pipe.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"stockwatch/internal/config"
	"stockwatch/internal/models"
)

// Channel is one delivery target.
type Channel interface {
	Name() string
	Send(ctx context.Context, alerts []models.Alert) error
	IsEnabled() bool
}

// Multi fans alerts out to every enabled channel, dropping alerts
// below the configured severity floor.
type Multi struct {
	channels    []Channel
	minSeverity models.Severity
}

// NewMulti creates a notifier over the given channels.
func NewMulti(minSeverity models.Severity, channels ...Channel) *Multi {
	if minSeverity == "" {
		minSeverity = models.SeverityMedium
	}
	return &Multi{channels: channels, minSeverity: minSeverity}
}

// NewFromConfig builds the notifier the config asks for. Returns nil
// when notifications are disabled; callers skip notification entirely
// in that case.
func NewFromConfig(cfg config.NotificationConfig, colorEnabled bool) *Multi {
	if !cfg.Enabled {
		return nil
	}
	channels := []Channel{NewTerminal(os.Stderr, colorEnabled)}
	if cfg.Webhook.Enabled && cfg.Webhook.URL != "" {
		channels = append(channels, NewWebhook(cfg.Webhook.URL))
	}
	return NewMulti(models.Severity(cfg.MinSeverity), channels...)
}

// AddChannel adds a delivery target.
func (m *Multi) AddChannel(ch Channel) {
	m.channels = append(m.channels, ch)
}

// Send delivers the alerts at or above the severity floor to every
// enabled channel. Channel failures are collected, not short-circuited:
// one dead webhook must not silence the terminal.
func (m *Multi) Send(ctx context.Context, alerts []models.Alert) error {
	if m == nil || len(m.channels) == 0 {
		return nil
	}

	kept := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if severityRank(a.Severity) >= severityRank(m.minSeverity) {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	var errs []string
	for _, ch := range m.channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, kept); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityHigh:
		return 3
	case models.SeverityMedium:
		return 2
	case models.SeverityLow:
		return 1
	default:
		return 0
	}
}

// Webhook POSTs the alert batch as JSON to a single URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook channel.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the channel name.
func (w *Webhook) Name() string {
	return "webhook"
}

// IsEnabled reports whether the channel has a target URL.
func (w *Webhook) IsEnabled() bool {
	return w.url != ""
}

type webhookPayload struct {
	Source string         `json:"source"`
	SentAt time.Time      `json:"sent_at"`
	Alerts []models.Alert `json:"alerts"`
}

// Send posts the alerts. Any non-2xx response is a delivery failure.
func (w *Webhook) Send(ctx context.Context, alerts []models.Alert) error {
	body, err := json.Marshal(webhookPayload{
		Source: "stockwatch",
		SentAt: time.Now().UTC(),
		Alerts: alerts,
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "stockwatch/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
