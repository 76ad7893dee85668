package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/laxkc/agentwatch/pkg/slack"
)

// SlackSink posts drift notifications to a Slack channel via the
// notification service. Construction mirrors the service's own nil-safe
// pattern: a SlackSink wrapping a nil *slack.Service is valid and a no-op.
type SlackSink struct {
	service      *slack.Service
	dashboardURL string
}

// NewSlackSink wraps svc as a Sink. svc may be nil.
func NewSlackSink(svc *slack.Service) *SlackSink {
	return &SlackSink{service: svc}
}

func (s *SlackSink) Name() string { return "slack" }

// Send is a no-op when the wrapped service is nil (unconfigured).
func (s *SlackSink) Send(ctx context.Context, n Notification) error {
	if s == nil || s.service == nil {
		return nil
	}
	s.service.NotifyDrift(ctx, slack.DriftNotification{
		DriftID:      n.DriftID,
		AgentID:      n.AgentID,
		AgentVersion: n.AgentVersion,
		Environment:  n.Environment,
		Severity:     n.Severity,
		Summary:      n.Summary,
	}, 10*time.Second)
	return nil
}

// webhookPayload is the generic JSON body posted to WebhookSink and
// PagerSink destinations.
type webhookPayload struct {
	DriftID      string `json:"drift_id"`
	AgentID      string `json:"agent_id"`
	AgentVersion string `json:"agent_version"`
	Environment  string `json:"environment"`
	DriftType    string `json:"drift_type"`
	Metric       string `json:"metric"`
	Severity     string `json:"severity"`
	Summary      string `json:"summary"`
}

func postJSON(ctx context.Context, client *http.Client, url string, n Notification) error {
	body, err := json.Marshal(webhookPayload{
		DriftID:      n.DriftID,
		AgentID:      n.AgentID,
		AgentVersion: n.AgentVersion,
		Environment:  n.Environment,
		DriftType:    n.DriftType,
		Metric:       n.Metric,
		Severity:     n.Severity,
		Summary:      n.Summary,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// WebhookSink POSTs a JSON payload to an arbitrary HTTP endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink builds a WebhookSink. url must be non-empty; callers
// should not construct a WebhookSink for an unconfigured destination.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{url: url, client: &http.Client{}}
}

func (w *WebhookSink) Name() string { return "webhook" }

func (w *WebhookSink) Send(ctx context.Context, n Notification) error {
	return postJSON(ctx, w.client, w.url, n)
}

// PagerSink POSTs a JSON payload to a paging destination (e.g. a
// PagerDuty Events API v2 generic webhook proxy). It is a distinct sink
// from WebhookSink with its own destination URL; like every sink it
// receives every notification, with no filtering by severity.
type PagerSink struct {
	url    string
	client *http.Client
}

// NewPagerSink builds a PagerSink. url must be non-empty.
func NewPagerSink(url string) *PagerSink {
	return &PagerSink{url: url, client: &http.Client{}}
}

func (p *PagerSink) Name() string { return "pager" }

func (p *PagerSink) Send(ctx context.Context, n Notification) error {
	return postJSON(ctx, p.client, p.url, n)
}
