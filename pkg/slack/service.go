package slack

import (
	"context"
	"log/slog"
	"time"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// Service delivers drift notifications to a Slack channel.
// Nil-safe: all methods are no-ops when service is nil.
type Service struct {
	client       *Client
	dashboardURL string
	logger       *slog.Logger
}

// NewService creates a new Slack notification service.
// Returns nil if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client:       NewClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string) *Service {
	return &Service{
		client:       client,
		dashboardURL: dashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NotifyDrift posts a drift notification, bounded by timeout.
// Fail-open: delivery errors are logged, never returned.
func (s *Service) NotifyDrift(ctx context.Context, input DriftNotification, timeout time.Duration) {
	if s == nil {
		return
	}

	blocks := BuildDriftMessage(input, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, timeout); err != nil {
		s.logger.Error("failed to send Slack drift notification",
			"drift_id", input.DriftID,
			"severity", input.Severity,
			"error", err)
	}
}
