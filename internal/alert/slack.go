package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/seoforge/seoforge/internal/store"
)

// SlackSink posts alerts to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	channel    string
}

// NewSlackSink builds a Slack sink. An empty webhook URL yields a nil sink,
// which callers should skip.
func NewSlackSink(webhookURL, channel string) *SlackSink {
	if webhookURL == "" {
		return nil
	}
	return &SlackSink{webhookURL: webhookURL, channel: channel}
}

func (s *SlackSink) Name() string { return "slack" }

// Notify posts one alert as an attachment colored by severity.
func (s *SlackSink) Notify(ctx context.Context, a *store.AlertRecord) error {
	msg := &slack.WebhookMessage{
		Channel: s.channel,
		Text:    fmt.Sprintf("[%s] %s", a.Severity, a.Type),
		Attachments: []slack.Attachment{{
			Color: severityColor(a.Severity),
			Text:  a.Message,
			Fields: []slack.AttachmentField{
				{Title: "type", Value: string(a.Type), Short: true},
				{Title: "severity", Value: string(a.Severity), Short: true},
			},
			Ts: json.Number(fmt.Sprintf("%d", a.CreatedAt.Unix())),
		}},
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

func severityColor(sev store.AlertSeverity) string {
	switch sev {
	case store.SeverityCritical:
		return "danger"
	case store.SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}
