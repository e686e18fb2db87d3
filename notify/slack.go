package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"onebox/models"
)

// SlackSink posts a formatted message to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	client     *fasthttp.Client
	log        zerolog.Logger
}

// NewSlackSink builds a sink for the given incoming-webhook URL.
func NewSlackSink(webhookURL string, log zerolog.Logger) *SlackSink {
	return &SlackSink{
		webhookURL: webhookURL,
		client:     &fasthttp.Client{},
		log:        log.With().Str("sink", "slack").Logger(),
	}
}

func (s *SlackSink) Name() string {
	return "slack"
}

func (s *SlackSink) Notify(ctx context.Context, email models.Email) error {
	from := email.From.Address
	if email.From.Name != "" {
		from = fmt.Sprintf("%s <%s>", email.From.Name, email.From.Address)
	}

	payload, err := json.Marshal(map[string]any{
		"text": fmt.Sprintf("🎯 New Interested Lead: %s", email.Subject),
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*New Interested Email*\n*From:* %s\n*Subject:* %s\n*Account:* %s", from, email.Subject, email.Account),
				},
			},
		},
	})
	if err != nil {
		return err
	}

	if err := postJSON(ctx, s.client, s.webhookURL, payload); err != nil {
		return fmt.Errorf("posting to Slack: %w", err)
	}
	s.log.Debug().Str("messageId", email.MessageID).Msg("Slack notification sent")
	return nil
}
