package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"onebox/models"
)

// WebhookSink posts a machine-readable event to an arbitrary HTTP
// endpoint for downstream automation.
type WebhookSink struct {
	url    string
	client *fasthttp.Client
	log    zerolog.Logger
}

// NewWebhookSink builds a sink for the given endpoint URL.
func NewWebhookSink(url string, log zerolog.Logger) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &fasthttp.Client{},
		log:    log.With().Str("sink", "webhook").Logger(),
	}
}

func (w *WebhookSink) Name() string {
	return "webhook"
}

func (w *WebhookSink) Notify(ctx context.Context, email models.Email) error {
	payload, err := json.Marshal(map[string]any{
		"event":    "email_categorized",
		"category": email.Category,
		"email": map[string]any{
			"messageId": email.MessageID,
			"account":   email.Account,
			"from":      email.From,
			"subject":   email.Subject,
			"preview":   email.Preview,
			"date":      email.Date,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"source":    "onebox",
	})
	if err != nil {
		return err
	}

	if err := postJSON(ctx, w.client, w.url, payload); err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	w.log.Debug().Str("messageId", email.MessageID).Msg("webhook delivered")
	return nil
}
