// Package classify assigns category labels to emails, by AI service when
// configured and by deterministic keyword rules otherwise.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"onebox/models"
)

// Classifier assigns a category to an email. Implementations never fail:
// classification unavailability degrades to a deterministic fallback and
// is not an error the caller sees.
type Classifier interface {
	Classify(ctx context.Context, email models.Email) models.Category
}

// Service classifies via the OpenAI chat API with a bounded timeout and a
// rate limit on outbound calls. With no API key it runs fallback-only.
type Service struct {
	ai      *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewService creates a classification service. An empty apiKey disables
// the AI path entirely.
func NewService(apiKey, model string, timeout time.Duration, requestsPerMinute int, log zerolog.Logger) *Service {
	s := &Service{
		model:   model,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
		log:     log.With().Str("component", "classify").Logger(),
	}
	if apiKey != "" {
		s.ai = openai.NewClient(apiKey)
	} else {
		s.log.Warn().Msg("no API key configured, using keyword categorization only")
	}
	return s
}

// Classify labels an email. Any AI failure (unconfigured, timeout, rate
// limit, unparseable response) falls back to the keyword rules; an AI
// response matching no known label yields uncategorized.
func (s *Service) Classify(ctx context.Context, email models.Email) models.Category {
	if s.ai == nil {
		return FallbackCategory(email)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		s.log.Warn().Err(err).Msg("rate limit wait aborted, using fallback")
		return FallbackCategory(email)
	}

	resp, err := s.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   8,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: categorizationPrompt(email)},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		s.log.Warn().Err(err).Str("messageId", email.MessageID).Msg("AI categorization failed, using fallback")
		return FallbackCategory(email)
	}

	if category, ok := ParseCategory(resp.Choices[0].Message.Content); ok {
		return category
	}
	return models.CategoryUncategorized
}

func categorizationPrompt(email models.Email) string {
	labels := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		labels = append(labels, string(c))
	}

	return fmt.Sprintf(`Analyze this email and categorize it into exactly one of these categories:
%s

EMAIL SUBJECT: %s
EMAIL BODY: %s

Respond with ONLY the category name, nothing else.
Category:`, strings.Join(labels, ", "), email.Subject, bodyExcerpt(email, 1500))
}

// ParseCategory normalizes a classifier response into a known label by
// case-insensitive substring match.
func ParseCategory(response string) (models.Category, bool) {
	clean := strings.ToLower(strings.TrimSpace(response))

	// Exact match first: "not interested" must not resolve to Interested
	// via the substring scan below.
	for _, category := range models.Categories() {
		if clean == strings.ToLower(string(category)) {
			return category, true
		}
	}
	for _, category := range models.Categories() {
		if strings.Contains(clean, strings.ToLower(string(category))) {
			return category, true
		}
	}
	return models.CategoryUncategorized, false
}

func bodyExcerpt(email models.Email, limit int) string {
	body := email.Text
	if body == "" {
		body = email.HTML
	}
	if len(body) > limit {
		body = body[:limit]
	}
	return body
}
