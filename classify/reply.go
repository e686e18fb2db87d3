package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"onebox/models"
)

// Suggester proposes short reply drafts for an email. Implementations
// always return something usable; AI failure degrades to fixed replies.
type Suggester interface {
	Suggest(ctx context.Context, email models.Email, contextTag string) []string
}

type productContext struct {
	Context     string
	BookingLink string
}

// Outreach contexts the reply prompt can be anchored to.
var productContexts = map[string]productContext{
	"job_application": {
		Context:     "I am applying for a job position. If the lead is interested, share the meeting booking link: https://cal.com/example",
		BookingLink: "https://cal.com/example",
	},
	"sales_outreach": {
		Context:     "I am reaching out about our product demo. If interested, please schedule a call using our booking link: https://cal.com/demo",
		BookingLink: "https://cal.com/demo",
	},
	"partnership": {
		Context:     "I'm interested in exploring partnership opportunities. Let's schedule a meeting to discuss: https://cal.com/partner",
		BookingLink: "https://cal.com/partner",
	},
}

const defaultContextTag = "job_application"

// ReplyService generates suggested replies via the OpenAI chat API.
type ReplyService struct {
	ai      *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewReplyService creates a reply suggester. An empty apiKey makes it
// serve fallback replies only.
func NewReplyService(apiKey, model string, timeout time.Duration, log zerolog.Logger) *ReplyService {
	s := &ReplyService{
		model:   model,
		timeout: timeout,
		log:     log.With().Str("component", "reply").Logger(),
	}
	if apiKey != "" {
		s.ai = openai.NewClient(apiKey)
	}
	return s
}

// Suggest returns up to 3 reply drafts for the email.
func (s *ReplyService) Suggest(ctx context.Context, email models.Email, contextTag string) []string {
	if s.ai == nil {
		return FallbackReplies()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   600,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: replyPrompt(email, contextTag)},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		s.log.Warn().Err(err).Str("messageId", email.MessageID).Msg("AI reply suggestion failed, using fallback")
		return FallbackReplies()
	}

	replies := parseReplies(resp.Choices[0].Message.Content)
	if len(replies) == 0 {
		return FallbackReplies()
	}
	return replies
}

func replyPrompt(email models.Email, contextTag string) string {
	pc, ok := productContexts[contextTag]
	if !ok {
		pc = productContexts[defaultContextTag]
	}

	body := email.Text
	if len(body) > 1000 {
		body = body[:1000]
	}
	fromName := email.From.Name
	if fromName == "" {
		fromName = "Unknown Sender"
	}

	return fmt.Sprintf(`You are an AI assistant helping to write professional email replies.
Based on the product context and the received email, generate 3 contextual and professional reply suggestions.

PRODUCT CONTEXT: %s

RECEIVED EMAIL:
Subject: %s
From: %s
Body: %s

Generate 3 different reply variations that:
1. Are professional and contextually appropriate
2. Reference the product context when relevant
3. Include the booking link (%s) if the email seems positive
4. Vary in tone and approach
5. Are ready to use with minimal editing

Format your response as a JSON array of reply strings:
["reply 1", "reply 2", "reply 3"]

IMPORTANT: Respond with ONLY the JSON array, no other text.`, pc.Context, email.Subject, fromName, body, pc.BookingLink)
}

// parseReplies extracts up to 3 replies from the model output. It first
// tries strict JSON (with code fences stripped), then falls back to
// line-by-line extraction.
func parseReplies(response string) []string {
	clean := strings.ReplaceAll(response, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var parsed []string
	if err := json.Unmarshal([]byte(clean), &parsed); err == nil && len(parsed) > 0 {
		if len(parsed) > 3 {
			parsed = parsed[:3]
		}
		return parsed
	}

	var replies []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 20 || strings.Contains(line, "```") || strings.Contains(line, "JSON") {
			continue
		}
		line = strings.Trim(line, `"'`)
		if line != "" {
			replies = append(replies, line)
		}
		if len(replies) == 3 {
			break
		}
	}
	return replies
}

// FallbackReplies returns the fixed acknowledgement drafts used whenever
// the AI path is unavailable.
func FallbackReplies() []string {
	return []string{
		"Thank you for your email. I'll get back to you soon with more information.",
		"I appreciate you reaching out. Let me review this and I'll respond shortly.",
		"Thanks for the information. I'll look into this and follow up with you.",
	}
}
