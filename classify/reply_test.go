package classify

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onebox/models"
)

func TestParseReplies_JSONArray(t *testing.T) {
	response := `["Thanks for reaching out!", "Happy to connect, here is my calendar.", "Let me get back to you."]`

	replies := parseReplies(response)

	require.Len(t, replies, 3)
	assert.Equal(t, "Thanks for reaching out!", replies[0])
}

func TestParseReplies_FencedJSON(t *testing.T) {
	response := "```json\n[\"Reply one goes here\", \"Reply two goes here\"]\n```"

	replies := parseReplies(response)

	require.Len(t, replies, 2)
	assert.Equal(t, "Reply two goes here", replies[1])
}

func TestParseReplies_CapsAtThree(t *testing.T) {
	response := `["a reply", "b reply", "c reply", "d reply"]`

	replies := parseReplies(response)

	assert.Len(t, replies, 3)
}

func TestParseReplies_LineFallback(t *testing.T) {
	response := "Here are suggestions:\n" +
		"\"Thank you for your interest, I would love to set up a call.\"\n" +
		"short\n" +
		"\"I appreciate the quick response, does Tuesday work for you?\"\n"

	replies := parseReplies(response)

	require.Len(t, replies, 3)
	assert.Equal(t, "Thank you for your interest, I would love to set up a call.", replies[1])
}

func TestFallbackReplies(t *testing.T) {
	replies := FallbackReplies()

	require.Len(t, replies, 3)
	for _, r := range replies {
		assert.NotEmpty(t, r)
	}
}

func TestReplyService_NoAPIKeyUsesFallback(t *testing.T) {
	svc := NewReplyService("", "gpt-4o-mini", 5*time.Second, zerolog.Nop())

	replies := svc.Suggest(context.Background(), models.Email{Subject: "Hello"}, "sales_outreach")

	assert.Equal(t, FallbackReplies(), replies)
}
