package classify

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"onebox/models"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		response string
		want     models.Category
		ok       bool
	}{
		{"Interested", models.CategoryInterested, true},
		{"  meeting booked\n", models.CategoryMeetingBooked, true},
		{"The category is: Spam.", models.CategorySpam, true},
		{"not interested", models.CategoryNotInterested, true},
		{"OUT OF OFFICE", models.CategoryOutOfOffice, true},
		{"no idea", models.CategoryUncategorized, false},
		{"", models.CategoryUncategorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			got, ok := ParseCategory(tt.response)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestService_NoAPIKeyUsesFallback(t *testing.T) {
	svc := NewService("", "gpt-4o-mini", 5*time.Second, 30, zerolog.Nop())

	email := models.Email{Text: "Let's schedule a call tomorrow"}
	got := svc.Classify(context.Background(), email)

	assert.Equal(t, models.CategoryMeetingBooked, got)
}

func TestService_FallbackNeverFailsOnEmpty(t *testing.T) {
	svc := NewService("", "gpt-4o-mini", 5*time.Second, 30, zerolog.Nop())

	got := svc.Classify(context.Background(), models.Email{})

	assert.Equal(t, models.CategoryUncategorized, got)
}
