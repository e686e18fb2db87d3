package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"onebox/models"
)

func TestFallbackCategory(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		text    string
		html    string
		want    models.Category
	}{
		{
			name: "meeting in body",
			text: "Let's schedule a call tomorrow",
			want: models.CategoryMeetingBooked,
		},
		{
			name:    "meeting in subject only",
			subject: "Zoom invite for Thursday",
			want:    models.CategoryMeetingBooked,
		},
		{
			name: "meeting outranks interest",
			text: "I'm interested, let's set up a meeting",
			want: models.CategoryMeetingBooked,
		},
		{
			name: "interest",
			text: "This sounds good, please share the pricing details",
			want: models.CategoryInterested,
		},
		{
			name: "interest from html when text empty",
			html: "<p>We are looking for exactly this</p>",
			want: models.CategoryInterested,
		},
		{
			name: "rejection",
			text: "We have to decline your offer at this time",
			want: models.CategoryNotInterested,
		},
		{
			name: "rejection no thank you",
			text: "No thank you, we went another direction",
			want: models.CategoryNotInterested,
		},
		{
			name: "spam keywords",
			text: "You are a lottery winner, claim your prize",
			want: models.CategorySpam,
		},
		{
			name:    "spam in subject",
			subject: "[spam] great offer",
			text:    "hello there",
			want:    models.CategorySpam,
		},
		{
			name: "out of office",
			text: "I am out of office until Monday with limited access to email",
			want: models.CategoryOutOfOffice,
		},
		{
			name: "no signal",
			text: "The weather has been nice lately",
			want: models.CategoryUncategorized,
		},
		{
			name: "empty email",
			want: models.CategoryUncategorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := models.Email{Subject: tt.subject, Text: tt.text, HTML: tt.html}
			assert.Equal(t, tt.want, FallbackCategory(email))
		})
	}
}

func TestFallbackCategory_CaseInsensitive(t *testing.T) {
	email := models.Email{Text: "LET'S SCHEDULE A MEETING"}
	assert.Equal(t, models.CategoryMeetingBooked, FallbackCategory(email))
}
