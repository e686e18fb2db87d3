package classify

import (
	"strings"

	"onebox/models"
)

// Keyword rules evaluated in fixed priority order; the first match wins.
// Order matters: a booked meeting outranks expressed interest.
var (
	meetingKeywords   = []string{"meeting", "calendar", "schedule", "appointment", "call", "zoom", "teams", "google meet"}
	interestKeywords  = []string{"interested", "want to learn", "tell me more", "please share", "looking for", "sounds good", "let's proceed"}
	rejectionKeywords = []string{"not interested", "decline", "reject", "no thank you", "unsubscribe", "not now"}
	spamKeywords      = []string{"unsubscribe", "opt-out", "prescription", "lottery", "winner", "viagra", "click here"}
	oooKeywords       = []string{"out of office", "vacation", "away from", "auto-reply", "automatic response", "ooo"}
)

// FallbackCategory applies the deterministic keyword cascade. It depends
// on nothing external, so categorization never blocks on the network.
func FallbackCategory(email models.Email) models.Category {
	text := strings.ToLower(email.Text)
	if text == "" {
		text = strings.ToLower(email.HTML)
	}
	subject := strings.ToLower(email.Subject)

	if containsAny(text, meetingKeywords) || containsAny(subject, meetingKeywords) {
		return models.CategoryMeetingBooked
	}
	if containsAny(text, interestKeywords) {
		return models.CategoryInterested
	}
	if containsAny(text, rejectionKeywords) {
		return models.CategoryNotInterested
	}
	if containsAny(text, spamKeywords) || strings.Contains(subject, "spam") {
		return models.CategorySpam
	}
	if containsAny(text, oooKeywords) {
		return models.CategoryOutOfOffice
	}

	return models.CategoryUncategorized
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
