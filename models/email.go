package models

import (
	"time"
)

// NoSubject is stored when a message arrives without a Subject header.
const NoSubject = "(No Subject)"

// Category is one of the closed set of labels an email can carry.
type Category string

const (
	CategoryInterested    Category = "Interested"
	CategoryMeetingBooked Category = "Meeting Booked"
	CategoryNotInterested Category = "Not Interested"
	CategorySpam          Category = "Spam"
	CategoryOutOfOffice   Category = "Out of Office"
	CategoryUncategorized Category = "uncategorized"
)

// Categories returns the labels a classifier may choose from.
// CategoryUncategorized is the absence of a label, not a choice.
func Categories() []Category {
	return []Category{
		CategoryInterested,
		CategoryMeetingBooked,
		CategoryNotInterested,
		CategorySpam,
		CategoryOutOfOffice,
	}
}

// ParseCategory maps a label string to a known category, including the
// explicit uncategorized value. Used for manual overrides, which must
// name an exact label.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c == CategoryUncategorized {
		return c, true
	}
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return CategoryUncategorized, false
}

// EmailAddress is a single mailbox participant.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Email is the canonical record every transport message is normalized
// into. MessageID is the identity key; the store deduplicates on it.
type Email struct {
	MessageID      string         `json:"messageId"`
	Account        string         `json:"account"`
	From           EmailAddress   `json:"from"`
	To             []EmailAddress `json:"to"`
	Subject        string         `json:"subject"`
	Text           string         `json:"text,omitempty"`
	HTML           string         `json:"html,omitempty"`
	Preview        string         `json:"preview,omitempty"`
	Date           time.Time      `json:"date"`
	Category       Category       `json:"category"`
	Folder         string         `json:"folder"`
	ThreadID       string         `json:"threadId"`
	HasAttachments bool           `json:"hasAttachments"`
	Attachments    []Attachment   `json:"attachments,omitempty"`
}

// Attachment carries attachment metadata only; content is never retained.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Stats reports per-category email counts across the store.
type Stats struct {
	Total         int `json:"total"`
	Interested    int `json:"interested"`
	Meetings      int `json:"meetings"`
	NotInterested int `json:"notInterested"`
	Spam          int `json:"spam"`
	OutOfOffice   int `json:"outOfOffice"`
	Uncategorized int `json:"uncategorized"`
	Accounts      int `json:"accounts"`
}

// CountCategory bumps the stat bucket matching the given category.
func (s *Stats) CountCategory(c Category) {
	s.Total++
	switch c {
	case CategoryInterested:
		s.Interested++
	case CategoryMeetingBooked:
		s.Meetings++
	case CategoryNotInterested:
		s.NotInterested++
	case CategorySpam:
		s.Spam++
	case CategoryOutOfOffice:
		s.OutOfOffice++
	default:
		s.Uncategorized++
	}
}
