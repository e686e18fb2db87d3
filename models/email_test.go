package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"Interested", CategoryInterested, true},
		{"Meeting Booked", CategoryMeetingBooked, true},
		{"uncategorized", CategoryUncategorized, true},
		{"interested", CategoryUncategorized, false}, // overrides are exact
		{"Something Else", CategoryUncategorized, false},
		{"", CategoryUncategorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCategory(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCategories_ExcludesUncategorized(t *testing.T) {
	for _, c := range Categories() {
		assert.NotEqual(t, CategoryUncategorized, c)
	}
	assert.Len(t, Categories(), 5)
}

func TestStatsCountCategory(t *testing.T) {
	var stats Stats
	stats.CountCategory(CategoryInterested)
	stats.CountCategory(CategoryInterested)
	stats.CountCategory(CategorySpam)
	stats.CountCategory(CategoryUncategorized)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Interested)
	assert.Equal(t, 1, stats.Spam)
	assert.Equal(t, 1, stats.Uncategorized)
}

func TestAccountConfig_Defaults(t *testing.T) {
	cfg := AccountConfig{Email: "a@test", Host: "imap.test"}
	assert.Equal(t, 993, cfg.IMAPPort())
	assert.True(t, cfg.UseTLS())

	plain := false
	cfg = AccountConfig{Port: 143, TLS: &plain}
	assert.Equal(t, 143, cfg.IMAPPort())
	assert.False(t, cfg.UseTLS())
}

func TestNewPaginatedEmails(t *testing.T) {
	emails := []Email{{MessageID: "m1"}}

	page := NewPaginatedEmails(emails, 2, 10, 25)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)

	empty := NewPaginatedEmails(nil, 1, 10, 0)
	assert.NotNil(t, empty.Emails)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
