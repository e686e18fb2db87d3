// Package store persists emails and accounts, either in memory or on
// disk via bbolt. Emails are keyed by message id, which makes repeated
// sync of the same message idempotent.
package store

import (
	"errors"
	"sort"
	"strings"

	"onebox/models"
)

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("email not found")

// Filters narrows a search to one account, category or folder. Zero
// values match everything.
type Filters struct {
	Account  string
	Category models.Category
	Folder   string
}

// Store is the persistence contract shared by the memory and bolt
// backends.
type Store interface {
	// UpsertEmail stores the email, reporting true when it was newly
	// inserted. Re-upserting refreshes body fields but never downgrades a
	// resolved category back to uncategorized.
	UpsertEmail(email models.Email) bool
	GetEmail(messageID string) (models.Email, bool)
	// SearchEmails returns the requested page sorted newest first plus
	// the total match count.
	SearchEmails(query string, filters Filters, page, pageSize int) ([]models.Email, int)
	UpdateEmailCategory(messageID string, category models.Category) bool

	UpsertAccount(account models.Account)
	// RemoveAccount deletes the account and every email that belongs to
	// it, reporting whether the account existed.
	RemoveAccount(email string) bool
	Accounts() []models.Account

	Stats() models.Stats
	Close() error
}

func matchEmail(email models.Email, query string, filters Filters) bool {
	if filters.Account != "" && email.Account != filters.Account {
		return false
	}
	if filters.Category != "" && email.Category != filters.Category {
		return false
	}
	if filters.Folder != "" && email.Folder != filters.Folder {
		return false
	}
	if query == "" {
		return true
	}

	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(email.Subject), q) ||
		strings.Contains(strings.ToLower(email.Text), q) ||
		strings.Contains(strings.ToLower(email.From.Address), q) ||
		strings.Contains(strings.ToLower(email.From.Name), q)
}

func sortNewestFirst(emails []models.Email) {
	sort.Slice(emails, func(i, j int) bool {
		return emails[i].Date.After(emails[j].Date)
	})
}

func paginate(emails []models.Email, page, pageSize int) []models.Email {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(emails) {
		return []models.Email{}
	}
	end := start + pageSize
	if end > len(emails) {
		end = len(emails)
	}
	return emails[start:end]
}

// mergeCategory keeps an already-resolved label when the incoming record
// has none.
func mergeCategory(incoming, existing models.Category) models.Category {
	if incoming == models.CategoryUncategorized && existing != models.CategoryUncategorized {
		return existing
	}
	return incoming
}
