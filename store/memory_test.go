package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onebox/models"
)

func testEmail(id, account string, category models.Category, date time.Time) models.Email {
	return models.Email{
		MessageID: id,
		Account:   account,
		From:      models.EmailAddress{Name: "Alice", Address: "alice@example.com"},
		Subject:   "Subject " + id,
		Text:      "body of " + id,
		Date:      date,
		Category:  category,
		Folder:    "INBOX",
		ThreadID:  id,
	}
}

func TestMemory_UpsertIsIdempotent(t *testing.T) {
	m := NewMemory()
	email := testEmail("m1", "a@test", models.CategoryUncategorized, time.Now())

	assert.True(t, m.UpsertEmail(email))
	assert.False(t, m.UpsertEmail(email))

	_, total := m.SearchEmails("", Filters{}, 1, 10)
	assert.Equal(t, 1, total)
}

func TestMemory_UpsertPreservesResolvedCategory(t *testing.T) {
	m := NewMemory()
	email := testEmail("m1", "a@test", models.CategoryInterested, time.Now())
	m.UpsertEmail(email)

	// A live re-fetch arrives unlabelled; the stored label must survive.
	refetch := testEmail("m1", "a@test", models.CategoryUncategorized, time.Now())
	refetch.Text = "updated body"
	assert.False(t, m.UpsertEmail(refetch))

	got, ok := m.GetEmail("m1")
	require.True(t, ok)
	assert.Equal(t, models.CategoryInterested, got.Category)
	assert.Equal(t, "updated body", got.Text)
}

func TestMemory_UpdateEmailCategory(t *testing.T) {
	m := NewMemory()
	m.UpsertEmail(testEmail("m1", "a@test", models.CategoryUncategorized, time.Now()))

	assert.True(t, m.UpdateEmailCategory("m1", models.CategorySpam))
	got, _ := m.GetEmail("m1")
	assert.Equal(t, models.CategorySpam, got.Category)

	assert.False(t, m.UpdateEmailCategory("missing", models.CategorySpam))
}

func TestMemory_SearchFiltersAndQuery(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.UpsertEmail(testEmail("m1", "a@test", models.CategoryInterested, now))
	m.UpsertEmail(testEmail("m2", "b@test", models.CategoryInterested, now.Add(time.Minute)))
	m.UpsertEmail(testEmail("m3", "a@test", models.CategorySpam, now.Add(2*time.Minute)))

	emails, total := m.SearchEmails("", Filters{Account: "a@test"}, 1, 10)
	assert.Equal(t, 2, total)
	require.Len(t, emails, 2)
	// Newest first.
	assert.Equal(t, "m3", emails[0].MessageID)

	_, total = m.SearchEmails("", Filters{Category: models.CategoryInterested}, 1, 10)
	assert.Equal(t, 2, total)

	_, total = m.SearchEmails("", Filters{Account: "a@test", Category: models.CategorySpam}, 1, 10)
	assert.Equal(t, 1, total)

	// Query is case-insensitive over subject, body and sender.
	_, total = m.SearchEmails("SUBJECT M2", Filters{}, 1, 10)
	assert.Equal(t, 1, total)
	_, total = m.SearchEmails("alice", Filters{}, 1, 10)
	assert.Equal(t, 3, total)
	_, total = m.SearchEmails("no such thing", Filters{}, 1, 10)
	assert.Equal(t, 0, total)
}

func TestMemory_SearchPagination(t *testing.T) {
	m := NewMemory()
	base := time.Now()
	for i := 0; i < 25; i++ {
		m.UpsertEmail(testEmail(fmt.Sprintf("m%02d", i), "a@test", models.CategoryUncategorized, base.Add(time.Duration(i)*time.Minute)))
	}

	page1, total := m.SearchEmails("", Filters{}, 1, 10)
	assert.Equal(t, 25, total)
	require.Len(t, page1, 10)
	assert.Equal(t, "m24", page1[0].MessageID)

	page3, _ := m.SearchEmails("", Filters{}, 3, 10)
	assert.Len(t, page3, 5)

	page4, _ := m.SearchEmails("", Filters{}, 4, 10)
	assert.Empty(t, page4)
}

func TestMemory_RemoveAccountCascades(t *testing.T) {
	m := NewMemory()
	m.UpsertAccount(models.Account{Email: "a@test"})
	m.UpsertAccount(models.Account{Email: "b@test"})
	m.UpsertEmail(testEmail("m1", "a@test", models.CategoryUncategorized, time.Now()))
	m.UpsertEmail(testEmail("m2", "b@test", models.CategoryUncategorized, time.Now()))

	assert.True(t, m.RemoveAccount("a@test"))
	assert.False(t, m.RemoveAccount("a@test"))

	_, ok := m.GetEmail("m1")
	assert.False(t, ok)
	_, ok = m.GetEmail("m2")
	assert.True(t, ok)
	assert.Len(t, m.Accounts(), 1)
}

func TestMemory_Stats(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.UpsertAccount(models.Account{Email: "a@test"})
	m.UpsertEmail(testEmail("m1", "a@test", models.CategoryInterested, now))
	m.UpsertEmail(testEmail("m2", "a@test", models.CategoryInterested, now))
	m.UpsertEmail(testEmail("m3", "a@test", models.CategoryMeetingBooked, now))
	m.UpsertEmail(testEmail("m4", "a@test", models.CategoryUncategorized, now))

	stats := m.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Interested)
	assert.Equal(t, 1, stats.Meetings)
	assert.Equal(t, 1, stats.Uncategorized)
	assert.Equal(t, 1, stats.Accounts)
}

func TestMemory_ConcurrentUpserts(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup

	for worker := 0; worker < 3; worker++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.UpsertEmail(testEmail(fmt.Sprintf("w%d-m%d", w, i), "a@test", models.CategoryUncategorized, time.Now()))
			}
		}(worker)
	}
	wg.Wait()

	_, total := m.SearchEmails("", Filters{}, 1, 10)
	assert.Equal(t, 300, total)
}
