package store

import (
	"sync"

	"onebox/models"
)

// Memory is the default in-process store. All data is lost on restart.
type Memory struct {
	mu       sync.RWMutex
	emails   map[string]models.Email
	accounts map[string]models.Account
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		emails:   make(map[string]models.Email),
		accounts: make(map[string]models.Account),
	}
}

func (m *Memory) UpsertEmail(email models.Email) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.emails[email.MessageID]
	if ok {
		email.Category = mergeCategory(email.Category, existing.Category)
	}
	m.emails[email.MessageID] = email
	return !ok
}

func (m *Memory) GetEmail(messageID string) (models.Email, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email, ok := m.emails[messageID]
	return email, ok
}

func (m *Memory) SearchEmails(query string, filters Filters, page, pageSize int) ([]models.Email, int) {
	m.mu.RLock()
	matched := make([]models.Email, 0, len(m.emails))
	for _, email := range m.emails {
		if matchEmail(email, query, filters) {
			matched = append(matched, email)
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(matched)
	return paginate(matched, page, pageSize), len(matched)
}

func (m *Memory) UpdateEmailCategory(messageID string, category models.Category) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	email, ok := m.emails[messageID]
	if !ok {
		return false
	}
	email.Category = category
	m.emails[messageID] = email
	return true
}

func (m *Memory) UpsertAccount(account models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Email] = account
}

func (m *Memory) RemoveAccount(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.accounts[email]
	delete(m.accounts, email)

	for id, e := range m.emails {
		if e.Account == email {
			delete(m.emails, id)
		}
	}
	return ok
}

func (m *Memory) Accounts() []models.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		out = append(out, account)
	}
	return out
}

func (m *Memory) Stats() models.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := models.Stats{Accounts: len(m.accounts)}
	for _, email := range m.emails {
		stats.CountCategory(email.Category)
	}
	return stats
}

func (m *Memory) Close() error {
	return nil
}
