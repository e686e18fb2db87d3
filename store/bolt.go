package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"onebox/models"
)

var (
	bucketEmails   = []byte("Emails")
	bucketAccounts = []byte("Accounts")
)

// Bolt persists emails and accounts in a single bbolt file so synced
// mail survives restarts.
type Bolt struct {
	db  *bolt.DB
	log zerolog.Logger
}

// NewBolt opens (or creates) the database at path.
func NewBolt(path string, log zerolog.Logger) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketEmails, bucketAccounts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Bolt{db: db, log: log.With().Str("component", "store").Logger()}, nil
}

func (b *Bolt) UpsertEmail(email models.Email) bool {
	inserted := false

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketEmails)
		key := []byte(email.MessageID)

		if raw := bucket.Get(key); raw != nil {
			var existing models.Email
			if err := json.Unmarshal(raw, &existing); err == nil {
				email.Category = mergeCategory(email.Category, existing.Category)
			}
		} else {
			inserted = true
		}

		value, err := json.Marshal(email)
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
	if err != nil {
		b.log.Error().Err(err).Str("messageId", email.MessageID).Msg("failed to persist email")
		return false
	}
	return inserted
}

func (b *Bolt) GetEmail(messageID string) (models.Email, bool) {
	var email models.Email
	found := false

	_ = b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketEmails).Get([]byte(messageID))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &email); err != nil {
			return err
		}
		found = true
		return nil
	})
	return email, found
}

func (b *Bolt) SearchEmails(query string, filters Filters, page, pageSize int) ([]models.Email, int) {
	var matched []models.Email

	_ = b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEmails).ForEach(func(_, raw []byte) error {
			var email models.Email
			if err := json.Unmarshal(raw, &email); err != nil {
				return nil
			}
			if matchEmail(email, query, filters) {
				matched = append(matched, email)
			}
			return nil
		})
	})

	sortNewestFirst(matched)
	return paginate(matched, page, pageSize), len(matched)
}

func (b *Bolt) UpdateEmailCategory(messageID string, category models.Category) bool {
	updated := false

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketEmails)
		key := []byte(messageID)

		raw := bucket.Get(key)
		if raw == nil {
			return nil
		}

		var email models.Email
		if err := json.Unmarshal(raw, &email); err != nil {
			return err
		}
		email.Category = category

		value, err := json.Marshal(email)
		if err != nil {
			return err
		}
		if err := bucket.Put(key, value); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		b.log.Error().Err(err).Str("messageId", messageID).Msg("failed to update category")
		return false
	}
	return updated
}

func (b *Bolt) UpsertAccount(account models.Account) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		value, err := json.Marshal(account)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAccounts).Put([]byte(account.Email), value)
	})
	if err != nil {
		b.log.Error().Err(err).Str("account", account.Email).Msg("failed to persist account")
	}
}

func (b *Bolt) RemoveAccount(email string) bool {
	existed := false

	err := b.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket(bucketAccounts)
		key := []byte(email)
		if accounts.Get(key) != nil {
			existed = true
			if err := accounts.Delete(key); err != nil {
				return err
			}
		}

		emails := tx.Bucket(bucketEmails)
		cursor := emails.Cursor()
		for k, raw := cursor.First(); k != nil; k, raw = cursor.Next() {
			var e models.Email
			if err := json.Unmarshal(raw, &e); err != nil {
				continue
			}
			if e.Account == email {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		b.log.Error().Err(err).Str("account", email).Msg("failed to remove account")
		return false
	}
	return existed
}

func (b *Bolt) Accounts() []models.Account {
	var out []models.Account

	_ = b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(_, raw []byte) error {
			var account models.Account
			if err := json.Unmarshal(raw, &account); err != nil {
				return nil
			}
			out = append(out, account)
			return nil
		})
	})
	return out
}

func (b *Bolt) Stats() models.Stats {
	var stats models.Stats

	_ = b.db.View(func(tx *bolt.Tx) error {
		stats.Accounts = tx.Bucket(bucketAccounts).Stats().KeyN
		return tx.Bucket(bucketEmails).ForEach(func(_, raw []byte) error {
			var email models.Email
			if err := json.Unmarshal(raw, &email); err != nil {
				return nil
			}
			stats.CountCategory(email.Category)
			return nil
		})
	})
	return stats
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
