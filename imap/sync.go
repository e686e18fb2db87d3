package imap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap"

	"onebox/models"
	"onebox/parser"
)

// SyncHistorical fetches INBOX messages from the last N days, normalizes
// each and emits them in fetch order. One unreadable message is skipped,
// never aborting the batch. Returns the number of emitted emails.
func (c *Connection) SyncHistorical(ctx context.Context, days int) (int, error) {
	cl, err := c.session()
	if err != nil {
		return 0, err
	}

	c.setState(StateFetching)
	defer c.setState(StateConnected)

	mbox, err := cl.Select("INBOX", false)
	if err != nil {
		return 0, fmt.Errorf("selecting INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		c.log.Debug().Msg("INBOX is empty")
		return 0, nil
	}

	seqNums, err := cl.Search(searchSince(days))
	if err != nil {
		return 0, fmt.Errorf("searching INBOX: %w", err)
	}
	if len(seqNums) == 0 {
		c.log.Debug().Int("days", days).Msg("no messages in sync window")
		return 0, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	// Peek keeps the server-side \Seen flags untouched.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- cl.Fetch(seqSet, items, messages)
	}()

	count := 0
	for msg := range messages {
		email, buildErr := c.buildEmail(msg, section)
		if buildErr != nil {
			c.log.Warn().Err(buildErr).Uint32("uid", msg.Uid).Msg("skipping unreadable message")
			continue
		}
		if !c.emit(ctx, email) {
			for range messages {
			}
			<-done
			return count, ctx.Err()
		}
		count++
	}

	if err := <-done; err != nil {
		return count, fmt.Errorf("fetching messages: %w", err)
	}

	c.log.Info().Int("count", count).Int("days", days).Msg("historical sync complete")
	return count, nil
}

// searchSince builds the window criteria for a backfill of the last N
// days. The server matches SINCE against internal dates at day
// granularity, so the bound is a date, not an instant.
func searchSince(days int) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	criteria.Since = time.Now().AddDate(0, 0, -days)
	return criteria
}

func (c *Connection) buildEmail(msg *imap.Message, section *imap.BodySectionName) (models.Email, error) {
	body := msg.GetBody(section)
	if body == nil {
		return models.Email{}, fmt.Errorf("message %d has no body section", msg.Uid)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return models.Email{}, fmt.Errorf("reading message %d: %w", msg.Uid, err)
	}

	return parser.Normalize(raw, c.cfg.Email, parser.Attributes{
		UID:          msg.Uid,
		InternalDate: msg.InternalDate,
		Folder:       "INBOX",
	}), nil
}

func (c *Connection) emit(ctx context.Context, email models.Email) bool {
	select {
	case c.emails <- email:
		return true
	case <-ctx.Done():
		return false
	}
}
