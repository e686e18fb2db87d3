package imap

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/client"
)

// Listen blocks in IMAP IDLE and re-syncs a short window whenever the
// server signals new mail, so arrivals surface within seconds. Returns
// nil when the context is cancelled; a transport failure is returned and
// ends the live session for this account.
func (c *Connection) Listen(ctx context.Context) error {
	cl, err := c.session()
	if err != nil {
		return err
	}

	updates := make(chan client.Update, 16)
	cl.Updates = updates

	c.log.Info().Msg("entering IDLE")

	for {
		c.setState(StateIdle)

		stop := make(chan struct{})
		idleDone := make(chan error, 1)
		go func() {
			idleDone <- cl.Idle(stop, nil)
		}()

		newMail := false
		waiting := true
		for waiting {
			select {
			case <-ctx.Done():
				close(stop)
				<-idleDone
				return nil

			case err := <-idleDone:
				if err != nil {
					c.setState(StateError)
					return fmt.Errorf("idle session: %w", err)
				}
				waiting = false

			case update := <-updates:
				if _, ok := update.(*client.MailboxUpdate); ok && !newMail {
					// Break out of IDLE; the sync below picks up the new mail.
					newMail = true
					close(stop)
				}
			}
		}

		if newMail {
			c.log.Debug().Msg("mailbox update received, syncing recent messages")
			// Keep discarding unsolicited updates for the duration of the
			// sync; with nobody reading, a full channel would block the
			// connection reader and stall the fetch.
			stopDrain := make(chan struct{})
			go drainUpdates(updates, stopDrain)
			_, err := c.SyncHistorical(ctx, c.liveWindowDays)
			close(stopDrain)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.setState(StateError)
				return fmt.Errorf("incremental sync: %w", err)
			}
		}
	}
}

func drainUpdates(updates <-chan client.Update, stop <-chan struct{}) {
	for {
		select {
		case <-updates:
		case <-stop:
			return
		}
	}
}
