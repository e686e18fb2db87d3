package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"onebox/models"
)

// Type identifies the kind of event carried on the bus.
type Type string

const (
	TypeNewEmail     Type = "new_email"
	TypeAccountAdded Type = "account_added"
	TypeAccountError Type = "account_error"
	TypeConnected    Type = "connected"
)

// Event is the structured payload delivered to every subscriber. Only the
// fields relevant to the event type are set.
type Event struct {
	ID           string                 `json:"id"`
	Type         Type                   `json:"type"`
	Email        *models.Email          `json:"email,omitempty"`
	Account      *models.AccountSummary `json:"account,omitempty"`
	AccountEmail string                 `json:"accountEmail,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Time         time.Time              `json:"time"`
}

// Bus fans events out to all current subscribers. Delivery is best-effort:
// a subscriber whose channel is full misses the event rather than blocking
// the broadcaster.
type Bus struct {
	subscribers map[string]chan Event
	mu          sync.RWMutex
	log         zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string]chan Event),
		log:         log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
// The channel is closed by Unsubscribe.
func (b *Bus) Subscribe() (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, 16)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	b.log.Debug().Str("subscriber", id).Msg("subscriber connected")
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call
// with an unknown id.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()

	if ok {
		b.log.Debug().Str("subscriber", id).Msg("subscriber disconnected")
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Broadcast sends an event to all subscribers.
func (b *Bus) Broadcast(event Event) {
	event.ID = uuid.New().String()
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip this subscriber
			b.log.Warn().Str("subscriber", id).Str("type", string(event.Type)).Msg("event channel full, dropping")
		}
	}
}

// NewEmail broadcasts a new_email event.
func (b *Bus) NewEmail(email models.Email) {
	b.Broadcast(Event{
		Type:    TypeNewEmail,
		Email:   &email,
		Message: "New email received",
	})
}

// AccountAdded broadcasts an account_added event.
func (b *Bus) AccountAdded(summary models.AccountSummary) {
	b.Broadcast(Event{
		Type:    TypeAccountAdded,
		Account: &summary,
		Message: "Account connected",
	})
}

// AccountError broadcasts an account_error event.
func (b *Bus) AccountError(accountEmail string, err error) {
	b.Broadcast(Event{
		Type:         TypeAccountError,
		AccountEmail: accountEmail,
		Error:        err.Error(),
	})
}
