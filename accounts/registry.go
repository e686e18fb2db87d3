// Package accounts orchestrates the lifecycle of connected mailboxes:
// add, historical sync, live listening, reply sending and removal.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"onebox/classify"
	"onebox/events"
	"onebox/models"
	"onebox/notify"
	"onebox/store"
)

// Mailbox is the inbound side of one account: an IMAP session emitting
// normalized emails.
type Mailbox interface {
	Connect(ctx context.Context) error
	SyncHistorical(ctx context.Context, days int) (int, error)
	Listen(ctx context.Context) error
	Emails() <-chan models.Email
	Close() error
}

// Sender is the outbound side of one account.
type Sender interface {
	Verify(ctx context.Context) error
	SendReply(ctx context.Context, original models.Email, content string) (string, error)
	Close() error
}

// Factories let tests substitute fakes for real IMAP/SMTP sessions.
type (
	MailboxFactory func(cfg models.AccountConfig) Mailbox
	SenderFactory  func(cfg models.AccountConfig) Sender
)

// ValidationError reports a missing required account field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

var (
	// ErrAccountExists rejects adding an email address twice.
	ErrAccountExists = errors.New("account already registered")
	// ErrUnknownAccount is returned for operations on an unregistered address.
	ErrUnknownAccount = errors.New("account not registered")
	// ErrCapabilityUnavailable is returned when replies are requested for
	// an account whose SMTP verification failed at add time.
	ErrCapabilityUnavailable = errors.New("sending is not available for this account")
	// ErrAccountRemoved is returned when the account is removed while its
	// add was still backfilling.
	ErrAccountRemoved = errors.New("account removed during setup")
)

type managedAccount struct {
	config          models.AccountConfig
	mailbox         Mailbox
	sender          Sender
	status          models.AccountStatus
	smtpEnabled     bool
	historicalCount int
	addedAt         time.Time
	cancel          context.CancelFunc
	consumerDone    chan struct{}
}

// Registry holds all connected accounts and runs the pipeline that moves
// emails from mailboxes through classification into the store and out to
// subscribers and sinks.
type Registry struct {
	mu       sync.RWMutex
	accounts map[string]*managedAccount

	store      store.Store
	classifier classify.Classifier
	sinks      []notify.Sink
	bus        *events.Bus
	newMailbox MailboxFactory
	newSender  SenderFactory

	windowDays   int
	graceTimeout time.Duration
	log          zerolog.Logger
}

// NewRegistry wires the pipeline. windowDays is the historical sync
// window applied to every added account.
func NewRegistry(st store.Store, classifier classify.Classifier, bus *events.Bus, sinks []notify.Sink,
	newMailbox MailboxFactory, newSender SenderFactory, windowDays int, log zerolog.Logger) *Registry {
	return &Registry{
		accounts:     make(map[string]*managedAccount),
		store:        st,
		classifier:   classifier,
		sinks:        sinks,
		bus:          bus,
		newMailbox:   newMailbox,
		newSender:    newSender,
		windowDays:   windowDays,
		graceTimeout: 5 * time.Second,
		log:          log.With().Str("component", "accounts").Logger(),
	}
}

// AddAccount validates, connects, backfills and starts live sync for the
// account. It returns only after the historical backfill is complete, so
// a successful response means the mailbox content is queryable.
func (r *Registry) AddAccount(ctx context.Context, cfg models.AccountConfig) (models.AccountSummary, error) {
	if err := validate(cfg); err != nil {
		return models.AccountSummary{}, err
	}

	// Reserve the slot before dialing so two concurrent adds of the same
	// address cannot both proceed.
	r.mu.Lock()
	if _, exists := r.accounts[cfg.Email]; exists {
		r.mu.Unlock()
		return models.AccountSummary{}, ErrAccountExists
	}
	acct := &managedAccount{
		config:       cfg,
		status:       models.StatusConnecting,
		addedAt:      time.Now(),
		consumerDone: make(chan struct{}),
	}
	r.accounts[cfg.Email] = acct
	r.mu.Unlock()

	summary, err := r.connect(ctx, acct)
	if err != nil {
		// Only release the slot if it is still ours; a concurrent remove
		// followed by a re-add may own it by now.
		r.mu.Lock()
		if current, ok := r.accounts[cfg.Email]; ok && current == acct {
			delete(r.accounts, cfg.Email)
		}
		r.mu.Unlock()
		return models.AccountSummary{}, err
	}
	return summary, nil
}

func validate(cfg models.AccountConfig) error {
	switch {
	case strings.TrimSpace(cfg.Email) == "":
		return &ValidationError{Field: "email"}
	case cfg.Password == "":
		return &ValidationError{Field: "password"}
	case strings.TrimSpace(cfg.Host) == "":
		return &ValidationError{Field: "host"}
	}
	return nil
}

func (r *Registry) connect(ctx context.Context, acct *managedAccount) (models.AccountSummary, error) {
	cfg := acct.config
	log := r.log.With().Str("account", cfg.Email).Logger()

	mailbox := r.newMailbox(cfg)
	if err := mailbox.Connect(ctx); err != nil {
		log.Error().Err(err).Str("host", cfg.Host).Msg("IMAP connection failed")
		return models.AccountSummary{}, err
	}

	// Outbound verification failure downgrades the account to read-only;
	// it never fails the add.
	var sender Sender
	smtpEnabled := false
	if s := r.newSender(cfg); s != nil {
		if err := s.Verify(ctx); err != nil {
			log.Warn().Err(err).Msg("SMTP verification failed, replies disabled")
			_ = s.Close()
		} else {
			sender = s
			smtpEnabled = true
		}
	}

	workerCtx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	acct.mailbox = mailbox
	acct.sender = sender
	acct.smtpEnabled = smtpEnabled
	acct.cancel = cancel
	r.mu.Unlock()

	go r.consume(workerCtx, cfg.Email, mailbox, acct.consumerDone)

	count, err := mailbox.SyncHistorical(ctx, r.windowDays)
	if err != nil {
		cancel()
		_ = mailbox.Close()
		if sender != nil {
			_ = sender.Close()
		}
		log.Error().Err(err).Msg("historical sync failed")
		return models.AccountSummary{}, fmt.Errorf("historical sync: %w", err)
	}

	// A remove may have raced the backfill. Publish only if we still own
	// the slot; otherwise tear down quietly.
	r.mu.Lock()
	if current, ok := r.accounts[cfg.Email]; !ok || current != acct {
		r.mu.Unlock()
		cancel()
		_ = mailbox.Close()
		if sender != nil {
			_ = sender.Close()
		}
		log.Info().Msg("account removed during backfill, discarding connection")
		return models.AccountSummary{}, ErrAccountRemoved
	}
	acct.status = models.StatusConnected
	acct.historicalCount = count
	r.mu.Unlock()

	r.store.UpsertAccount(models.Account{
		Email:       cfg.Email,
		Host:        cfg.Host,
		Status:      models.StatusConnected,
		SMTPEnabled: smtpEnabled,
		AddedAt:     acct.addedAt,
	})

	go r.listen(workerCtx, cfg.Email, mailbox)

	summary := models.AccountSummary{
		Email:           cfg.Email,
		Status:          models.StatusConnected,
		Synced:          true,
		HistoricalCount: count,
		SMTPEnabled:     smtpEnabled,
	}
	r.bus.AccountAdded(summary)
	log.Info().Int("historical", count).Bool("smtp", smtpEnabled).Msg("account added")
	return summary, nil
}

// consume drains the mailbox email stream for the account's lifetime.
func (r *Registry) consume(ctx context.Context, accountEmail string, mailbox Mailbox, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case email, ok := <-mailbox.Emails():
			if !ok {
				return
			}
			r.process(ctx, accountEmail, email)
		}
	}
}

// process runs one email through classification, persistence and fan-out.
func (r *Registry) process(ctx context.Context, accountEmail string, email models.Email) {
	if !r.registered(accountEmail) {
		// Account was removed while this message was in flight.
		return
	}
	email.Account = accountEmail

	if existing, ok := r.store.GetEmail(email.MessageID); ok && existing.Category != models.CategoryUncategorized {
		// Re-fetch of a known, already-labelled message: keep its label and
		// skip the classifier entirely.
		email.Category = existing.Category
	} else if email.Category == models.CategoryUncategorized {
		email.Category = r.classifier.Classify(ctx, email)
	}

	inserted := r.store.UpsertEmail(email)
	if !inserted {
		return
	}

	if email.Category == models.CategoryInterested {
		r.notifySinks(email)
	}
	r.bus.NewEmail(email)
}

func (r *Registry) notifySinks(email models.Email) {
	for _, sink := range r.sinks {
		go func(s notify.Sink) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Notify(ctx, email); err != nil {
				r.log.Warn().Err(err).Str("sink", s.Name()).Str("messageId", email.MessageID).Msg("notification failed")
			}
		}(sink)
	}
}

// listen runs live sync until the account is removed or the transport
// fails. Failures flip the account to error status and are broadcast.
func (r *Registry) listen(ctx context.Context, accountEmail string, mailbox Mailbox) {
	err := mailbox.Listen(ctx)
	if ctx.Err() != nil || err == nil {
		return
	}

	r.log.Error().Err(err).Str("account", accountEmail).Msg("live sync ended")
	r.setStatus(accountEmail, models.StatusError)
	r.bus.AccountError(accountEmail, err)
}

func (r *Registry) registered(email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.accounts[email]
	return ok
}

func (r *Registry) setStatus(email string, status models.AccountStatus) {
	r.mu.Lock()
	acct, ok := r.accounts[email]
	if ok {
		acct.status = status
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.store.UpsertAccount(models.Account{
		Email:       acct.config.Email,
		Host:        acct.config.Host,
		Status:      status,
		SMTPEnabled: acct.smtpEnabled,
		AddedAt:     acct.addedAt,
	})
}

// RemoveAccount disconnects the account and deletes its emails. Removing
// an unknown address is a no-op.
func (r *Registry) RemoveAccount(email string) {
	r.mu.Lock()
	acct, ok := r.accounts[email]
	var (
		cancel  context.CancelFunc
		mailbox Mailbox
		sender  Sender
	)
	if ok {
		delete(r.accounts, email)
		cancel = acct.cancel
		mailbox = acct.mailbox
		sender = acct.sender
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if cancel != nil {
		cancel()
	}
	if mailbox != nil {
		_ = mailbox.Close()
	}
	if sender != nil {
		_ = sender.Close()
	}

	if cancel != nil {
		select {
		case <-acct.consumerDone:
		case <-time.After(r.graceTimeout):
			r.log.Warn().Str("account", email).Msg("consumer did not stop within grace period")
		}
	}

	r.store.RemoveAccount(email)
	r.log.Info().Str("account", email).Msg("account removed")
}

// ListAccounts returns a snapshot of every registered account, sorted by
// address for stable output.
func (r *Registry) ListAccounts() []models.AccountSummary {
	r.mu.RLock()
	out := make([]models.AccountSummary, 0, len(r.accounts))
	for _, acct := range r.accounts {
		out = append(out, models.AccountSummary{
			Email:           acct.config.Email,
			Status:          acct.status,
			Synced:          acct.status == models.StatusConnected,
			HistoricalCount: acct.historicalCount,
			SMTPEnabled:     acct.smtpEnabled,
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// SendReply sends content as a reply to the stored message through the
// account's SMTP channel.
func (r *Registry) SendReply(ctx context.Context, accountEmail, messageID, content string) (string, error) {
	r.mu.RLock()
	acct, ok := r.accounts[accountEmail]
	var sender Sender
	enabled := false
	if ok {
		sender = acct.sender
		enabled = acct.smtpEnabled
	}
	r.mu.RUnlock()

	if !ok {
		return "", ErrUnknownAccount
	}
	if !enabled || sender == nil {
		return "", ErrCapabilityUnavailable
	}

	original, found := r.store.GetEmail(messageID)
	if !found {
		return "", store.ErrNotFound
	}

	sentID, err := sender.SendReply(ctx, original, content)
	if err != nil {
		return "", fmt.Errorf("sending reply: %w", err)
	}
	return sentID, nil
}

// Shutdown disconnects every account without deleting stored data.
func (r *Registry) Shutdown() {
	type teardown struct {
		cancel  context.CancelFunc
		mailbox Mailbox
		sender  Sender
		done    chan struct{}
	}

	r.mu.Lock()
	managed := make([]teardown, 0, len(r.accounts))
	for _, acct := range r.accounts {
		managed = append(managed, teardown{
			cancel:  acct.cancel,
			mailbox: acct.mailbox,
			sender:  acct.sender,
			done:    acct.consumerDone,
		})
	}
	r.accounts = make(map[string]*managedAccount)
	r.mu.Unlock()

	for _, td := range managed {
		if td.cancel != nil {
			td.cancel()
		}
		if td.mailbox != nil {
			_ = td.mailbox.Close()
		}
		if td.sender != nil {
			_ = td.sender.Close()
		}
	}

	// Wait for in-flight processing to finish so nothing writes to the
	// store after Shutdown returns.
	for _, td := range managed {
		if td.cancel == nil {
			continue
		}
		select {
		case <-td.done:
		case <-time.After(r.graceTimeout):
			r.log.Warn().Msg("consumer did not stop within grace period")
		}
	}
}
