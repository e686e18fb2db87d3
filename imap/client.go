// Package imap owns one live session per account: connect, historical
// backfill, idle-listen for new mail, disconnect.
package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/rs/zerolog"

	"onebox/models"
)

// State of a mailbox connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateIdle         State = "idle-listening"
	StateFetching     State = "fetching"
	StateError        State = "error"
)

// ErrorKind distinguishes connection failures so the boundary can produce
// actionable messages.
type ErrorKind int

const (
	KindTimeout ErrorKind = iota
	KindAuth
	KindUnreachable
)

// ConnectionError is returned by Connect. It is fatal to the addAccount
// call that triggered it.
type ConnectionError struct {
	Kind ErrorKind
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("authentication failed for %s: %v", e.Host, e.Err)
	case KindUnreachable:
		return fmt.Sprintf("cannot reach %s: %v", e.Host, e.Err)
	default:
		return fmt.Sprintf("connection to %s timed out: %v", e.Host, e.Err)
	}
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Connection is the live IMAP session for one account. Normalized emails
// from both historical and live sync are emitted on Emails() in fetch
// order; the channel is never closed, consumers stop via their context.
type Connection struct {
	cfg            models.AccountConfig
	connectTimeout time.Duration
	liveWindowDays int

	mu     sync.Mutex
	client *client.Client
	state  State

	emails chan models.Email
	log    zerolog.Logger
}

// NewConnection builds an unconnected session for the account.
func NewConnection(cfg models.AccountConfig, connectTimeout time.Duration, liveWindowDays int, log zerolog.Logger) *Connection {
	return &Connection{
		cfg:            cfg,
		connectTimeout: connectTimeout,
		liveWindowDays: liveWindowDays,
		state:          StateDisconnected,
		emails:         make(chan models.Email, 64),
		log:            log.With().Str("component", "imap").Str("account", cfg.Email).Logger(),
	}
}

// Emails exposes the stream of normalized messages.
func (c *Connection) Emails() <-chan models.Email {
	return c.emails
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Connect dials and authenticates. Failures carry a ConnectionError whose
// kind separates bad credentials, unreachable hosts and timeouts.
func (c *Connection) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.IMAPPort())
	c.log.Info().Str("addr", addr).Msg("connecting to IMAP")

	dialer := &net.Dialer{Timeout: c.connectTimeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	var cl *client.Client
	var err error
	if c.cfg.UseTLS() {
		cl, err = client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: c.cfg.Host})
	} else {
		cl, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		c.setState(StateError)
		return dialError(c.cfg.Host, err)
	}
	cl.Timeout = c.connectTimeout

	if err := cl.Login(c.cfg.Email, c.cfg.Password); err != nil {
		_ = cl.Logout()
		c.setState(StateError)
		return &ConnectionError{Kind: KindAuth, Host: c.cfg.Host, Err: err}
	}

	c.mu.Lock()
	c.client = cl
	c.state = StateConnected
	c.mu.Unlock()

	c.log.Info().Msg("IMAP connected")
	return nil
}

func dialError(host string, err error) *ConnectionError {
	kind := KindTimeout

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		kind = KindUnreachable
	}

	return &ConnectionError{Kind: kind, Host: host, Err: err}
}

// Close releases the session. Idempotent; safe when never connected. A
// hung logout is abandoned after a short grace period with a hard close.
func (c *Connection) Close() error {
	c.mu.Lock()
	cl := c.client
	c.client = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if cl == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- cl.Logout() }()

	select {
	case err := <-done:
		c.log.Info().Msg("IMAP disconnected")
		return err
	case <-time.After(5 * time.Second):
		c.log.Warn().Msg("logout timed out, closing connection")
		return cl.Close()
	}
}

func (c *Connection) session() (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}
	return c.client, nil
}
