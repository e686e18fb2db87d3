// Package smtp sends replies through each account's provider SMTP
// server. Connections are per-operation; nothing is kept open between
// sends.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"onebox/models"
)

// Providers whose SMTP host does not follow the imap->smtp prefix rule.
var wellKnownHosts = map[string]string{
	"imap.gmail.com":        "smtp.gmail.com",
	"imap.mail.yahoo.com":   "smtp.mail.yahoo.com",
	"outlook.office365.com": "smtp-mail.outlook.com",
	"imap.mail.me.com":      "smtp.mail.me.com",
}

// GuessHost derives an SMTP host from the account's IMAP host when no
// explicit one is configured.
func GuessHost(imapHost string) string {
	if host, ok := wellKnownHosts[imapHost]; ok {
		return host
	}
	if rest, ok := strings.CutPrefix(imapHost, "imap."); ok {
		return "smtp." + rest
	}
	return imapHost
}

// Client sends replies for one account.
type Client struct {
	host     string
	port     int
	email    string
	password string
	log      zerolog.Logger
}

// NewClient builds a sender from the account config, guessing the SMTP
// host and defaulting to the submission port when unset.
func NewClient(cfg models.AccountConfig, log zerolog.Logger) *Client {
	host := cfg.SMTPHost
	if host == "" {
		host = GuessHost(cfg.Host)
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &Client{
		host:     host,
		port:     port,
		email:    cfg.Email,
		password: cfg.Password,
		log:      log.With().Str("component", "smtp").Str("account", cfg.Email).Logger(),
	}
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

func (c *Client) auth() sasl.Client {
	return sasl.NewPlainClient("", c.email, c.password)
}

func (c *Client) dial() (*gosmtp.Client, error) {
	tlsConfig := &tls.Config{ServerName: c.host}
	if c.port == 465 {
		return gosmtp.DialTLS(c.addr(), tlsConfig)
	}
	return gosmtp.DialStartTLS(c.addr(), tlsConfig)
}

// Verify dials and authenticates, then disconnects. Used at account add
// time to decide whether replies can be offered for the account.
func (c *Client) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := c.dial()
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.addr(), err)
	}
	defer client.Close()

	if err := client.Auth(c.auth()); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}
	if err := client.Noop(); err != nil {
		return fmt.Errorf("SMTP noop: %w", err)
	}

	c.log.Info().Str("host", c.host).Msg("SMTP verified")
	return client.Quit()
}

// SendReply sends content as a threaded reply to the original message
// and returns the generated message id of the outbound email.
func (c *Client) SendReply(ctx context.Context, original models.Email, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	to := original.From.Address
	if to == "" {
		return "", fmt.Errorf("original message has no sender address")
	}

	msgID := fmt.Sprintf("%s@%s", uuid.New().String(), domainOf(c.email))
	raw, err := c.compose(original, content, msgID, to)
	if err != nil {
		return "", fmt.Errorf("composing reply: %w", err)
	}

	reader := bytes.NewReader(raw)
	if c.port == 465 {
		err = gosmtp.SendMailTLS(c.addr(), c.auth(), c.email, []string{to}, reader)
	} else {
		err = gosmtp.SendMail(c.addr(), c.auth(), c.email, []string{to}, reader)
	}
	if err != nil {
		return "", fmt.Errorf("sending reply: %w", err)
	}

	c.log.Info().Str("to", to).Str("inReplyTo", original.MessageID).Msg("reply sent")
	return "<" + msgID + ">", nil
}

// Close is a no-op; connections are opened per operation.
func (c *Client) Close() error {
	return nil
}

func (c *Client) compose(original models.Email, content, msgID, to string) ([]byte, error) {
	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: c.email}})
	h.SetAddressList("To", []*mail.Address{{Name: original.From.Name, Address: to}})
	h.SetSubject(subject)
	h.SetMessageID(msgID)

	// Keep the reply in the original thread.
	ref := angleWrap(original.MessageID)
	h.Set("In-Reply-To", ref)
	h.Set("References", ref)

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, content); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func angleWrap(id string) string {
	if strings.HasPrefix(id, "<") {
		return id
	}
	return "<" + id + ">"
}

func domainOf(email string) string {
	if _, domain, ok := strings.Cut(email, "@"); ok && domain != "" {
		return domain
	}
	return "onebox.local"
}
