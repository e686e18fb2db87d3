package smtp

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onebox/models"
)

func TestGuessHost(t *testing.T) {
	tests := []struct {
		imapHost string
		want     string
	}{
		{"imap.gmail.com", "smtp.gmail.com"},
		{"outlook.office365.com", "smtp-mail.outlook.com"},
		{"imap.fastmail.com", "smtp.fastmail.com"},
		{"mail.company.test", "mail.company.test"},
	}

	for _, tt := range tests {
		t.Run(tt.imapHost, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessHost(tt.imapHost))
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(models.AccountConfig{
		Email:    "me@example.com",
		Password: "secret",
		Host:     "imap.example.com",
	}, zerolog.Nop())

	assert.Equal(t, "smtp.example.com:587", c.addr())
}

func TestNewClient_ExplicitOverrides(t *testing.T) {
	c := NewClient(models.AccountConfig{
		Email:    "me@example.com",
		Password: "secret",
		Host:     "imap.example.com",
		SMTPHost: "mail.example.com",
		SMTPPort: 465,
	}, zerolog.Nop())

	assert.Equal(t, "mail.example.com:465", c.addr())
}

func TestCompose(t *testing.T) {
	c := NewClient(models.AccountConfig{
		Email:    "me@example.com",
		Password: "secret",
		Host:     "imap.example.com",
	}, zerolog.Nop())

	original := models.Email{
		MessageID: "orig123@sender.test",
		From:      models.EmailAddress{Name: "Alice", Address: "alice@sender.test"},
		Subject:   "Pricing question",
		Date:      time.Now(),
	}

	raw, err := c.compose(original, "Thanks, happy to walk you through it.", "reply1@example.com", "alice@sender.test")
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, "Subject: Re: Pricing question")
	assert.Contains(t, body, "In-Reply-To: <orig123@sender.test>")
	assert.Contains(t, body, "References: <orig123@sender.test>")
	assert.Contains(t, body, "alice@sender.test")
	assert.Contains(t, body, "Thanks, happy to walk you through it.")
}

func TestCompose_KeepsExistingRePrefix(t *testing.T) {
	c := NewClient(models.AccountConfig{
		Email:    "me@example.com",
		Password: "secret",
		Host:     "imap.example.com",
	}, zerolog.Nop())

	original := models.Email{
		MessageID: "orig123@sender.test",
		From:      models.EmailAddress{Address: "alice@sender.test"},
		Subject:   "RE: Pricing question",
	}

	raw, err := c.compose(original, "body", "reply1@example.com", "alice@sender.test")
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "Re: RE:")
}

func TestAngleWrap(t *testing.T) {
	assert.Equal(t, "<id@test>", angleWrap("id@test"))
	assert.Equal(t, "<id@test>", angleWrap("<id@test>"))
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", domainOf("me@example.com"))
	assert.Equal(t, "onebox.local", domainOf("not-an-address"))
}
