package models

import "time"

// AccountStatus tracks the lifecycle of a mailbox connection.
type AccountStatus string

const (
	StatusConnecting   AccountStatus = "connecting"
	StatusConnected    AccountStatus = "connected"
	StatusDisconnected AccountStatus = "disconnected"
	StatusError        AccountStatus = "error"
)

// AccountConfig is the connection configuration accepted when adding an
// account. Password is bound from the request body but never logged and
// never included in any response.
type AccountConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	TLS      *bool  `json:"tls"`

	// Optional outbound overrides; derived from Host when empty.
	SMTPHost string `json:"smtpHost,omitempty"`
	SMTPPort int    `json:"smtpPort,omitempty"`
}

// IMAPPort returns the configured port, defaulting to 993.
func (c AccountConfig) IMAPPort() int {
	if c.Port > 0 {
		return c.Port
	}
	return 993
}

// UseTLS defaults to true when the field is omitted.
func (c AccountConfig) UseTLS() bool {
	return c.TLS == nil || *c.TLS
}

// Account is the stored record for a registered account. It deliberately
// omits the credential.
type Account struct {
	Email       string        `json:"email"`
	Host        string        `json:"host"`
	Status      AccountStatus `json:"status"`
	SMTPEnabled bool          `json:"smtpEnabled"`
	AddedAt     time.Time     `json:"addedAt"`
}

// AccountSummary is returned from addAccount and listAccounts.
type AccountSummary struct {
	Email           string        `json:"email"`
	Status          AccountStatus `json:"status"`
	Synced          bool          `json:"synced"`
	HistoricalCount int           `json:"historicalCount"`
	SMTPEnabled     bool          `json:"smtpEnabled"`
}
