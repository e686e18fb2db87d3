// Package parser turns raw RFC 822 payloads into canonical Email records.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"onebox/models"
	"onebox/utils"
)

// Attributes carries transport-level metadata that accompanies a fetched
// message but is not part of its RFC 822 payload.
type Attributes struct {
	UID          uint32
	InternalDate time.Time
	Folder       string
}

// Normalize parses a raw message into a canonical Email. It is pure and
// never fails: malformed input yields a best-effort record with generated
// identity and default fields, so one broken message can never abort a
// sync batch.
func Normalize(raw []byte, account string, attrs Attributes) models.Email {
	email := models.Email{
		Account:  account,
		Subject:  models.NoSubject,
		Category: models.CategoryUncategorized,
		Folder:   "INBOX",
		Date:     defaultDate(attrs),
	}
	if attrs.Folder != "" {
		email.Folder = attrs.Folder
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Headers unreadable; keep whatever we can as a plain-text body.
		email.Text = strings.TrimSpace(string(raw))
		email.Preview = utils.CreatePreview(email.Text)
		email.MessageID = GenerateMessageID()
		email.ThreadID = email.MessageID
		return email
	}
	defer mr.Close()

	header := mr.Header

	if subject, err := header.Subject(); err == nil && strings.TrimSpace(subject) != "" {
		email.Subject = subject
	}
	if date, err := header.Date(); err == nil && !date.IsZero() {
		email.Date = date
	}
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		email.From = models.EmailAddress{Name: from[0].Name, Address: from[0].Address}
	}
	if to, err := header.AddressList("To"); err == nil {
		for _, addr := range to {
			email.To = append(email.To, models.EmailAddress{Name: addr.Name, Address: addr.Address})
		}
	}

	if id, err := header.MessageID(); err == nil && id != "" {
		email.MessageID = id
	} else {
		email.MessageID = GenerateMessageID()
	}

	// Thread by the parent message when this is a reply, else by own id.
	if refs, err := header.MsgIDList("In-Reply-To"); err == nil && len(refs) > 0 {
		email.ThreadID = refs[0]
	} else {
		email.ThreadID = email.MessageID
	}

	readParts(mr, &email)
	email.HasAttachments = len(email.Attachments) > 0

	if email.Preview == "" {
		if email.Text != "" {
			email.Preview = utils.CreatePreview(email.Text)
		} else if email.HTML != "" {
			email.Preview = utils.CreatePreview(utils.HTMLToText(email.HTML))
		}
	}

	return email
}

// readParts walks the MIME structure collecting the first text and HTML
// bodies plus attachment metadata. Unreadable parts are skipped.
func readParts(mr *mail.Reader, email *models.Email) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return
		}
		if err != nil {
			return
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				if email.Text == "" {
					email.Text = string(body)
				}
			case strings.HasPrefix(contentType, "text/html"):
				if email.HTML == "" {
					email.HTML = utils.SanitizeHTML(string(body))
				}
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			// Read for the size only; content is not retained.
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			email.Attachments = append(email.Attachments, models.Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        len(body),
			})
		}
	}
}

// GenerateMessageID produces a unique identity for messages whose
// transport lacks a Message-ID header.
func GenerateMessageID() string {
	return fmt.Sprintf("manual-%d-%s", time.Now().UnixNano(), uuid.New().String())
}

func defaultDate(attrs Attributes) time.Time {
	if !attrs.InternalDate.IsZero() {
		return attrs.InternalDate
	}
	return time.Now()
}
