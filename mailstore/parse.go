package mailstore

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-message/mail"

	"github.com/mailsonar/mailsonar/core"
)

// parseMessage builds a core.Email from an IMAP envelope and the raw
// RFC822 message bytes.
func parseMessage(envelope *imap.Envelope, raw []byte) *core.Email {
	subject := ""
	from := ""
	date := ""
	if envelope != nil {
		subject = strings.TrimSpace(envelope.Subject)
		from = formatAddress(envelope.From)
		if !envelope.Date.IsZero() {
			date = envelope.Date.Format(time.RFC1123Z)
		}
	}
	if subject == "" {
		subject = "(No Subject)"
	}

	fullBody := extractTextBody(raw)
	preview := fullBody
	if runes := []rune(preview); len(runes) > PreviewLen {
		preview = string(runes[:PreviewLen])
	}

	email := &core.Email{
		Subject:  subject,
		From:     from,
		Date:     date,
		Body:     preview,
		FullBody: fullBody,
	}
	email.Id = email.ContentID()
	return email
}

// formatAddress renders the first sender address as "Name <addr>" or the
// bare address when no display name is present.
func formatAddress(addrs []imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	a := addrs[0]
	if a.Name != "" {
		return fmt.Sprintf("%s <%s>", a.Name, a.Addr())
	}
	return a.Addr()
}

// extractTextBody returns the first inline text/plain part of the message,
// trimmed. Attachments are skipped; a message with no usable text part
// yields an empty string rather than an error.
func extractTextBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil || reader == nil {
		return ""
	}
	defer reader.Close()

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed sub-part; whatever came before is all we get.
			break
		}

		if header, ok := part.Header.(*mail.InlineHeader); ok {
			contentType, _, err := header.ContentType()
			if err != nil {
				continue
			}
			if contentType == "text/plain" || contentType == "" {
				body, err := io.ReadAll(part.Body)
				if err != nil {
					return ""
				}
				return strings.TrimSpace(string(body))
			}
		}
	}
	return ""
}
