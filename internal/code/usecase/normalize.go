package usecase

import (
	"bytes"
	"io"
	"strings"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"

	"github.com/emersion/go-message/mail"
)

// Markers that flag a code as coming from a password-reset or secure
// notice. Best-effort keyword and template matching, nothing stronger.
var protectedMarkers = []string{
	"reset code",
	"password reset",
}

const protectedHTMLSignature = "background-color: #f3f3f3"

// Normalize turns one mailbox message into candidate code records, one
// per distinct extracted code. A message without an envelope date or an
// internal date cannot be ordered or deduplicated, so it is skipped.
func Normalize(msg domain.MailMessage) []*domain.Code {
	receivedAt := msg.Date
	if receivedAt.IsZero() {
		receivedAt = msg.InternalDate
	}
	if receivedAt.IsZero() {
		return nil
	}

	text, html := parseBody(msg.Raw)
	combined := text + " " + html

	codes := ExtractCodes(combined)
	if len(codes) == 0 {
		return nil
	}

	from := msg.From
	if from == "" {
		from = "unknown"
	}
	to := strings.ToLower(msg.To)
	if to == "" {
		to = "unknown"
	}

	isProtected := false
	for _, marker := range protectedMarkers {
		if strings.Contains(combined, marker) {
			isProtected = true
			break
		}
	}
	if !isProtected && html != "" && strings.Contains(html, protectedHTMLSignature) {
		isProtected = true
	}

	records := make([]*domain.Code, 0, len(codes))
	for _, code := range codes {
		records = append(records, &domain.Code{
			Code:        code,
			Email:       to,
			From:        from,
			Subject:     msg.Subject,
			ReceivedAt:  receivedAt,
			IsProtected: isProtected,
		})
	}
	return records
}

// parseBody extracts the text/plain and text/html parts of a raw RFC 822
// message. When the MIME structure cannot be parsed the whole source is
// treated as plain text rather than dropped.
func parseBody(raw []byte) (text, html string) {
	if len(raw) == 0 {
		return "", ""
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := header.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			text = string(body)
		case strings.HasPrefix(contentType, "text/html"):
			html = string(body)
		}
	}

	return text, html
}
