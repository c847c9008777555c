package domain

import (
	"fmt"
	"time"
)

// Code is one verification code extracted from a mailbox message.
// Rows are append-only: the sync engine inserts, readers query, nothing
// ever updates a stored code.
type Code struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"uniqueIndex:idx_code_email_received;not null"`
	Email       string    `json:"email" gorm:"uniqueIndex:idx_code_email_received;index;not null"`
	From        string    `json:"from"`
	Subject     string    `json:"subject"`
	ReceivedAt  time.Time `json:"received_at" gorm:"uniqueIndex:idx_code_email_received;index;not null"`
	IsProtected bool      `json:"is_protected"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key returns the identity used for deduplication. The same code may
// legitimately recur for another recipient or at another time, so the
// key is the full (code, email, receivedAt) triple.
func (c *Code) Key() CodeKey {
	return CodeKey{Code: c.Code, Email: c.Email, ReceivedAt: c.ReceivedAt}
}

// CodeKey is the dedup identity of a stored code.
type CodeKey struct {
	Code       string
	Email      string
	ReceivedAt time.Time
}

// String renders the key in a map-friendly form. Millisecond precision
// matches what the store round-trips for timestamps.
func (k CodeKey) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Code, k.Email, k.ReceivedAt.UnixMilli())
}

// MailMessage is one raw message pulled from the mailbox: envelope
// metadata plus the unparsed RFC 822 source.
type MailMessage struct {
	From         string
	To           string
	Subject      string
	Date         time.Time
	InternalDate time.Time
	Raw          []byte
}
