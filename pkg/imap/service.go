package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
	"github.com/OmarHesham88/Code-Receive/pkg/config"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
)

func init() {
	// Servers send envelopes in whatever charset they like.
	imap.CharsetReader = charset.Reader
}

const commandTimeout = 30 * time.Second

// Manager owns the single persistent IMAP session of the process. It
// connects lazily, detects a dead session before reuse, and reconnects
// after any operation failure. All mailbox operations are serialized
// behind one lock so the transport never sees overlapping commands.
type Manager struct {
	cfg *config.Config

	mu     sync.Mutex
	client *client.Client
}

// NewManager creates a manager for the configured mailbox. No
// connection is opened until the first operation needs one.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// FetchSince returns every message received since the watermark.
func (m *Manager) FetchSince(ctx context.Context, since time.Time) ([]domain.MailMessage, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	return m.search(ctx, criteria)
}

// FetchForRecipient returns messages addressed to email since the given
// time. The recipient filter is pushed into the search itself.
func (m *Manager) FetchForRecipient(ctx context.Context, email string, since time.Time) ([]domain.MailMessage, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.Header = textproto.MIMEHeader{"To": {email}}
	return m.search(ctx, criteria)
}

// Check verifies the configured credentials with a throwaway session,
// leaving the persistent one untouched.
func (m *Manager) Check(ctx context.Context) error {
	if !m.cfg.HasIMAPCredentials() {
		return domain.ErrMissingCredentials
	}

	c, err := m.dial()
	if err != nil {
		return err
	}
	defer func() { _ = c.Logout() }()

	if err := c.Login(m.cfg.IMAPUser, m.cfg.IMAPPassword); err != nil {
		return &domain.TransportError{Op: "login", Err: err}
	}
	if _, err := c.Select(m.cfg.IMAPMailbox, true); err != nil {
		return &domain.TransportError{Op: "select", Err: err}
	}
	return nil
}

// Close logs out the persistent session, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		_ = m.client.Logout()
		m.client = nil
	}
}

// search runs one search-and-fetch pass under the session lock. Any
// failure marks the session stale so the next caller reconnects instead
// of reusing a broken pipe.
func (m *Manager) search(ctx context.Context, criteria *imap.SearchCriteria) ([]domain.MailMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := m.acquireLocked()
	if err != nil {
		return nil, err
	}

	messages, err := fetchMatching(c, criteria)
	if err != nil {
		m.markStaleLocked()
		return nil, err
	}
	return messages, nil
}

// acquireLocked returns a usable session, reconnecting when the prior
// one is absent or has signalled logout. Callers hold m.mu.
func (m *Manager) acquireLocked() (*client.Client, error) {
	if m.client != nil {
		select {
		case <-m.client.LoggedOut():
			log.Printf("[IMAP] connection closed, reconnecting")
			m.client = nil
		default:
			return m.client, nil
		}
	}

	if !m.cfg.HasIMAPCredentials() {
		return nil, domain.ErrMissingCredentials
	}

	c, err := m.dial()
	if err != nil {
		return nil, err
	}

	if err := c.Login(m.cfg.IMAPUser, m.cfg.IMAPPassword); err != nil {
		_ = c.Logout()
		return nil, &domain.TransportError{Op: "login", Err: err}
	}

	// Read-only select: the engine only ever reads the mailbox.
	if _, err := c.Select(m.cfg.IMAPMailbox, true); err != nil {
		_ = c.Logout()
		return nil, &domain.TransportError{Op: "select", Err: err}
	}

	log.Printf("[IMAP] connected to %s", m.cfg.IMAPHost)
	m.client = c
	return c, nil
}

func (m *Manager) markStaleLocked() {
	if m.client != nil {
		_ = m.client.Logout()
		m.client = nil
	}
}

func (m *Manager) dial() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", m.cfg.IMAPHost, m.cfg.IMAPPort)

	var c *client.Client
	var err error
	if m.cfg.IMAPSecure {
		c, err = client.DialTLS(addr, &tls.Config{ServerName: m.cfg.IMAPHost})
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, &domain.TransportError{Op: "dial", Err: err}
	}

	c.Timeout = commandTimeout
	return c, nil
}

// fetchMatching searches the selected mailbox and pulls envelope,
// internal date and full source for every hit.
func fetchMatching(c *client.Client, criteria *imap.SearchCriteria) ([]domain.MailMessage, error) {
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, &domain.TransportError{Op: "search", Err: err}
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var messages []domain.MailMessage
	for msg := range ch {
		messages = append(messages, convertMessage(msg, section))
	}

	if err := <-done; err != nil {
		return nil, &domain.TransportError{Op: "fetch", Err: err}
	}
	return messages, nil
}

func convertMessage(msg *imap.Message, section *imap.BodySectionName) domain.MailMessage {
	out := domain.MailMessage{
		InternalDate: msg.InternalDate,
	}

	if msg.Envelope != nil {
		out.Subject = msg.Envelope.Subject
		out.Date = msg.Envelope.Date
		out.From = firstAddress(msg.Envelope.From)
		out.To = firstAddress(msg.Envelope.To)
	}

	if body := msg.GetBody(section); body != nil {
		if raw, err := io.ReadAll(body); err == nil {
			out.Raw = raw
		}
	}
	return out
}

// firstAddress resolves an envelope address list to a single string,
// preferring the structured mailbox@host form over the display name.
func firstAddress(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	addr := addrs[0]
	if s := addr.Address(); s != "" && s != "@" {
		return strings.ToLower(s)
	}
	return addr.PersonalName
}
