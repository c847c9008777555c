package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
	"github.com/OmarHesham88/Code-Receive/internal/code/repository"
)

// RecordSource is the capability the read surface consumes. Two
// deployment profiles implement it: a durable store fed by the
// background sync engine, and a stateless profile that queries the
// mailbox on demand behind the short-TTL cache.
type RecordSource interface {
	// CodesForEmail returns recent codes for one recipient.
	CodesForEmail(ctx context.Context, email string) ([]*domain.Code, time.Time, error)

	// AllCodes returns recent codes for every recipient (admin view).
	AllCodes(ctx context.Context) ([]*domain.Code, time.Time, error)
}

// allKey is the cache key for the admin "everything" view.
const allKey = "\x00all"

const (
	fetchRetries = 2
	retryBackoff = 300 * time.Millisecond
)

// storeSource reads from the record store; freshness comes from the
// background sync engine. It tolerates an empty store by returning an
// empty list.
type storeSource struct {
	codeRepo repository.CodeRepository
	recency  time.Duration
	limit    int
}

// NewStoreSource creates the persisted-store profile.
func NewStoreSource(codeRepo repository.CodeRepository, recency time.Duration, limit int) RecordSource {
	return &storeSource{codeRepo: codeRepo, recency: recency, limit: limit}
}

func (s *storeSource) CodesForEmail(_ context.Context, email string) ([]*domain.Code, time.Time, error) {
	now := time.Now()
	codes, err := s.codeRepo.FindRecent(email, now.Add(-s.recency), s.limit)
	if err != nil {
		return nil, time.Time{}, err
	}
	return codes, now, nil
}

func (s *storeSource) AllCodes(_ context.Context) ([]*domain.Code, time.Time, error) {
	now := time.Now()
	codes, err := s.codeRepo.FindRecent("", now.Add(-s.recency), s.limit)
	if err != nil {
		return nil, time.Time{}, err
	}
	return codes, now, nil
}

// liveSource queries the mailbox directly on every cache miss. Transient
// mailbox failures are retried a couple of times with a short backoff
// before surfacing.
type liveSource struct {
	mail     MailFetcher
	cache    *Cache
	lookback time.Duration
}

// NewLiveSource creates the on-demand profile.
func NewLiveSource(mail MailFetcher, cache *Cache, lookback time.Duration) RecordSource {
	return &liveSource{mail: mail, cache: cache, lookback: lookback}
}

func (s *liveSource) CodesForEmail(ctx context.Context, email string) ([]*domain.Code, time.Time, error) {
	entry, err := s.cache.Get(email, func() ([]*domain.Code, error) {
		return s.fetch(ctx, func() ([]domain.MailMessage, error) {
			return s.mail.FetchForRecipient(ctx, email, time.Now().Add(-s.lookback))
		})
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return entry.Items, entry.CheckedAt, nil
}

func (s *liveSource) AllCodes(ctx context.Context) ([]*domain.Code, time.Time, error) {
	entry, err := s.cache.Get(allKey, func() ([]*domain.Code, error) {
		return s.fetch(ctx, func() ([]domain.MailMessage, error) {
			return s.mail.FetchSince(ctx, time.Now().Add(-s.lookback))
		})
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return entry.Items, entry.CheckedAt, nil
}

func (s *liveSource) fetch(ctx context.Context, pull func() ([]domain.MailMessage, error)) ([]*domain.Code, error) {
	var messages []domain.MailMessage
	var err error

	for attempt := 0; ; attempt++ {
		messages, err = pull()
		if err == nil {
			break
		}
		if attempt >= fetchRetries {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}

	var codes []*domain.Code
	for _, msg := range messages {
		codes = append(codes, Normalize(msg)...)
	}

	sort.Slice(codes, func(i, j int) bool {
		return codes[i].ReceivedAt.After(codes[j].ReceivedAt)
	})
	return codes, nil
}
