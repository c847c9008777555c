package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
	"github.com/OmarHesham88/Code-Receive/internal/code/repository"
)

// MailFetcher is the mailbox surface the engine pulls messages from.
// The connection manager in pkg/imap implements it over one persistent
// session and marks that session stale whenever an operation fails.
type MailFetcher interface {
	// FetchSince returns every message received since the watermark,
	// unfiltered by recipient.
	FetchSince(ctx context.Context, since time.Time) ([]domain.MailMessage, error)

	// FetchForRecipient returns messages addressed to email since the
	// given time. Used by the on-demand profile.
	FetchForRecipient(ctx context.Context, email string, since time.Time) ([]domain.MailMessage, error)

	// Check verifies the mailbox credentials with a throwaway session.
	Check(ctx context.Context) error
}

const (
	// existenceChunkSize bounds one FindExisting call. Each key costs
	// three query parameters, so 100 keys stays well under the store's
	// parameter ceiling.
	existenceChunkSize = 100

	// watermarkOverlap is re-scanned each cycle so a message that
	// raced the previous cycle's search is still picked up. Dedup
	// makes the overlap harmless.
	watermarkOverlap = time.Minute
)

// SyncEngine incrementally mirrors verification codes from the mailbox
// into the record store. One cycle: watermark, search, fetch, normalize,
// dedup, append. Cycles never overlap and a failed cycle is retried by
// the next scheduled tick, not within the cycle.
type SyncEngine struct {
	codeRepo repository.CodeRepository
	mail     MailFetcher

	lookback time.Duration
	interval time.Duration

	mu      sync.Mutex
	started bool
	syncing bool
}

// NewSyncEngine creates a new instance of SyncEngine
func NewSyncEngine(codeRepo repository.CodeRepository, mail MailFetcher, lookback, interval time.Duration) *SyncEngine {
	return &SyncEngine{
		codeRepo: codeRepo,
		mail:     mail,
		lookback: lookback,
		interval: interval,
	}
}

// Start launches the background sync loop: one immediate cycle, then
// one per interval for the life of the process. Calling Start again is
// a no-op.
func (e *SyncEngine) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	log.Printf("[SYNC] starting background sync loop (interval: %s)", e.interval)

	go func() {
		e.runOnce()

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for range ticker.C {
			e.runOnce()
		}
	}()
}

// runOnce wraps SyncOnce for the loop: sync failures must never crash
// the process or block the next tick.
func (e *SyncEngine) runOnce() {
	if err := e.SyncOnce(context.Background()); err != nil {
		log.Printf("[SYNC] cycle failed: %v", err)
	}
}

// SyncOnce performs a single sync cycle. A call while another cycle is
// running returns immediately; skipped cycles are skipped, not queued.
func (e *SyncEngine) SyncOnce(ctx context.Context) error {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		log.Printf("[SYNC] skipping - sync already in progress")
		return nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	since, err := e.watermark()
	if err != nil {
		return err
	}

	messages, err := e.mail.FetchSince(ctx, since)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	log.Printf("[SYNC] found %d emails to process", len(messages))

	var candidates []*domain.Code
	for _, msg := range messages {
		candidates = append(candidates, Normalize(msg)...)
	}
	if len(candidates) == 0 {
		return nil
	}

	fresh, err := e.dedup(candidates)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		log.Printf("[SYNC] no new codes (all duplicates)")
		return nil
	}

	if err := e.codeRepo.InsertBatch(fresh); err != nil {
		return err
	}

	log.Printf("[SYNC] saved %d new code(s)", len(fresh))
	return nil
}

// watermark computes the search boundary for this cycle. It is derived
// from the store's newest record every time, so a restarted process
// resumes in the right place without any persisted cursor.
func (e *SyncEngine) watermark() (time.Time, error) {
	latest, err := e.codeRepo.FindLatest()
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Now().Add(-e.lookback), nil
	}
	return latest.ReceivedAt.Add(-watermarkOverlap), nil
}

// dedup drops candidates whose (code, email, receivedAt) triple is
// already stored. Existence checks go out in fixed-size chunks so a big
// batch never exceeds the store's parameters-per-query limit.
func (e *SyncEngine) dedup(candidates []*domain.Code) ([]*domain.Code, error) {
	existing := make(map[string]struct{})

	for start := 0; start < len(candidates); start += existenceChunkSize {
		end := start + existenceChunkSize
		if end > len(candidates) {
			end = len(candidates)
		}

		keys := make([]domain.CodeKey, 0, end-start)
		for _, c := range candidates[start:end] {
			keys = append(keys, c.Key())
		}

		found, err := e.codeRepo.FindExisting(keys)
		if err != nil {
			return nil, err
		}
		for _, k := range found {
			existing[k.String()] = struct{}{}
		}
	}

	fresh := make([]*domain.Code, 0, len(candidates))
	seen := make(map[string]struct{})
	for _, c := range candidates {
		key := c.Key().String()
		if _, ok := existing[key]; ok {
			continue
		}
		// A batch can also collide with itself when the overlap window
		// re-reads a message.
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, c)
	}
	return fresh, nil
}
