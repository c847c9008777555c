package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
)

// fakeCodeRepo is an in-memory CodeRepository that records the size of
// every existence-check query.
type fakeCodeRepo struct {
	mu             sync.Mutex
	stored         map[string]*domain.Code
	queryKeyCounts []int
	insertBatches  [][]*domain.Code
	findLatestErr  error
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{stored: make(map[string]*domain.Code)}
}

func (r *fakeCodeRepo) InsertBatch(codes []*domain.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertBatches = append(r.insertBatches, codes)
	for _, c := range codes {
		r.stored[c.Key().String()] = c
	}
	return nil
}

func (r *fakeCodeRepo) FindExisting(keys []domain.CodeKey) ([]domain.CodeKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryKeyCounts = append(r.queryKeyCounts, len(keys))

	var found []domain.CodeKey
	for _, k := range keys {
		if _, ok := r.stored[k.String()]; ok {
			found = append(found, k)
		}
	}
	return found, nil
}

func (r *fakeCodeRepo) FindLatest() (*domain.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findLatestErr != nil {
		return nil, r.findLatestErr
	}

	var latest *domain.Code
	for _, c := range r.stored {
		if latest == nil || c.ReceivedAt.After(latest.ReceivedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (r *fakeCodeRepo) FindRecent(email string, since time.Time, limit int) ([]*domain.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Code
	for _, c := range r.stored {
		if email != "" && c.Email != email {
			continue
		}
		if c.ReceivedAt.Before(since) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCodeRepo) storedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stored)
}

// fakeMailFetcher serves a fixed mailbox state, optionally failing, and
// can block to let tests hold a cycle open.
type fakeMailFetcher struct {
	mu       sync.Mutex
	messages []domain.MailMessage
	err      error
	calls    int
	block    chan struct{}
}

func (f *fakeMailFetcher) FetchSince(_ context.Context, _ time.Time) ([]domain.MailMessage, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	err := f.err
	messages := f.messages
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (f *fakeMailFetcher) FetchForRecipient(ctx context.Context, _ string, since time.Time) ([]domain.MailMessage, error) {
	return f.FetchSince(ctx, since)
}

func (f *fakeMailFetcher) Check(context.Context) error { return nil }

func (f *fakeMailFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testMessage(to, body string, received time.Time) domain.MailMessage {
	return domain.MailMessage{
		From: "noreply@service.example",
		To:   to,
		Date: received,
		Raw:  []byte(fmt.Sprintf("To: %s\r\nContent-Type: text/plain\r\n\r\n%s", to, body)),
	}
}

func TestSyncOnceExtractsAndStores(t *testing.T) {
	repo := newFakeCodeRepo()
	mail := &fakeMailFetcher{
		messages: []domain.MailMessage{
			testMessage("user@x.com", "Your code is 482910.", time.Now().Add(-time.Minute)),
		},
	}
	engine := NewSyncEngine(repo, mail, 5*time.Minute, time.Second)

	require.NoError(t, engine.SyncOnce(context.Background()))

	require.Len(t, repo.insertBatches, 1)
	require.Len(t, repo.insertBatches[0], 1)
	rec := repo.insertBatches[0][0]
	assert.Equal(t, "482910", rec.Code)
	assert.Equal(t, "user@x.com", rec.Email)
	assert.False(t, rec.IsProtected)
}

func TestSyncOnceIsIdempotent(t *testing.T) {
	repo := newFakeCodeRepo()
	received := time.Now().Add(-time.Minute)
	mail := &fakeMailFetcher{
		messages: []domain.MailMessage{
			testMessage("user@x.com", "code 111111", received),
			testMessage("other@x.com", "code 222222", received),
		},
	}
	engine := NewSyncEngine(repo, mail, 5*time.Minute, time.Second)

	require.NoError(t, engine.SyncOnce(context.Background()))
	first := repo.storedCount()
	require.Equal(t, 2, first)

	// Same mailbox state again: the second cycle must insert nothing.
	require.NoError(t, engine.SyncOnce(context.Background()))
	assert.Equal(t, first, repo.storedCount())
	assert.Len(t, repo.insertBatches, 1, "second cycle should not append a batch")
}

func TestDedupKeyIncludesReceivedAt(t *testing.T) {
	repo := newFakeCodeRepo()
	t1 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Minute)
	mail := &fakeMailFetcher{
		messages: []domain.MailMessage{
			testMessage("user@x.com", "code 482910", t1),
			testMessage("user@x.com", "code 482910", t2),
		},
	}
	engine := NewSyncEngine(repo, mail, 5*time.Minute, time.Second)

	require.NoError(t, engine.SyncOnce(context.Background()))

	// Same code, same recipient, different receivedAt: both retained.
	assert.Equal(t, 2, repo.storedCount())
}

func TestExistenceChecksAreChunked(t *testing.T) {
	repo := newFakeCodeRepo()

	messages := make([]domain.MailMessage, 0, 250)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		messages = append(messages, testMessage(
			fmt.Sprintf("user%d@x.com", i),
			fmt.Sprintf("code %06d", 100000+i),
			base.Add(time.Duration(i)*time.Second),
		))
	}
	mail := &fakeMailFetcher{messages: messages}
	engine := NewSyncEngine(repo, mail, time.Hour, time.Second)

	require.NoError(t, engine.SyncOnce(context.Background()))

	require.NotEmpty(t, repo.queryKeyCounts)
	total := 0
	for _, n := range repo.queryKeyCounts {
		assert.LessOrEqual(t, n, existenceChunkSize, "one existence check exceeded the chunk size")
		total += n
	}
	assert.Equal(t, 250, total)
	assert.Equal(t, 250, repo.storedCount())
}

func TestConcurrentCycleIsSkipped(t *testing.T) {
	repo := newFakeCodeRepo()
	block := make(chan struct{})
	mail := &fakeMailFetcher{block: block}
	engine := NewSyncEngine(repo, mail, 5*time.Minute, time.Second)

	done := make(chan error, 1)
	go func() {
		done <- engine.SyncOnce(context.Background())
	}()

	// Wait for the first cycle to reach the mailbox fetch.
	require.Eventually(t, func() bool { return mail.callCount() == 1 }, time.Second, time.Millisecond)

	// Overlapping call: a no-op, not an error, not queued.
	require.NoError(t, engine.SyncOnce(context.Background()))
	assert.Equal(t, 1, mail.callCount())

	close(block)
	require.NoError(t, <-done)
}

func TestFailedFetchAbortsWithoutPartialInserts(t *testing.T) {
	repo := newFakeCodeRepo()
	mail := &fakeMailFetcher{err: errors.New("connection reset")}
	engine := NewSyncEngine(repo, mail, 5*time.Minute, time.Second)

	err := engine.SyncOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, repo.storedCount())
	assert.Empty(t, repo.insertBatches)

	// The next cycle runs normally once the mailbox recovers.
	mail.mu.Lock()
	mail.err = nil
	mail.messages = []domain.MailMessage{
		testMessage("user@x.com", "code 482910", time.Now().Add(-time.Minute)),
	}
	mail.mu.Unlock()

	require.NoError(t, engine.SyncOnce(context.Background()))
	assert.Equal(t, 1, repo.storedCount())
}

func TestWatermarkFromLatestStoredRecord(t *testing.T) {
	repo := newFakeCodeRepo()
	latest := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertBatch([]*domain.Code{{
		Code: "482910", Email: "user@x.com", ReceivedAt: latest,
	}}))
	repo.insertBatches = nil

	engine := NewSyncEngine(repo, newWatermarkProbeFetcher(t, latest.Add(-watermarkOverlap)), 5*time.Minute, time.Second)
	require.NoError(t, engine.SyncOnce(context.Background()))
}

func TestWatermarkFallsBackToLookbackWhenEmpty(t *testing.T) {
	repo := newFakeCodeRepo()
	lookback := 5 * time.Minute

	probe := &watermarkProbe{t: t}
	engine := NewSyncEngine(repo, probe, lookback, time.Second)
	require.NoError(t, engine.SyncOnce(context.Background()))

	wantAround := time.Now().Add(-lookback)
	assert.WithinDuration(t, wantAround, probe.got, 5*time.Second)
}

// watermarkProbe records the since argument the engine searches with.
type watermarkProbe struct {
	t    *testing.T
	want time.Time
	got  time.Time
}

func newWatermarkProbeFetcher(t *testing.T, want time.Time) *watermarkProbe {
	return &watermarkProbe{t: t, want: want}
}

func (p *watermarkProbe) FetchSince(_ context.Context, since time.Time) ([]domain.MailMessage, error) {
	p.got = since
	if !p.want.IsZero() && !since.Equal(p.want) {
		p.t.Errorf("search watermark = %v, want %v", since, p.want)
	}
	return nil, nil
}

func (p *watermarkProbe) FetchForRecipient(ctx context.Context, _ string, since time.Time) ([]domain.MailMessage, error) {
	return p.FetchSince(ctx, since)
}

func (p *watermarkProbe) Check(context.Context) error { return nil }
