package repository

import (
	"time"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
)

// CodeRepository is the append/query surface over stored codes.
type CodeRepository interface {
	// InsertBatch appends records in one statement. Records are never
	// updated after insertion.
	InsertBatch(codes []*domain.Code) error

	// FindExisting returns the subset of keys already present in the
	// store. Callers must pass bounded chunks; each key expands to
	// three query parameters.
	FindExisting(keys []domain.CodeKey) ([]domain.CodeKey, error)

	// FindLatest returns the most recently received code, or nil when
	// the store is empty.
	FindLatest() (*domain.Code, error)

	// FindRecent returns codes received at or after since, newest
	// first. An empty email matches all recipients.
	FindRecent(email string, since time.Time, limit int) ([]*domain.Code, error)
}
