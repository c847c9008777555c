package repository

import (
	"time"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// codeRepository implements CodeRepository on top of gorm
type codeRepository struct {
	db *gorm.DB
}

// NewCodeRepository creates a new instance of codeRepository
func NewCodeRepository(db *gorm.DB) CodeRepository {
	return &codeRepository{
		db: db,
	}
}

func (r *codeRepository) InsertBatch(codes []*domain.Code) error {
	if len(codes) == 0 {
		return nil
	}

	now := time.Now()
	for _, c := range codes {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.CreatedAt = now
	}

	if err := r.db.Create(&codes).Error; err != nil {
		return &domain.StorageError{Op: "insert batch", Err: err}
	}
	return nil
}

func (r *codeRepository) FindExisting(keys []domain.CodeKey) ([]domain.CodeKey, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	tuples := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		tuples = append(tuples, []interface{}{k.Code, k.Email, k.ReceivedAt})
	}

	var found []domain.Code
	err := r.db.
		Select("code", "email", "received_at").
		Where("(code, email, received_at) IN ?", tuples).
		Find(&found).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "find existing", Err: err}
	}

	existing := make([]domain.CodeKey, 0, len(found))
	for i := range found {
		existing = append(existing, found[i].Key())
	}
	return existing, nil
}

func (r *codeRepository) FindLatest() (*domain.Code, error) {
	var code domain.Code
	err := r.db.Order("received_at DESC").First(&code).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, &domain.StorageError{Op: "find latest", Err: err}
	}
	return &code, nil
}

func (r *codeRepository) FindRecent(email string, since time.Time, limit int) ([]*domain.Code, error) {
	query := r.db.Where("received_at >= ?", since)
	if email != "" {
		query = query.Where("email = ?", email)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var codes []*domain.Code
	if err := query.Order("received_at DESC").Find(&codes).Error; err != nil {
		return nil, &domain.StorageError{Op: "find recent", Err: err}
	}
	return codes, nil
}
