package repository

import (
	"time"

	authdomain "github.com/OmarHesham88/Code-Receive/internal/auth/domain"

	"gorm.io/gorm"
)

// AdminSessionRepository persists admin sessions.
type AdminSessionRepository interface {
	Create(session *authdomain.AdminSession) error
	FindByID(id string) (*authdomain.AdminSession, error)
	Delete(id string) error
	DeleteExpired(now time.Time) (int64, error)
}

// adminSessionRepository implements AdminSessionRepository on top of gorm
type adminSessionRepository struct {
	db *gorm.DB
}

// NewAdminSessionRepository creates a new instance of adminSessionRepository
func NewAdminSessionRepository(db *gorm.DB) AdminSessionRepository {
	return &adminSessionRepository{
		db: db,
	}
}

func (r *adminSessionRepository) Create(session *authdomain.AdminSession) error {
	return r.db.Create(session).Error
}

func (r *adminSessionRepository) FindByID(id string) (*authdomain.AdminSession, error) {
	var session authdomain.AdminSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *adminSessionRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&authdomain.AdminSession{}).Error
}

func (r *adminSessionRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", now).Delete(&authdomain.AdminSession{})
	return result.RowsAffected, result.Error
}
