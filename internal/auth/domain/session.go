package domain

import "time"

// AdminSession is one logged-in admin. Sessions are deleted when they
// expire; they are the only entity besides codes the store holds.
type AdminSession struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}
