package dto

import (
	"time"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
)

type CodeItem struct {
	Code        string    `json:"code"`
	From        string    `json:"from"`
	Email       string    `json:"email,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	ReceivedAt  time.Time `json:"receivedAt"`
	IsProtected bool      `json:"isProtected"`
}

type CodesResponse struct {
	Email     string     `json:"email,omitempty"`
	Items     []CodeItem `json:"items"`
	CheckedAt time.Time  `json:"checkedAt"`
}

type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message"`
}

// FromDomain shapes stored codes for the JSON read surface.
func FromDomain(codes []*domain.Code, includeEmail bool) []CodeItem {
	items := make([]CodeItem, 0, len(codes))
	for _, c := range codes {
		item := CodeItem{
			Code:        c.Code,
			From:        c.From,
			Subject:     c.Subject,
			ReceivedAt:  c.ReceivedAt,
			IsProtected: c.IsProtected,
		}
		if includeEmail {
			item.Email = c.Email
		}
		items = append(items, item)
	}
	return items
}
