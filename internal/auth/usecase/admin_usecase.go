package usecase

import (
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"time"

	authdomain "github.com/OmarHesham88/Code-Receive/internal/auth/domain"
	"github.com/OmarHesham88/Code-Receive/internal/auth/repository"
	"github.com/OmarHesham88/Code-Receive/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("unauthorized")

// AdminUsecase handles admin login and session verification.
type AdminUsecase interface {
	// Login checks the password and returns a signed session token.
	Login(password string) (string, error)

	// Verify checks a session token: valid signature, live session row,
	// not expired. Expired sessions are deleted on sight.
	Verify(token string) error
}

// adminUsecase implements AdminUsecase
type adminUsecase struct {
	sessionRepo repository.AdminSessionRepository
	config      *config.Config
}

// NewAdminUsecase creates a new instance of adminUsecase and starts the
// hourly sweep of expired sessions.
func NewAdminUsecase(sessionRepo repository.AdminSessionRepository, cfg *config.Config) AdminUsecase {
	uc := &adminUsecase{
		sessionRepo: sessionRepo,
		config:      cfg,
	}
	uc.startExpiryChecker()
	return uc
}

func (u *adminUsecase) Login(password string) (string, error) {
	if !u.passwordValid(password) {
		return "", ErrUnauthorized
	}

	session := &authdomain.AdminSession{
		ID:        uuid.New().String(),
		ExpiresAt: time.Now().Add(time.Duration(u.config.AdminSessionHours) * time.Hour),
		CreatedAt: time.Now(),
	}
	if err := u.sessionRepo.Create(session); err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		Subject:   session.ID,
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *adminUsecase) Verify(tokenString string) error {
	if tokenString == "" {
		return ErrUnauthorized
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(u.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return ErrUnauthorized
	}

	// The token is signed, but the session row is what makes it
	// revocable.
	session, err := u.sessionRepo.FindByID(claims.Subject)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrUnauthorized
	}
	if session.ExpiresAt.Before(time.Now()) {
		_ = u.sessionRepo.Delete(session.ID)
		return ErrUnauthorized
	}
	return nil
}

// passwordValid compares the submitted password against the configured
// list. Entries that look like bcrypt hashes are compared with bcrypt,
// anything else in constant time.
func (u *adminUsecase) passwordValid(password string) bool {
	if password == "" || len(u.config.AdminPasswords) == 0 {
		return false
	}

	for _, candidate := range u.config.AdminPasswords {
		if strings.HasPrefix(candidate, "$2") {
			if bcrypt.CompareHashAndPassword([]byte(candidate), []byte(password)) == nil {
				return true
			}
			continue
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(password)) == 1 {
			return true
		}
	}
	return false
}

func (u *adminUsecase) startExpiryChecker() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			deleted, err := u.sessionRepo.DeleteExpired(time.Now())
			if err != nil {
				log.Printf("[AUTH] failed to prune expired sessions: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("[AUTH] pruned %d expired session(s)", deleted)
			}
		}
	}()
}
