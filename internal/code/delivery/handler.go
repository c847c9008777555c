package delivery

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	authdelivery "github.com/OmarHesham88/Code-Receive/internal/auth/delivery"
	authusecase "github.com/OmarHesham88/Code-Receive/internal/auth/usecase"
	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
	"github.com/OmarHesham88/Code-Receive/internal/code/dto"
	"github.com/OmarHesham88/Code-Receive/internal/code/usecase"
	"github.com/OmarHesham88/Code-Receive/pkg/config"

	"github.com/gin-gonic/gin"
)

// authStatusTTL caches the credential check so page loads don't hammer
// the IMAP server.
const authStatusTTL = 60 * time.Second

type CodeHandler struct {
	source       usecase.RecordSource
	mail         usecase.MailFetcher
	adminUsecase authusecase.AdminUsecase
	config       *config.Config

	statusMu     sync.Mutex
	statusCached *dto.AuthStatusResponse
	statusExpiry time.Time
}

func NewCodeHandler(source usecase.RecordSource, mail usecase.MailFetcher, adminUsecase authusecase.AdminUsecase, cfg *config.Config) *CodeHandler {
	return &CodeHandler{
		source:       source,
		mail:         mail,
		adminUsecase: adminUsecase,
		config:       cfg,
	}
}

// GetCodes serves GET /api/codes?email= for one recipient.
func (h *CodeHandler) GetCodes(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if err := h.validateEmail(email); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	codes, checkedAt, err := h.source.CodesForEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CodesResponse{
		Email:     email,
		Items:     dto.FromDomain(codes, false),
		CheckedAt: checkedAt,
	})
}

// GetAllCodes serves GET /api/admin/codes, behind the admin middleware.
func (h *CodeHandler) GetAllCodes(c *gin.Context) {
	codes, checkedAt, err := h.source.AllCodes(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CodesResponse{
		Items:     dto.FromDomain(codes, true),
		CheckedAt: checkedAt,
	})
}

// AdminLogin serves POST /api/admin/login and sets the session cookie.
func (h *CodeHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request."})
		return
	}

	token, err := h.adminUsecase.Login(strings.TrimSpace(req.Password))
	if err != nil {
		if errors.Is(err, authusecase.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session error."})
		return
	}

	maxAge := h.config.AdminSessionHours * 3600
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authdelivery.SessionCookieName, token, maxAge, "/", "", h.config.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AuthStatus serves GET /api/auth/status: an actual credential check
// against the IMAP server, cached for a minute.
func (h *CodeHandler) AuthStatus(c *gin.Context) {
	h.statusMu.Lock()
	if h.statusCached != nil && time.Now().Before(h.statusExpiry) {
		cached := *h.statusCached
		h.statusMu.Unlock()
		c.JSON(http.StatusOK, cached)
		return
	}
	h.statusMu.Unlock()

	status := dto.AuthStatusResponse{Authenticated: true, Message: "IMAP connected. Ready to search."}
	if err := h.mail.Check(c.Request.Context()); err != nil {
		status.Authenticated = false
		if errors.Is(err, domain.ErrMissingCredentials) {
			status.Message = "IMAP credentials not configured in .env"
		} else {
			status.Message = "IMAP connection failed: " + err.Error()
		}
	}

	h.statusMu.Lock()
	h.statusCached = &status
	h.statusExpiry = time.Now().Add(authStatusTTL)
	h.statusMu.Unlock()

	c.JSON(http.StatusOK, status)
}

func (h *CodeHandler) validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return &domain.ValidationError{Msg: "Please provide a valid email address."}
	}

	// A deployment can be pinned to one inbox address.
	if h.config.AuthorizedInbox != "" && email != h.config.AuthorizedInbox {
		return domain.ErrNotAuthorizedInbox
	}

	if len(h.config.AllowedDomains) > 0 {
		at := strings.LastIndex(email, "@")
		emailDomain := email[at+1:]
		allowed := false
		for _, d := range h.config.AllowedDomains {
			if emailDomain == d {
				allowed = true
				break
			}
		}
		if !allowed {
			return domain.ErrDomainNotAllowed
		}
	}
	return nil
}

// statusFor maps the error taxonomy onto HTTP statuses: bad input 400,
// missing credentials 401, disallowed domain or wrong inbox 403,
// everything else 500.
func statusFor(err error) int {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDomainNotAllowed), errors.Is(err, domain.ErrNotAuthorizedInbox):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
