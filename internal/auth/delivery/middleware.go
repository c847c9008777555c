package delivery

import (
	"net/http"

	"github.com/OmarHesham88/Code-Receive/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

// AdminAuthMiddleware rejects requests without a valid admin session
// cookie.
func AdminAuthMiddleware(adminUsecase usecase.AdminUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized."})
			c.Abort()
			return
		}

		if err := adminUsecase.Verify(token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized."})
			c.Abort()
			return
		}

		c.Next()
	}
}
