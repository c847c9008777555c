package api

import (
	authusecase "github.com/OmarHesham88/Code-Receive/internal/auth/usecase"
	codedelivery "github.com/OmarHesham88/Code-Receive/internal/code/delivery"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	codeHandler  *codedelivery.CodeHandler
	adminUsecase authusecase.AdminUsecase
}

func NewHandler(codeHandler *codedelivery.CodeHandler, adminUsecase authusecase.AdminUsecase) *Handler {
	return &Handler{
		codeHandler:  codeHandler,
		adminUsecase: adminUsecase,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.codeHandler, h.adminUsecase)

	return r.Run(addr)
}
