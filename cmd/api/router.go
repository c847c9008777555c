package api

import (
	"net/http"

	authdelivery "github.com/OmarHesham88/Code-Receive/internal/auth/delivery"
	authusecase "github.com/OmarHesham88/Code-Receive/internal/auth/usecase"
	codedelivery "github.com/OmarHesham88/Code-Receive/internal/code/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, codeHandler *codedelivery.CodeHandler, adminUsecase authusecase.AdminUsecase) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.GET("/codes", codeHandler.GetCodes)

		auth := api.Group("/auth")
		{
			auth.GET("/status", codeHandler.AuthStatus)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", codeHandler.AdminLogin)
			admin.GET("/codes", authdelivery.AdminAuthMiddleware(adminUsecase), codeHandler.GetAllCodes)
		}
	}
}
