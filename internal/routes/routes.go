package routes

import (
	"net/http"

	"iceberg_backend/internal/handlers"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes регистрирует все HTTP маршруты.
// authMW и stepUpMW собираются в app и передаются готовыми:
// сами маршруты не знают про токены и репозитории.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authMW gin.HandlerFunc,
	stepUpMW gin.HandlerFunc,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := ginRouter.Group("/api")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, authMW, stepUpMW)
		appHandlers.TwoFactorHandler.RegisterRoutes(api, authMW, stepUpMW)
		appHandlers.AdminHandler.RegisterRoutes(api, authMW, stepUpMW)
		appHandlers.StaffApplicationHandler.RegisterRoutes(api, authMW, stepUpMW)
	}
}
