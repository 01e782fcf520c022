// backend-erp/internal/routes/router.go
package routes

import (
	"backend-erp/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine) {
	// Публичные маршруты: вход, регистрация, обновление токена.
	RegisterAuthRoutes(r)

	// Всё API требует аутентификации.
	authRequired := r.Group("/api")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
