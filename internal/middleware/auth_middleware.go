// backend-erp/internal/middleware/auth_middleware.go
package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"backend-erp/config"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// CachedUserData - данные пользователя в кэше между запросами.
type CachedUserData struct {
	UserID   uint   `json:"user_id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
}

const userCacheTTL = 10 * time.Minute

// AuthMiddleware проверяет access-токен из cookie или заголовка
// Authorization и кладёт данные пользователя в контекст запроса.
// Данные кэшируются в Redis, база опрашивается только на промахе.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Токен авторизации не передан")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Неверный формат заголовка Authorization")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})
		if err != nil || !token.Valid {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Недействительный или истёкший токен")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handleAuthError(c, "Неверные claims токена")
			return
		}
		if tokenType, _ := claims["type"].(string); tokenType != "access" {
			handleAuthError(c, "Ожидался access-токен")
			return
		}
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			handleAuthError(c, "Неверный формат user_id в токене")
			return
		}
		userID := uint(userIDFloat)

		cacheKey := fmt.Sprintf("user:%d:data", userID)
		if config.RDB != nil {
			cachedData, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var userData CachedUserData
				if json.Unmarshal([]byte(cachedData), &userData) == nil {
					setContextAndProceed(c, &userData)
					return
				}
				slog.Warn("не удалось распарсить кэш пользователя", "user_id", userID)
			} else if err != redis.Nil {
				slog.Error("ошибка чтения из Redis", "error", err, "user_id", userID)
			}
		}

		var dbUser models.User
		if err := config.DB.First(&dbUser, userID).Error; err != nil {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Пользователь из токена не найден")
			return
		}
		if dbUser.Status != "active" {
			handleAuthError(c, "Учётная запись заблокирована")
			return
		}

		userData := CachedUserData{
			UserID:   dbUser.ID,
			Login:    dbUser.Login,
			FullName: dbUser.FullName,
		}
		if config.RDB != nil {
			jsonData, err := json.Marshal(userData)
			if err != nil {
				slog.Error("не удалось сериализовать данные пользователя", "error", err, "user_id", userID)
			} else if err := config.RDB.Set(config.Ctx, cacheKey, jsonData, userCacheTTL).Err(); err != nil {
				slog.Error("не удалось записать кэш пользователя", "error", err, "user_id", userID)
			}
		}

		setContextAndProceed(c, &userData)
	}
}

func setContextAndProceed(c *gin.Context, userData *CachedUserData) {
	c.Set("user_id", userData.UserID)
	c.Set("login", userData.Login)
	c.Next()
}

func handleAuthError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
