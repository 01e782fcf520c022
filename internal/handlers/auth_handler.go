// backend-erp/internal/handlers/auth_handler.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"backend-erp/config"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Времена жизни токенов.
const (
	accessTokenTTL  = 1 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

type RegisterInput struct {
	Login    string `json:"login" binding:"required,min=3"`
	Email    string `json:"email" binding:"omitempty,email"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func issueToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    tokenType,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JwtKey)
}

// RegisterHandler создаёт учётную запись с bcrypt-хэшем пароля.
func RegisterHandler(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	var existing models.User
	if err := config.DB.Where("login = ?", input.Login).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Пользователь с таким логином уже существует"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при проверке логина"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось захэшировать пароль"})
		return
	}

	user := models.User{
		Login:        input.Login,
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: string(hash),
		Status:       "active",
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать пользователя"})
		return
	}

	slog.Info("пользователь зарегистрирован", "user_id", user.ID, "login", user.Login)
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "login": user.Login})
}

// LoginHandler проверяет пароль и выдаёт пару access/refresh токенов.
// Access-токен дополнительно кладётся в httpOnly-cookie.
func LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("login = ?", input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный логин или пароль"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный логин или пароль"})
		return
	}
	if user.Status != "active" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Учётная запись заблокирована"})
		return
	}

	accessToken, err := issueToken(user.ID, "access", accessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать токен"})
		return
	}
	refreshToken, err := issueToken(user.ID, "refresh", refreshTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать refresh-токен"})
		return
	}

	c.SetCookie("auth_token", accessToken, int(accessTokenTTL.Seconds()), "/", "", false, true)
	slog.Info("пользователь вошёл", "user_id", user.ID, "login", user.Login)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": gin.H{
			"id":        user.ID,
			"login":     user.Login,
			"full_name": user.FullName,
		},
	})
}

// RefreshHandler обменивает действующий refresh-токен на новую пару.
func RefreshHandler(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token обязателен"})
		return
	}

	token, err := jwt.Parse(input.RefreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return config.JwtKey, nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Недействительный refresh-токен"})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "refresh" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Ожидался refresh-токен"})
		return
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный формат токена"})
		return
	}
	userID := uint(userIDFloat)

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не найден"})
		return
	}

	accessToken, err := issueToken(user.ID, "access", accessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать токен"})
		return
	}
	refreshToken, err := issueToken(user.ID, "refresh", refreshTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать refresh-токен"})
		return
	}

	c.SetCookie("auth_token", accessToken, int(accessTokenTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// LogoutHandler сбрасывает cookie и инвалидирует кэш пользователя.
func LogoutHandler(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)

	if userID, exists := c.Get("user_id"); exists && config.RDB != nil {
		cacheKey := fmt.Sprintf("user:%d:data", userID)
		if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
			slog.Warn("не удалось инвалидировать кэш пользователя", "error", err, "user_id", userID)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
}
