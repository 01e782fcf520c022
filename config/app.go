// backend-erp/config/app.go
package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

// JwtKey - секретный ключ для подписи access и refresh токенов.
var JwtKey []byte

// UploadDir - каталог для хранения загруженных квитанций и документов.
var UploadDir string

// LoadAppConfig читает остальные настройки приложения из окружения.
// Вызывается после godotenv, поэтому значения из .env уже доступны.
func LoadAppConfig() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "development_jwt_secret"
		slog.Warn("JWT_SECRET не установлен, используется значение по умолчанию (только для разработки!)")
	}
	JwtKey = []byte(secret)

	UploadDir = os.Getenv("UPLOAD_DIR")
	if UploadDir == "" {
		cwd, _ := os.Getwd()
		UploadDir = filepath.Join(cwd, "uploads")
	}

	if err := os.MkdirAll(UploadDir, 0o755); err != nil {
		slog.Error("Не удалось создать каталог загрузок", "dir", UploadDir, "error", err)
		os.Exit(1)
	}
}
