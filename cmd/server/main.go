// backend-erp/cmd/server/main.go
package main

import (
	"log/slog"
	"os"
	"time"

	"backend-erp/config"
	"backend-erp/internal/currency"
	"backend-erp/internal/handlers"
	"backend-erp/internal/routes"
	"backend-erp/internal/storage"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env не найден, используются переменные окружения")
	}

	config.LoadAppConfig()
	config.ConnectDB()
	config.ConnectRedis()

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Project{},
		&models.PaymentPlan{},
		&models.Payment{},
		&models.Expense{},
		&models.RecurringExpense{},
		&models.AccruedExpense{},
		&models.Income{},
		&models.Document{},
	); err != nil {
		slog.Error("Ошибка миграции базы данных", "error", err)
		os.Exit(1)
	}

	// Кэш курсов валют живёт в Redis, при его недоступности - в памяти.
	var rateCache currency.RateCache
	if config.RDB != nil {
		rateCache = currency.NewRedisCache(config.RDB, 24*time.Hour)
	} else {
		rateCache = currency.NewMemoryCache(time.Hour)
	}
	handlers.SetConverter(currency.New(rateCache, os.Getenv("EXCHANGE_RATE_API_KEY")))

	files, err := storage.New(config.UploadDir)
	if err != nil {
		slog.Error("Ошибка инициализации файлового хранилища", "error", err)
		os.Exit(1)
	}
	handlers.SetFileStore(files)

	r := gin.Default()
	r.MaxMultipartMemory = 16 << 20

	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Сервер запускается", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}
