// backend-erp/internal/handlers/client_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"backend-erp/config"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClientInput - тело запроса на создание клиента.
type ClientInput struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	TaxID       string `json:"tax_id"`
	StartDate   string `json:"start_date" binding:"required"`
	Status      string `json:"status" binding:"omitempty,oneof=active paused terminated"`
	Notes       string `json:"notes"`
}

// ListClientsHandler возвращает клиентов с фильтром по статусу и
// поиском по имени.
func ListClientsHandler(c *gin.Context) {
	query := config.DB.Model(&models.Client{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать клиентов"})
		return
	}

	var clients []models.Client
	if err := query.Order("name ASC").Scopes(Paginate(c)).Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить клиентов"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, clients, count))
}

func CreateClientHandler(c *gin.Context) {
	var input ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	startDate, err := parseDate(input.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат start_date, ожидается YYYY-MM-DD"})
		return
	}

	status := input.Status
	if status == "" {
		status = models.ClientStatusActive
	}

	client := models.Client{
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		TaxID:       input.TaxID,
		StartDate:   startDate,
		Status:      status,
		Notes:       input.Notes,
	}
	if err := config.DB.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать клиента"})
		return
	}

	slog.Info("клиент создан", "client_id", client.ID, "name", client.Name)
	c.JSON(http.StatusCreated, client)
}

// GetClientHandler возвращает клиента вместе с его проектами.
func GetClientHandler(c *gin.Context) {
	var client models.Client
	if err := config.DB.Preload("Projects").First(&client, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}
	c.JSON(http.StatusOK, client)
}

func UpdateClientHandler(c *gin.Context) {
	var client models.Client
	if err := config.DB.First(&client, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	var input map[string]interface{}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	for _, field := range []string{"name", "contact_name", "email", "phone", "address", "tax_id", "notes"} {
		if value, ok := input[field]; ok {
			updates[field] = value
		}
	}
	if value, ok := input["status"]; ok {
		status, _ := value.(string)
		switch status {
		case models.ClientStatusActive, models.ClientStatusPaused, models.ClientStatusTerminated:
			updates["status"] = status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус клиента"})
			return
		}
	}
	if value, ok := input["start_date"]; ok {
		raw, _ := value.(string)
		date, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат start_date"})
			return
		}
		updates["start_date"] = date
	}

	if err := config.DB.Model(&client).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить клиента"})
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClientHandler удаляет клиента со всеми его проектами, планами
// и платежами в одной транзакции.
func DeleteClientHandler(c *gin.Context) {
	var client models.Client
	if err := config.DB.First(&client, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	tx := config.DB.Begin()

	var projectIDs []uint
	if err := tx.Model(&models.Project{}).
		Where("client_id = ?", client.ID).
		Pluck("id", &projectIDs).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить проекты клиента"})
		return
	}

	if len(projectIDs) > 0 {
		if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Payment{}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить платежи клиента"})
			return
		}
		if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.PaymentPlan{}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить планы оплаты"})
			return
		}
		if err := tx.Where("client_id = ?", client.ID).Delete(&models.Project{}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить проекты клиента"})
			return
		}
	}

	if err := tx.Delete(&client).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить клиента"})
		return
	}
	tx.Commit()

	slog.Info("клиент удалён", "client_id", client.ID, "projects", len(projectIDs))
	c.JSON(http.StatusOK, gin.H{"message": "Клиент удалён"})
}
