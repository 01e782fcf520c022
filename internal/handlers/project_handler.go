// backend-erp/internal/handlers/project_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"backend-erp/config"
	"backend-erp/internal/finance"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentPlanInput - вложенный план оплаты при создании проекта.
type PaymentPlanInput struct {
	Type string `json:"type" binding:"required,oneof=one_time_fee installments subscription hybrid"`

	ImplementationFeeTotal        float64 `json:"implementation_fee_total"`
	ImplementationFeeCurrency     string  `json:"implementation_fee_currency" binding:"omitempty,oneof=COP USD"`
	ImplementationFeeInstallments int     `json:"implementation_fee_installments"`

	RecurringFeeAmount             float64 `json:"recurring_fee_amount"`
	RecurringFeeCurrency           string  `json:"recurring_fee_currency" binding:"omitempty,oneof=COP USD"`
	RecurringFeeFrequency          string  `json:"recurring_fee_frequency"`
	RecurringFeeDayOfCharge        int     `json:"recurring_fee_day_of_charge"`
	RecurringFeeGracePeriods       int     `json:"recurring_fee_grace_periods"`
	RecurringFeeDiscountPeriods    int     `json:"recurring_fee_discount_periods"`
	RecurringFeeDiscountPercentage float64 `json:"recurring_fee_discount_percentage"`
}

func (in *PaymentPlanInput) toModel(projectID uint) models.PaymentPlan {
	installments := in.ImplementationFeeInstallments
	if installments <= 0 {
		installments = 1
	}
	return models.PaymentPlan{
		ProjectID:                      projectID,
		Type:                           in.Type,
		ImplementationFeeTotal:         in.ImplementationFeeTotal,
		ImplementationFeeCurrency:      in.ImplementationFeeCurrency,
		ImplementationFeeInstallments:  installments,
		RecurringFeeAmount:             in.RecurringFeeAmount,
		RecurringFeeCurrency:           in.RecurringFeeCurrency,
		RecurringFeeFrequency:          in.RecurringFeeFrequency,
		RecurringFeeDayOfCharge:        in.RecurringFeeDayOfCharge,
		RecurringFeeGracePeriods:       in.RecurringFeeGracePeriods,
		RecurringFeeDiscountPeriods:    in.RecurringFeeDiscountPeriods,
		RecurringFeeDiscountPercentage: in.RecurringFeeDiscountPercentage,
	}
}

// ProjectInput - тело запроса на создание проекта. План оплаты
// создаётся вместе с проектом и валидируется до записи в базу.
type ProjectInput struct {
	ClientID    uint              `json:"client_id" binding:"required"`
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description" binding:"required"`
	StartDate   string            `json:"start_date" binding:"required"`
	EndDate     string            `json:"end_date"`
	Status      string            `json:"status" binding:"omitempty,oneof=active paused finished cancelled"`
	Notes       string            `json:"notes"`
	PaymentPlan *PaymentPlanInput `json:"payment_plan" binding:"required"`
}

// ListProjectsHandler возвращает проекты с фильтрами по клиенту и статусу.
func ListProjectsHandler(c *gin.Context) {
	query := config.DB.Model(&models.Project{}).Preload("PaymentPlan")

	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать проекты"})
		return
	}

	var projects []models.Project
	if err := query.Order("start_date DESC").Scopes(Paginate(c)).Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить проекты"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, projects, count))
}

func CreateProjectHandler(c *gin.Context) {
	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	var client models.Client
	if err := config.DB.First(&client, input.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	startDate, err := parseDate(input.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат start_date, ожидается YYYY-MM-DD"})
		return
	}

	project := models.Project{
		ClientID:    input.ClientID,
		Name:        input.Name,
		Description: input.Description,
		StartDate:   startDate,
		Status:      input.Status,
		Notes:       input.Notes,
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}
	if input.EndDate != "" {
		endDate, err := parseDate(input.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат end_date"})
			return
		}
		project.EndDate = &endDate
	}

	// План валидируется целиком до записи: частично записанный проект
	// с неконсистентным планом хуже, чем отказ.
	plan := input.PaymentPlan.toModel(0)
	if err := finance.ValidatePlan(&plan); err != nil {
		respondFinanceError(c, err)
		return
	}

	tx := config.DB.Begin()
	if err := tx.Create(&project).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать проект"})
		return
	}
	plan.ProjectID = project.ID
	if err := tx.Create(&plan).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать план оплаты"})
		return
	}
	tx.Commit()

	project.PaymentPlan = &plan
	slog.Info("проект создан", "project_id", project.ID, "client_id", project.ClientID, "plan_type", plan.Type)
	c.JSON(http.StatusCreated, project)
}

func GetProjectHandler(c *gin.Context) {
	var project models.Project
	if err := config.DB.Preload("PaymentPlan").Preload("Payments").
		First(&project, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске проекта"})
		return
	}
	c.JSON(http.StatusOK, project)
}

func UpdateProjectHandler(c *gin.Context) {
	var project models.Project
	if err := config.DB.Preload("PaymentPlan").First(&project, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске проекта"})
		return
	}

	var input map[string]interface{}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	for _, field := range []string{"name", "description", "notes"} {
		if value, ok := input[field]; ok {
			updates[field] = value
		}
	}
	if value, ok := input["status"]; ok {
		status, _ := value.(string)
		switch status {
		case models.ProjectStatusActive, models.ProjectStatusPaused,
			models.ProjectStatusFinished, models.ProjectStatusCancelled:
			updates["status"] = status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус проекта"})
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
	if value, ok := input["end_date"]; ok {
		if value == nil {
			updates["end_date"] = nil
		} else {
			raw, _ := value.(string)
			date, err := parseDate(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат end_date"})
				return
			}
			updates["end_date"] = date
		}
	}

	tx := config.DB.Begin()
	if len(updates) > 0 {
		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить проект"})
			return
		}
	}

	// Обновление плана оплаты: план заменяется целиком и валидируется
	// заново, точечные правки привели бы к неконсистентным наборам полей.
	if rawPlan, ok := input["payment_plan"]; ok {
		planMap, isMap := rawPlan.(map[string]interface{})
		if !isMap {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_plan должен быть объектом"})
			return
		}

		plan := planFromMap(planMap, project.ID)
		if project.PaymentPlan != nil {
			plan.ID = project.PaymentPlan.ID
		}
		if err := finance.ValidatePlan(&plan); err != nil {
			tx.Rollback()
			respondFinanceError(c, err)
			return
		}
		if err := tx.Save(&plan).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить план оплаты"})
			return
		}
		project.PaymentPlan = &plan
	}
	tx.Commit()

	c.JSON(http.StatusOK, project)
}

func planFromMap(m map[string]interface{}, projectID uint) models.PaymentPlan {
	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	num := func(key string) float64 {
		v, _ := m[key].(float64)
		return v
	}

	installments := int(num("implementation_fee_installments"))
	if installments <= 0 {
		installments = 1
	}
	return models.PaymentPlan{
		ProjectID:                      projectID,
		Type:                           str("type"),
		ImplementationFeeTotal:         num("implementation_fee_total"),
		ImplementationFeeCurrency:      str("implementation_fee_currency"),
		ImplementationFeeInstallments:  installments,
		RecurringFeeAmount:             num("recurring_fee_amount"),
		RecurringFeeCurrency:           str("recurring_fee_currency"),
		RecurringFeeFrequency:          str("recurring_fee_frequency"),
		RecurringFeeDayOfCharge:        int(num("recurring_fee_day_of_charge")),
		RecurringFeeGracePeriods:       int(num("recurring_fee_grace_periods")),
		RecurringFeeDiscountPeriods:    int(num("recurring_fee_discount_periods")),
		RecurringFeeDiscountPercentage: num("recurring_fee_discount_percentage"),
	}
}

// DeleteProjectHandler удаляет проект с планом оплаты и платежами.
func DeleteProjectHandler(c *gin.Context) {
	var project models.Project
	if err := config.DB.First(&project, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске проекта"})
		return
	}

	tx := config.DB.Begin()
	if err := tx.Where("project_id = ?", project.ID).Delete(&models.Payment{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить платежи проекта"})
		return
	}
	if err := tx.Where("project_id = ?", project.ID).Delete(&models.PaymentPlan{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить план оплаты"})
		return
	}
	if err := tx.Delete(&project).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить проект"})
		return
	}
	tx.Commit()

	slog.Info("проект удалён", "project_id", project.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Проект удалён"})
}
