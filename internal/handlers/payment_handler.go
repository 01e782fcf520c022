// backend-erp/internal/handlers/payment_handler.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"backend-erp/config"
	"backend-erp/internal/finance"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// PaymentInput - входные данные платежа, создаваемого вручную.
type PaymentInput struct {
	ProjectID         uint    `json:"project_id" binding:"required"`
	ClientID          uint    `json:"client_id" binding:"required"`
	Amount            float64 `json:"amount" binding:"required,gt=0"`
	Currency          string  `json:"currency" binding:"required,oneof=COP USD"`
	Date              string  `json:"date" binding:"required"`
	Type              string  `json:"type" binding:"required,oneof=implementation recurring"`
	InvoiceNumber     string  `json:"invoice_number"`
	InvoiceURL        string  `json:"invoice_url"`
	InstallmentNumber int     `json:"installment_number"`
	Notes             string  `json:"notes"`
}

// ListPaymentsHandler возвращает платежи с фильтрами, пагинацией и
// суммами по статусам. Суммы считаются до пагинации по всей выборке.
func ListPaymentsHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}

	query := config.DB.Model(&models.Payment{})

	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := c.Query("date_from"); from != "" {
		dateFrom, err := parseDate(from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат date_from. Используйте YYYY-MM-DD."})
			return
		}
		query = query.Where("date >= ?", dateFrom)
	}
	if to := c.Query("date_to"); to != "" {
		dateTo, err := parseDate(to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат date_to. Используйте YYYY-MM-DD."})
			return
		}
		query = query.Where("date <= ?", dateTo)
	}

	// Суммы по статусам и валютам до пагинации.
	var totalRows []struct {
		Status   string
		Amount   float64
		Currency string
	}
	if err := query.Session(&gorm.Session{}).
		Select("status, SUM(amount) as amount, currency").
		Group("status, currency").
		Scan(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать суммы"})
		return
	}

	totals := gin.H{}
	for _, status := range []string{models.PaymentStatusPaid, models.PaymentStatusPending, models.PaymentStatusOverdue} {
		statusTotals := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		for _, row := range totalRows {
			if row.Status == status {
				statusTotals[row.Currency] += row.Amount
			}
		}
		totals[status] = collapseTotals(statusTotals, target)
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать платежи"})
		return
	}

	var payments []models.Payment
	if err := query.Order("date ASC").Scopes(Paginate(c)).Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	response := CreatePaginatedResponse(c, payments, count)
	c.JSON(http.StatusOK, gin.H{
		"data":        response.Data,
		"totalRows":   response.TotalRows,
		"totalPages":  response.TotalPages,
		"currentPage": response.CurrentPage,
		"pageSize":    response.PageSize,
		"totals":      totals,
	})
}

// CreatePaymentHandler создаёт платеж вручную, проверяя существование
// проекта и клиента.
func CreatePaymentHandler(c *gin.Context) {
	var input PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	date, err := parseDate(input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}

	if err := config.DB.First(&models.Project{}, input.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Проект с ID %d не найден", input.ProjectID)})
		return
	}
	if err := config.DB.First(&models.Client{}, input.ClientID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Клиент с ID %d не найден", input.ClientID)})
		return
	}

	payment := models.Payment{
		ProjectID:         input.ProjectID,
		ClientID:          input.ClientID,
		Amount:            input.Amount,
		Currency:          input.Currency,
		Date:              date,
		Status:            models.PaymentStatusPending,
		InvoiceNumber:     input.InvoiceNumber,
		InvoiceURL:        input.InvoiceURL,
		Type:              input.Type,
		InstallmentNumber: input.InstallmentNumber,
		Notes:             input.Notes,
	}

	if err := config.DB.Create(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить платеж"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

// GetPaymentHandler возвращает один платеж по ID.
func GetPaymentHandler(c *gin.Context) {
	var payment models.Payment
	if err := config.DB.First(&payment, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Платеж не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// UpdatePaymentHandler обновляет платеж по списку разрешённых полей.
func UpdatePaymentHandler(c *gin.Context) {
	var payment models.Payment
	if err := config.DB.First(&payment, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Платеж не найден"})
		return
	}

	var input struct {
		Amount        float64 `json:"amount" binding:"omitempty,gt=0"`
		Currency      string  `json:"currency" binding:"omitempty,oneof=COP USD"`
		Date          string  `json:"date"`
		InvoiceNumber string  `json:"invoice_number"`
		InvoiceURL    string  `json:"invoice_url"`
		Notes         string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Amount > 0 {
		updates["amount"] = input.Amount
	}
	if input.Currency != "" {
		updates["currency"] = input.Currency
	}
	if input.Date != "" {
		date, err := parseDate(input.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
			return
		}
		updates["date"] = date
	}
	if input.InvoiceNumber != "" {
		updates["invoice_number"] = input.InvoiceNumber
	}
	if input.InvoiceURL != "" {
		updates["invoice_url"] = input.InvoiceURL
	}
	if input.Notes != "" {
		updates["notes"] = input.Notes
	}

	if len(updates) > 0 {
		if err := config.DB.Model(&payment).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить платеж"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// UpdatePaymentStatusHandler меняет статус платежа. Фактическая дата
// оплаты обязательна при переводе в paid.
func UpdatePaymentStatusHandler(c *gin.Context) {
	var payment models.Payment
	if err := config.DB.First(&payment, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Платеж не найден"})
		return
	}

	var input struct {
		Status        string `json:"status" binding:"required,oneof=paid pending overdue"`
		PaidDate      string `json:"paid_date"`
		InvoiceNumber string `json:"invoice_number"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	updates := map[string]interface{}{"status": input.Status}

	if input.Status == models.PaymentStatusPaid {
		if input.PaidDate == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Для оплаченного платежа требуется дата оплаты"})
			return
		}
		paidDate, err := parseDate(input.PaidDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
			return
		}
		updates["paid_date"] = paidDate
	}
	if input.InvoiceNumber != "" {
		updates["invoice_number"] = input.InvoiceNumber
	}

	if err := config.DB.Model(&payment).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить статус платежа"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// DeletePaymentHandler удаляет платеж.
func DeletePaymentHandler(c *gin.Context) {
	if err := config.DB.Delete(&models.Payment{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить платеж"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Платеж удален"})
}

// OverduePaymentsHandler возвращает просроченные платежи с суммой.
func OverduePaymentsHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}

	today := time.Now().Truncate(24 * time.Hour)

	var overdue []models.Payment
	if err := config.DB.
		Where("date < ? AND status <> ?", today, models.PaymentStatusPaid).
		Order("date ASC").
		Find(&overdue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	totals := sumPaymentsByCurrency(overdue)
	c.JSON(http.StatusOK, gin.H{
		"data":  overdue,
		"total": collapseTotals(totals, target),
	})
}

// UpcomingPaymentsHandler возвращает неоплаченные платежи на ближайшие N дней.
func UpcomingPaymentsHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	today := time.Now().Truncate(24 * time.Hour)
	endDate := today.AddDate(0, 0, days)

	var upcoming []models.Payment
	if err := config.DB.
		Where("date >= ? AND date <= ? AND status <> ?", today, endDate, models.PaymentStatusPaid).
		Order("date ASC").
		Find(&upcoming).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	totals := sumPaymentsByCurrency(upcoming)
	c.JSON(http.StatusOK, gin.H{
		"data":  upcoming,
		"total": collapseTotals(totals, target),
	})
}

// GeneratePaymentsRequest - тело запроса генерации графика платежей.
type GeneratePaymentsRequest struct {
	ProjectID uint `json:"project_id" binding:"required"`
	Months    int  `json:"months"`
}

// GeneratePaymentsHandler строит график платежей проекта по его плану
// оплаты и сохраняет весь график одной транзакцией.
func GeneratePaymentsHandler(c *gin.Context) {
	var req GeneratePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	var project models.Project
	if err := config.DB.Preload("PaymentPlan").First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске проекта"})
		return
	}

	payments, err := finance.BuildSchedule(&project, project.PaymentPlan, req.Months)
	if err != nil {
		respondFinanceError(c, err)
		return
	}

	if len(payments) > 0 {
		if err := config.DB.Create(&payments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить график платежей"})
			return
		}
	}

	slog.Info("График платежей сгенерирован", "project_id", project.ID, "count", len(payments))
	c.JSON(http.StatusCreated, gin.H{
		"data":    payments,
		"message": strconv.Itoa(len(payments)) + " платежей сгенерировано",
	})
}

// ExportPaymentsHandler выгружает платежи в Excel.
func ExportPaymentsHandler(c *gin.Context) {
	query := config.DB.Model(&models.Payment{}).Order("date ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить данные для экспорта"})
		return
	}

	f := excelize.NewFile()
	sheetName := "Платежи"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID проекта", "ID клиента", "Сумма", "Валюта", "Дата", "Дата оплаты", "Статус", "Тип", "Номер счета"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, p := range payments {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), p.ProjectID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p.ClientID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), p.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), p.Currency)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), p.Date.Format("02.01.2006"))
		if p.PaidDate != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), p.PaidDate.Format("02.01.2006"))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), p.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), p.Type)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), p.InvoiceNumber)
	}

	fileName := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось записать Excel-файл"})
	}
}

func sumPaymentsByCurrency(items []models.Payment) finance.CurrencyTotals {
	totals := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	for _, item := range items {
		totals[item.Currency] += item.Amount
	}
	return totals
}
