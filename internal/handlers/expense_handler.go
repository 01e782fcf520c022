// backend-erp/internal/handlers/expense_handler.go
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

// ExpenseInput - входные данные разового расхода.
type ExpenseInput struct {
	Description   string  `json:"description" binding:"required"`
	Date          string  `json:"date" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,oneof=COP USD"`
	Category      string  `json:"category" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Notes         string  `json:"notes"`
}

// ListExpensesHandler возвращает список разовых расходов с фильтрами и пагинацией.
func ListExpensesHandler(c *gin.Context) {
	var expenses []models.Expense
	query := config.DB.Model(&models.Expense{})

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
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

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать расходы"})
		return
	}

	if err := query.Order("date DESC").Scopes(Paginate(c)).Find(&expenses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить расходы"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, expenses, totalRows))
}

// CreateExpenseHandler создаёт разовый расход.
func CreateExpenseHandler(c *gin.Context) {
	var input ExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	date, err := parseDate(input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}

	expense := models.Expense{
		Description:   input.Description,
		Date:          date,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Category:      input.Category,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}

	if err := config.DB.Create(&expense).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить расход"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": expense})
}

// GetExpenseHandler возвращает один расход по ID.
func GetExpenseHandler(c *gin.Context) {
	var expense models.Expense
	if err := config.DB.First(&expense, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Расход не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": expense})
}

// UpdateExpenseHandler обновляет разовый расход. Обновляются только явно
// разрешённые поля - никакой записи по произвольным атрибутам.
func UpdateExpenseHandler(c *gin.Context) {
	var expense models.Expense
	if err := config.DB.First(&expense, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Расход не найден"})
		return
	}

	var input ExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	date, err := parseDate(input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}

	updates := map[string]interface{}{
		"description":    input.Description,
		"date":           date,
		"amount":         input.Amount,
		"currency":       input.Currency,
		"category":       input.Category,
		"payment_method": input.PaymentMethod,
		"notes":          input.Notes,
	}

	if err := config.DB.Model(&expense).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить расход"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": expense})
}

// DeleteExpenseHandler удаляет разовый расход.
func DeleteExpenseHandler(c *gin.Context) {
	if err := config.DB.Delete(&models.Expense{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить расход"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Расход удален"})
}

// ExpenseCategoriesHandler возвращает категории расходов с суммами по валютам.
func ExpenseCategoriesHandler(c *gin.Context) {
	var rows []struct {
		Category string
		Amount   float64
		Currency string
	}

	err := config.DB.Model(&models.Expense{}).
		Select("category, SUM(amount) as amount, currency").
		Group("category, currency").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить категории"})
		return
	}

	categories := make(map[string]finance.CurrencyTotals)
	for _, row := range rows {
		if categories[row.Category] == nil {
			categories[row.Category] = finance.CurrencyTotals{
				models.CurrencyCOP: 0,
				models.CurrencyUSD: 0,
			}
		}
		categories[row.Category][row.Currency] += row.Amount
	}

	data := make([]gin.H, 0, len(categories))
	for category, totals := range categories {
		data = append(data, gin.H{
			"category":         category,
			models.CurrencyCOP: totals[models.CurrencyCOP],
			models.CurrencyUSD: totals[models.CurrencyUSD],
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// --- Повторяющиеся расходы (шаблоны) ---

// RecurringExpenseInput - входные данные шаблона повторяющегося расхода.
type RecurringExpenseInput struct {
	Description   string  `json:"description" binding:"required"`
	Frequency     string  `json:"frequency" binding:"required"`
	StartDate     string  `json:"start_date" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,oneof=COP USD"`
	Category      string  `json:"category" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Status        string  `json:"status" binding:"omitempty,oneof=active paused"`
	Notes         string  `json:"notes"`
}

// ListRecurringExpensesHandler возвращает шаблоны, отсортированные по
// дате следующего платежа.
func ListRecurringExpensesHandler(c *gin.Context) {
	var recurring []models.RecurringExpense
	query := config.DB.Model(&models.RecurringExpense{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать шаблоны"})
		return
	}

	if err := query.Order("next_payment ASC").Scopes(Paginate(c)).Find(&recurring).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить шаблоны"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, recurring, totalRows))
}

// CreateRecurringExpenseHandler создаёт шаблон. Курсор next_payment
// изначально указывает на дату старта.
func CreateRecurringExpenseHandler(c *gin.Context) {
	var input RecurringExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	startDate, err := parseDate(input.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}

	if !finance.KnownFrequency(input.Frequency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная периодичность: " + input.Frequency})
		return
	}

	status := input.Status
	if status == "" {
		status = models.RecurringStatusActive
	}

	recurring := models.RecurringExpense{
		Description:   input.Description,
		Frequency:     input.Frequency,
		StartDate:     startDate,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Category:      input.Category,
		PaymentMethod: input.PaymentMethod,
		Status:        status,
		NextPayment:   startDate,
		Notes:         input.Notes,
	}

	if err := config.DB.Create(&recurring).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить шаблон"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": recurring})
}

// GetRecurringExpenseHandler возвращает один шаблон по ID.
func GetRecurringExpenseHandler(c *gin.Context) {
	var recurring models.RecurringExpense
	if err := config.DB.First(&recurring, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Шаблон не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recurring})
}

// UpdateRecurringExpenseHandler обновляет шаблон по списку разрешённых
// полей. Курсор next_payment через этот обработчик менять нельзя:
// его двигает только генератор начислений.
func UpdateRecurringExpenseHandler(c *gin.Context) {
	var recurring models.RecurringExpense
	if err := config.DB.First(&recurring, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Шаблон не найден"})
		return
	}

	var input RecurringExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	startDate, err := parseDate(input.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}

	if !finance.KnownFrequency(input.Frequency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная периодичность: " + input.Frequency})
		return
	}

	updates := map[string]interface{}{
		"description":    input.Description,
		"frequency":      input.Frequency,
		"start_date":     startDate,
		"amount":         input.Amount,
		"currency":       input.Currency,
		"category":       input.Category,
		"payment_method": input.PaymentMethod,
		"notes":          input.Notes,
	}
	if input.Status != "" {
		updates["status"] = input.Status
	}

	if err := config.DB.Model(&recurring).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить шаблон"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": recurring})
}

// DeleteRecurringExpenseHandler удаляет шаблон. Сгенерированные начисления
// остаются, но теряют ссылку на шаблон.
func DeleteRecurringExpenseHandler(c *gin.Context) {
	id := c.Param("id")

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось начать транзакцию"})
		return
	}

	if err := tx.Model(&models.AccruedExpense{}).
		Where("recurring_id = ?", id).
		Updates(map[string]interface{}{"recurring_id": nil, "is_recurring": false}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось отвязать начисления"})
		return
	}

	if err := tx.Delete(&models.RecurringExpense{}, id).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить шаблон"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось завершить транзакцию"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Шаблон удален"})
}

// GenerateAccruedExpensesHandler генерирует начисления из шаблона и
// продвигает его курсор. Создание записей и обновление курсора выполняются
// в одной транзакции: либо и то и другое, либо ничего.
func GenerateAccruedExpensesHandler(c *gin.Context) {
	var recurring models.RecurringExpense
	if err := config.DB.First(&recurring, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Шаблон не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске шаблона"})
		return
	}

	months, _ := strconv.Atoi(c.DefaultQuery("months", strconv.Itoa(finance.DefaultHorizon)))

	accrued, nextPayment, err := finance.GenerateAccrued(&recurring, months, time.Now())
	if err != nil {
		respondFinanceError(c, err)
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось начать транзакцию"})
		return
	}

	if len(accrued) > 0 {
		if err := tx.Create(&accrued).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить начисления"})
			return
		}
	}

	if err := tx.Model(&recurring).Update("next_payment", nextPayment).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить курсор шаблона"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось завершить транзакцию"})
		return
	}

	slog.Info("Начисления сгенерированы", "recurring_id", recurring.ID, "count", len(accrued))
	c.JSON(http.StatusCreated, gin.H{
		"data":    accrued,
		"message": strconv.Itoa(len(accrued)) + " начислений сгенерировано",
	})
}

// --- Начисленные расходы ---

// AccruedExpenseInput - входные данные начисления, созданного вручную.
type AccruedExpenseInput struct {
	Description   string  `json:"description" binding:"required"`
	DueDate       string  `json:"due_date" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,oneof=COP USD"`
	Category      string  `json:"category" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Status        string  `json:"status" binding:"omitempty,oneof=paid pending overdue"`
	Notes         string  `json:"notes"`
}

// ListAccruedExpensesHandler возвращает начисления с фильтрами.
func ListAccruedExpensesHandler(c *gin.Context) {
	var accrued []models.AccruedExpense
	query := config.DB.Model(&models.AccruedExpense{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if recurringID := c.Query("recurring_id"); recurringID != "" {
		query = query.Where("recurring_id = ?", recurringID)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать начисления"})
		return
	}

	if err := query.Order("due_date ASC").Scopes(Paginate(c)).Find(&accrued).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить начисления"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, accrued, totalRows))
}

// CreateAccruedExpenseHandler создаёт начисление вручную, без шаблона.
func CreateAccruedExpenseHandler(c *gin.Context) {
	var input AccruedExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	dueDate, err := parseDate(input.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}

	status := input.Status
	if status == "" {
		status = models.AccruedStatusPending
	}

	accrued := models.AccruedExpense{
		Description:   input.Description,
		DueDate:       dueDate,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Category:      input.Category,
		PaymentMethod: input.PaymentMethod,
		Status:        status,
		IsRecurring:   false,
		Notes:         input.Notes,
	}

	if err := config.DB.Create(&accrued).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить начисление"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": accrued})
}

// UpdateAccruedExpenseStatusHandler помечает начисление оплаченным или
// возвращает в ожидание. Переход pending->overdue делает не пользователь,
// а время (см. OverdueAccruedExpensesHandler).
func UpdateAccruedExpenseStatusHandler(c *gin.Context) {
	var accrued models.AccruedExpense
	if err := config.DB.First(&accrued, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Начисление не найдено"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required,oneof=paid pending overdue"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	if err := config.DB.Model(&accrued).Update("status", input.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить статус"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": accrued})
}

// DeleteAccruedExpenseHandler удаляет начисление.
func DeleteAccruedExpenseHandler(c *gin.Context) {
	if err := config.DB.Delete(&models.AccruedExpense{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить начисление"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Начисление удалено"})
}

// OverdueAccruedExpensesHandler возвращает просроченные начисления,
// попутно переводя зависшие pending-записи в overdue.
func OverdueAccruedExpensesHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}

	today := time.Now().Truncate(24 * time.Hour)

	var overdue []models.AccruedExpense
	if err := config.DB.
		Where("due_date < ? AND status = ?", today, models.AccruedStatusPending).
		Order("due_date ASC").
		Find(&overdue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить начисления"})
		return
	}

	// Переход pending->overdue управляется датой.
	if len(overdue) > 0 {
		ids := make([]uint, len(overdue))
		for i := range overdue {
			ids[i] = overdue[i].ID
			overdue[i].Status = models.AccruedStatusOverdue
		}
		if err := config.DB.Model(&models.AccruedExpense{}).
			Where("id IN ?", ids).
			Update("status", models.AccruedStatusOverdue).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить статусы"})
			return
		}
	}

	totals := sumAccruedByCurrency(overdue)
	c.JSON(http.StatusOK, gin.H{
		"data":  overdue,
		"total": collapseTotals(totals, target),
	})
}

// UpcomingAccruedExpensesHandler возвращает начисления на ближайшие N дней.
func UpcomingAccruedExpensesHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	today := time.Now().Truncate(24 * time.Hour)
	endDate := today.AddDate(0, 0, days)

	var upcoming []models.AccruedExpense
	if err := config.DB.
		Where("due_date >= ? AND due_date <= ? AND status = ?", today, endDate, models.AccruedStatusPending).
		Order("due_date ASC").
		Find(&upcoming).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить начисления"})
		return
	}

	totals := sumAccruedByCurrency(upcoming)
	c.JSON(http.StatusOK, gin.H{
		"data":  upcoming,
		"total": collapseTotals(totals, target),
	})
}

func sumAccruedByCurrency(items []models.AccruedExpense) finance.CurrencyTotals {
	totals := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	for _, item := range items {
		totals[item.Currency] += item.Amount
	}
	return totals
}

// ExportAccruedExpensesHandler выгружает начисления в Excel.
func ExportAccruedExpensesHandler(c *gin.Context) {
	query := config.DB.Model(&models.AccruedExpense{}).Order("due_date ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var accrued []models.AccruedExpense
	if err := query.Find(&accrued).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить данные для экспорта"})
		return
	}

	f := excelize.NewFile()
	sheetName := "Начисления"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Описание", "Срок оплаты", "Сумма", "Валюта", "Категория", "Способ оплаты", "Статус", "Из шаблона"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, a := range accrued {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), a.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), a.DueDate.Format("02.01.2006"))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), a.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), a.Currency)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), a.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), a.PaymentMethod)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), a.Status)
		if a.IsRecurring {
			f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), "да")
		}
	}

	fileName := fmt.Sprintf("accrued_expenses_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось записать Excel-файл"})
	}
}
