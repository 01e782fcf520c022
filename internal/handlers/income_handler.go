// backend-erp/internal/handlers/income_handler.go
package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"backend-erp/config"
	"backend-erp/internal/finance"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// IncomeInput - тело запроса на создание дохода.
type IncomeInput struct {
	Description   string  `json:"description" binding:"required"`
	Date          string  `json:"date" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,oneof=COP USD"`
	Type          string  `json:"type" binding:"required"`
	Client        string  `json:"client"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Notes         string  `json:"notes"`
}

// ListIncomesHandler возвращает доходы с фильтрами и пагинацией.
func ListIncomesHandler(c *gin.Context) {
	query := config.DB.Model(&models.Income{})

	if incomeType := c.Query("type"); incomeType != "" {
		query = query.Where("type = ?", incomeType)
	}
	if client := c.Query("client"); client != "" {
		query = query.Where("client = ?", client)
	}
	if from := c.Query("start_date"); from != "" {
		date, err := parseDate(from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат start_date"})
			return
		}
		query = query.Where("date >= ?", date)
	}
	if to := c.Query("end_date"); to != "" {
		date, err := parseDate(to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат end_date"})
			return
		}
		query = query.Where("date <= ?", date)
	}

	// Итоги по валютам считаются до пагинации, по всей выборке.
	totals := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	var totalRows []struct {
		Amount   float64
		Currency string
	}
	query.Session(&gorm.Session{}).
		Select("SUM(amount) as amount, currency").
		Group("currency").
		Scan(&totalRows)
	for _, row := range totalRows {
		totals[row.Currency] += row.Amount
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать доходы"})
		return
	}

	var incomes []models.Income
	if err := query.Order("date DESC").Scopes(Paginate(c)).Find(&incomes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить доходы"})
		return
	}

	response := CreatePaginatedResponse(c, incomes, count)
	c.JSON(http.StatusOK, gin.H{
		"data":        response.Data,
		"totalRows":   response.TotalRows,
		"totalPages":  response.TotalPages,
		"currentPage": response.CurrentPage,
		"pageSize":    response.PageSize,
		"totals":      totals,
	})
}

func CreateIncomeHandler(c *gin.Context) {
	var input IncomeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := parseDate(input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты, ожидается YYYY-MM-DD"})
		return
	}

	income := models.Income{
		Description:   input.Description,
		Date:          date,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Type:          input.Type,
		Client:        input.Client,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}
	if err := config.DB.Create(&income).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать доход"})
		return
	}
	c.JSON(http.StatusCreated, income)
}

func GetIncomeHandler(c *gin.Context) {
	var income models.Income
	if err := config.DB.First(&income, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Доход не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске дохода"})
		return
	}
	c.JSON(http.StatusOK, income)
}

func UpdateIncomeHandler(c *gin.Context) {
	var income models.Income
	if err := config.DB.First(&income, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Доход не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске дохода"})
		return
	}

	var input map[string]interface{}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	for _, field := range []string{"description", "type", "client", "payment_method", "notes"} {
		if value, ok := input[field]; ok {
			updates[field] = value
		}
	}
	if value, ok := input["amount"]; ok {
		amount, isNumber := value.(float64)
		if !isNumber || amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Сумма должна быть положительным числом"})
			return
		}
		updates["amount"] = amount
	}
	if value, ok := input["currency"]; ok {
		code, _ := value.(string)
		if code != models.CurrencyCOP && code != models.CurrencyUSD {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта"})
			return
		}
		updates["currency"] = code
	}
	if value, ok := input["date"]; ok {
		raw, _ := value.(string)
		date, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты, ожидается YYYY-MM-DD"})
			return
		}
		updates["date"] = date
	}

	if err := config.DB.Model(&income).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить доход"})
		return
	}
	c.JSON(http.StatusOK, income)
}

func DeleteIncomeHandler(c *gin.Context) {
	var income models.Income
	if err := config.DB.First(&income, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Доход не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске дохода"})
		return
	}
	if err := config.DB.Delete(&income).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить доход"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Доход удалён"})
}

// IncomeAnalysisHandler - аналитика доходов: раскладка по периодам,
// топ клиентов, текущий месяц, среднемесячное значение за год.
func IncomeAnalysisHandler(c *gin.Context) {
	period, target, ok := reportParams(c)
	if !ok {
		return
	}
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))

	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	var incomes []models.Income
	if err := config.DB.
		Where("date BETWEEN ? AND ?", yearStart, yearEnd).
		Find(&incomes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить доходы"})
		return
	}

	records := make([]finance.Record, len(incomes))
	yearTotal := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	clientTotal := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	byClient := make(map[string]finance.CurrencyTotals)
	byType := make(map[string]finance.CurrencyTotals)

	for i, income := range incomes {
		records[i] = finance.Record{Date: income.Date, Amount: income.Amount, Currency: income.Currency}
		yearTotal[income.Currency] += income.Amount

		if income.Client != "" {
			clientTotal[income.Currency] += income.Amount
			if byClient[income.Client] == nil {
				byClient[income.Client] = finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
			}
			byClient[income.Client][income.Currency] += income.Amount
		}
		if byType[income.Type] == nil {
			byType[income.Type] = finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		}
		byType[income.Type][income.Currency] += income.Amount
	}

	buckets, _ := finance.SumByBucket(records, period)
	periodData := make([]gin.H, 0, len(buckets))
	for _, label := range buckets.SortedLabels() {
		periodData = append(periodData, gin.H{
			"period": label,
			"income": collapseTotals(buckets[label], target),
		})
	}

	// Топ-10 клиентов по сведённой сумме.
	type clientEntry struct {
		name      string
		totals    finance.CurrencyTotals
		collapsed float64
	}
	rankCurrency := target
	if rankCurrency == "" {
		rankCurrency = models.CurrencyCOP
	}
	clientEntries := make([]clientEntry, 0, len(byClient))
	for name, totals := range byClient {
		clientEntries = append(clientEntries, clientEntry{
			name:      name,
			totals:    totals,
			collapsed: totals.Collapse(rankCurrency, Rates),
		})
	}
	sort.Slice(clientEntries, func(i, j int) bool {
		return clientEntries[i].collapsed > clientEntries[j].collapsed
	})
	if len(clientEntries) > 10 {
		clientEntries = clientEntries[:10]
	}
	topClients := make([]gin.H, 0, len(clientEntries))
	for _, entry := range clientEntries {
		topClients = append(topClients, gin.H{
			"client": entry.name,
			"income": collapseTotals(entry.totals, target),
		})
	}

	typeData := make(map[string]gin.H, len(byType))
	for incomeType, totals := range byType {
		typeData[incomeType] = collapseTotals(totals, target)
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	currentMonth := sumAmountsSince(&models.Income{}, "date", monthStart, now)

	monthsElapsed := 12
	if year == now.Year() {
		monthsElapsed = int(now.Month())
	}
	monthlyAverage := make(finance.CurrencyTotals, len(yearTotal))
	for currency, amount := range yearTotal {
		monthlyAverage[currency] = amount / float64(monthsElapsed)
	}

	c.JSON(http.StatusOK, gin.H{
		"by_period":   periodData,
		"by_type":     typeData,
		"top_clients": topClients,
		"summary": gin.H{
			"total_income":             collapseTotals(yearTotal, target),
			"client_income":            collapseTotals(clientTotal, target),
			"client_income_percentage": sharePercent(clientTotal, yearTotal, target),
			"current_month":            collapseTotals(currentMonth, target),
			"monthly_average":          collapseTotals(monthlyAverage, target),
		},
	})
}
