// backend-erp/internal/handlers/report_handler.go
//
// Отчёты: денежный поток, рентабельность, финансовая проекция, дашборд,
// аналитика по клиентам. Данные выбираются из базы, раскладка по периодам
// и конвертация валют - в internal/finance.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"backend-erp/config"
	"backend-erp/internal/finance"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type moneyRow struct {
	Date     time.Time
	Amount   float64
	Currency string
}

func rowsToRecords(rows []moneyRow) []finance.Record {
	records := make([]finance.Record, len(rows))
	for i, row := range rows {
		records[i] = finance.Record{Date: row.Date, Amount: row.Amount, Currency: row.Currency}
	}
	return records
}

// reportParams разбирает общие параметры отчёта и сразу отклоняет
// некорректные значения - до каких-либо запросов к базе.
func reportParams(c *gin.Context) (period, target string, ok bool) {
	period = c.DefaultQuery("period", finance.PeriodMonth)
	if err := finance.ValidatePeriod(period); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}

	target = c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return "", "", false
	}
	return period, target, true
}

// CashFlowReportHandler строит отчёт о денежном потоке: доходы, расходы
// и net по периодам за последние N месяцев.
func CashFlowReportHandler(c *gin.Context) {
	period, target, ok := reportParams(c)
	if !ok {
		return
	}
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
	startDate := time.Now().AddDate(0, -months, 0)

	var incomeRows, expenseRows []moneyRow
	if err := config.DB.Model(&models.Income{}).
		Select("date, amount, currency").
		Where("date >= ?", startDate).
		Scan(&incomeRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить доходы"})
		return
	}
	if err := config.DB.Model(&models.Expense{}).
		Select("date, amount, currency").
		Where("date >= ?", startDate).
		Scan(&expenseRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить расходы"})
		return
	}

	incomeBuckets, _ := finance.SumByBucket(rowsToRecords(incomeRows), period)
	expenseBuckets, _ := finance.SumByBucket(rowsToRecords(expenseRows), period)

	labels := mergedLabels(incomeBuckets, expenseBuckets)

	data := make([]gin.H, 0, len(labels))
	summaryIncome := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	summaryExpenses := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}

	for _, label := range labels {
		income := bucketOrEmpty(incomeBuckets, label)
		expenses := bucketOrEmpty(expenseBuckets, label)
		net := finance.Net(income, expenses)

		for currency, amount := range income {
			summaryIncome[currency] += amount
		}
		for currency, amount := range expenses {
			summaryExpenses[currency] += amount
		}

		data = append(data, gin.H{
			"period":   label,
			"income":   collapseTotals(income, target),
			"expenses": collapseTotals(expenses, target),
			"net":      netTotals(income, expenses, net, target),
		})
	}

	summaryNet := finance.Net(summaryIncome, summaryExpenses)
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"summary": gin.H{
			"total_income":   collapseTotals(summaryIncome, target),
			"total_expenses": collapseTotals(summaryExpenses, target),
			"total_net":      netTotals(summaryIncome, summaryExpenses, summaryNet, target),
		},
	})
}

// netTotals отдаёт net с учётом целевой валюты. При конвертации обе
// стороны сначала переводятся в target и только потом вычитаются.
func netTotals(income, expenses, net finance.CurrencyTotals, target string) gin.H {
	if target == "" {
		return gin.H{
			models.CurrencyCOP: net[models.CurrencyCOP],
			models.CurrencyUSD: net[models.CurrencyUSD],
		}
	}
	return gin.H{target: income.Collapse(target, Rates) - expenses.Collapse(target, Rates)}
}

func bucketOrEmpty(buckets finance.Buckets, label string) finance.CurrencyTotals {
	if totals, ok := buckets[label]; ok {
		return totals
	}
	return finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
}

func mergedLabels(a, b finance.Buckets) []string {
	merged := make(finance.Buckets)
	for label := range a {
		merged[label] = nil
	}
	for label := range b {
		merged[label] = nil
	}
	return merged.SortedLabels()
}

// ProfitabilityReportHandler строит отчёт о рентабельности за год:
// доходы (всего и от клиентов), расходы, прибыль и маржа по периодам.
func ProfitabilityReportHandler(c *gin.Context) {
	period, target, ok := reportParams(c)
	if !ok {
		return
	}

	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	var incomeRows, clientIncomeRows, expenseRows []moneyRow
	if err := config.DB.Model(&models.Income{}).
		Select("date, amount, currency").
		Where("date BETWEEN ? AND ?", yearStart, yearEnd).
		Scan(&incomeRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить доходы"})
		return
	}
	if err := config.DB.Model(&models.Income{}).
		Select("date, amount, currency").
		Where("date BETWEEN ? AND ? AND client <> ''", yearStart, yearEnd).
		Scan(&clientIncomeRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить доходы от клиентов"})
		return
	}
	if err := config.DB.Model(&models.Expense{}).
		Select("date, amount, currency").
		Where("date BETWEEN ? AND ?", yearStart, yearEnd).
		Scan(&expenseRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить расходы"})
		return
	}

	incomeBuckets, _ := finance.SumByBucket(rowsToRecords(incomeRows), period)
	clientBuckets, _ := finance.SumByBucket(rowsToRecords(clientIncomeRows), period)
	expenseBuckets, _ := finance.SumByBucket(rowsToRecords(expenseRows), period)

	labels := mergedLabels(mergeBuckets(incomeBuckets, clientBuckets), expenseBuckets)

	data := make([]gin.H, 0, len(labels))
	yearIncome := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	yearClient := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	yearExpenses := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}

	for _, label := range labels {
		income := bucketOrEmpty(incomeBuckets, label)
		clientIncome := bucketOrEmpty(clientBuckets, label)
		expenses := bucketOrEmpty(expenseBuckets, label)
		profit := finance.Net(income, expenses)

		for currency, amount := range income {
			yearIncome[currency] += amount
		}
		for currency, amount := range clientIncome {
			yearClient[currency] += amount
		}
		for currency, amount := range expenses {
			yearExpenses[currency] += amount
		}

		data = append(data, gin.H{
			"period":        label,
			"total_income":  collapseTotals(income, target),
			"client_income": collapseTotals(clientIncome, target),
			"expenses":      collapseTotals(expenses, target),
			"profit":        netTotals(income, expenses, profit, target),
			"margin":        marginPercent(income, expenses, target),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"summary": gin.H{
			"total_income":             collapseTotals(yearIncome, target),
			"client_income":            collapseTotals(yearClient, target),
			"expenses":                 collapseTotals(yearExpenses, target),
			"profit":                   netTotals(yearIncome, yearExpenses, finance.Net(yearIncome, yearExpenses), target),
			"margin":                   marginPercent(yearIncome, yearExpenses, target),
			"client_income_percentage": sharePercent(yearClient, yearIncome, target),
		},
	})
}

// marginPercent считает маржу в процентах. Без целевой валюты всё
// сводится к COP, чтобы не вычитать разные валюты друг из друга.
func marginPercent(income, expenses finance.CurrencyTotals, target string) float64 {
	if target == "" {
		target = models.CurrencyCOP
	}
	totalIncome := income.Collapse(target, Rates)
	if totalIncome <= 0 {
		return 0
	}
	return (totalIncome - expenses.Collapse(target, Rates)) / totalIncome * 100
}

// sharePercent - доля part от total в процентах, в одной валюте.
func sharePercent(part, total finance.CurrencyTotals, target string) float64 {
	if target == "" {
		target = models.CurrencyCOP
	}
	totalCollapsed := total.Collapse(target, Rates)
	if totalCollapsed <= 0 {
		return 0
	}
	return part.Collapse(target, Rates) / totalCollapsed * 100
}

func mergeBuckets(a, b finance.Buckets) finance.Buckets {
	merged := make(finance.Buckets)
	for label, totals := range a {
		merged[label] = totals
	}
	for label, totals := range b {
		if _, ok := merged[label]; !ok {
			merged[label] = totals
		}
	}
	return merged
}

// FinancialProjectionReportHandler строит проекцию на N месяцев вперёд
// из ожидающих платежей и начислений, с накопительным балансом.
func FinancialProjectionReportHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
	if months <= 0 {
		months = 12
	}
	if months > finance.MaxHorizon {
		months = finance.MaxHorizon
	}

	today := time.Now().Truncate(24 * time.Hour)
	endDate := today.AddDate(0, months, 0)

	var payments []models.Payment
	if err := config.DB.
		Where("date >= ? AND date <= ? AND status = ?", today, endDate, models.PaymentStatusPending).
		Order("date ASC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	var accrued []models.AccruedExpense
	if err := config.DB.
		Where("due_date >= ? AND due_date <= ? AND status = ?", today, endDate, models.AccruedStatusPending).
		Order("due_date ASC").
		Find(&accrued).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить начисления"})
		return
	}

	// Каждому месяцу горизонта - свой период, даже пустому.
	netByLabel := make(map[string]finance.CurrencyTotals)
	labels := make([]string, 0, months)
	monthData := make(map[string]gin.H, months)

	for i := 0; i < months; i++ {
		monthDate := today.AddDate(0, i, 0)
		label := finance.BucketLabel(monthDate, finance.PeriodMonth)
		if _, ok := monthData[label]; ok {
			continue
		}
		labels = append(labels, label)

		income := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		expenses := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		paymentDetails := make([]gin.H, 0)
		expenseDetails := make([]gin.H, 0)

		for _, p := range payments {
			if finance.BucketLabel(p.Date, finance.PeriodMonth) != label {
				continue
			}
			income[p.Currency] += p.Amount
			paymentDetails = append(paymentDetails, gin.H{
				"id":             p.ID,
				"client_id":      p.ClientID,
				"project_id":     p.ProjectID,
				"date":           p.Date.Format("2006-01-02"),
				"amount":         p.Amount,
				"currency":       p.Currency,
				"type":           p.Type,
				"invoice_number": p.InvoiceNumber,
			})
		}
		for _, e := range accrued {
			if finance.BucketLabel(e.DueDate, finance.PeriodMonth) != label {
				continue
			}
			expenses[e.Currency] += e.Amount
			expenseDetails = append(expenseDetails, gin.H{
				"id":           e.ID,
				"description":  e.Description,
				"due_date":     e.DueDate.Format("2006-01-02"),
				"amount":       e.Amount,
				"currency":     e.Currency,
				"category":     e.Category,
				"is_recurring": e.IsRecurring,
			})
		}

		netByLabel[label] = finance.Net(income, expenses)
		monthData[label] = gin.H{
			"month":    label,
			"income":   collapseTotals(income, target),
			"expenses": collapseTotals(expenses, target),
			"net":      netTotals(income, expenses, netByLabel[label], target),
			"details": gin.H{
				"payments": paymentDetails,
				"expenses": expenseDetails,
			},
		}
	}

	// Накопительный баланс по месяцам в хронологическом порядке.
	balance := finance.RunningBalance(labels, netByLabel)

	data := make([]gin.H, 0, len(labels))
	summaryNet := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	for _, label := range labels {
		entry := monthData[label]
		entry["running_balance"] = collapseTotals(balance[label], target)
		data = append(data, entry)
		for currency, amount := range netByLabel[label] {
			summaryNet[currency] += amount
		}
	}

	var finalBalance gin.H
	if len(labels) > 0 {
		finalBalance = collapseTotals(balance[labels[len(labels)-1]], target)
	} else {
		finalBalance = collapseTotals(finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}, target)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"summary": gin.H{
			"total_projected_net": collapseTotals(summaryNet, target),
			"final_balance":       finalBalance,
		},
	})
}

// DashboardReportHandler собирает сводку для главного экрана.
func DashboardReportHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}

	today := time.Now().Truncate(24 * time.Hour)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	var activeClients, activeProjects int64
	config.DB.Model(&models.Client{}).Where("status = ?", models.ClientStatusActive).Count(&activeClients)
	config.DB.Model(&models.Project{}).Where("status = ?", models.ProjectStatusActive).Count(&activeProjects)

	var overdue []models.Payment
	if err := config.DB.
		Where("date < ? AND status <> ?", today, models.PaymentStatusPaid).
		Find(&overdue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить просроченные платежи"})
		return
	}

	upcomingDate := today.AddDate(0, 0, 30)
	var upcoming []models.Payment
	if err := config.DB.
		Where("date >= ? AND date <= ? AND status = ?", today, upcomingDate, models.PaymentStatusPending).
		Find(&upcoming).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить предстоящие платежи"})
		return
	}

	monthIncome := sumAmountsSince(&models.Income{}, "date", monthStart, today)
	monthExpenses := sumAmountsSince(&models.Expense{}, "date", monthStart, today)
	monthNet := finance.Net(monthIncome, monthExpenses)

	c.JSON(http.StatusOK, gin.H{
		"active_clients":  activeClients,
		"active_projects": activeProjects,
		"overdue_payments": gin.H{
			"count":  len(overdue),
			"amount": collapseTotals(sumPaymentsByCurrency(overdue), target),
		},
		"upcoming_payments": gin.H{
			"count":  len(upcoming),
			"amount": collapseTotals(sumPaymentsByCurrency(upcoming), target),
		},
		"current_month": gin.H{
			"income":   collapseTotals(monthIncome, target),
			"expenses": collapseTotals(monthExpenses, target),
			"net":      netTotals(monthIncome, monthExpenses, monthNet, target),
		},
	})
}

func sumAmountsSince(model interface{}, dateColumn string, from, to time.Time) finance.CurrencyTotals {
	var rows []struct {
		Amount   float64
		Currency string
	}
	config.DB.Model(model).
		Select("SUM(amount) as amount, currency").
		Where(dateColumn+" >= ? AND "+dateColumn+" <= ?", from, to).
		Group("currency").
		Scan(&rows)

	totals := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
	for _, row := range rows {
		totals[row.Currency] += row.Amount
	}
	return totals
}

// ClientAnalyticsReportHandler строит годовую аналитику по клиентам:
// выставлено, оплачено, в ожидании, просрочено, помесячное распределение.
func ClientAnalyticsReportHandler(c *gin.Context) {
	target := c.Query("currency")
	if !validCurrency(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная валюта: " + target})
		return
	}
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))

	var clients []models.Client
	if clientID := c.Query("client_id"); clientID != "" {
		var client models.Client
		if err := config.DB.First(&client, clientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
			return
		}
		clients = []models.Client{client}
	} else {
		if err := config.DB.Where("status = ?", models.ClientStatusActive).Find(&clients).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить клиентов"})
			return
		}
	}

	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	today := time.Now().Truncate(24 * time.Hour)

	data := make([]gin.H, 0, len(clients))
	for _, client := range clients {
		var projects []models.Project
		if err := config.DB.Where("client_id = ?", client.ID).Find(&projects).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить проекты"})
			return
		}
		if len(projects) == 0 {
			continue
		}

		var payments []models.Payment
		if err := config.DB.
			Where("client_id = ? AND date BETWEEN ? AND ?", client.ID, yearStart, yearEnd).
			Find(&payments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
			return
		}

		billed := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		paid := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		pending := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		overdue := finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
		monthly := make(map[string]finance.CurrencyTotals)

		for _, p := range payments {
			billed[p.Currency] += p.Amount

			switch p.Status {
			case models.PaymentStatusPaid:
				paid[p.Currency] += p.Amount
			case models.PaymentStatusOverdue:
				overdue[p.Currency] += p.Amount
			case models.PaymentStatusPending:
				// Ожидающий платеж с прошедшей датой фактически просрочен.
				if !p.Date.After(today) {
					overdue[p.Currency] += p.Amount
				} else {
					pending[p.Currency] += p.Amount
				}
			}

			label := finance.BucketLabel(p.Date, finance.PeriodMonth)
			if monthly[label] == nil {
				monthly[label] = finance.CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
			}
			monthly[label][p.Currency] += p.Amount
		}

		monthlyOut := make(map[string]gin.H, len(monthly))
		for label, totals := range monthly {
			monthlyOut[label] = collapseTotals(totals, target)
		}

		activeProjects := 0
		for _, p := range projects {
			if p.Status == models.ProjectStatusActive {
				activeProjects++
			}
		}

		data = append(data, gin.H{
			"client_id":            client.ID,
			"client_name":          client.Name,
			"total_billed":         collapseTotals(billed, target),
			"total_paid":           collapseTotals(paid, target),
			"total_pending":        collapseTotals(pending, target),
			"total_overdue":        collapseTotals(overdue, target),
			"monthly_distribution": monthlyOut,
			"project_count":        len(projects),
			"active_project_count": activeProjects,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}
