// backend-erp/internal/handlers/handler_utils.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"backend-erp/internal/currency"
	"backend-erp/internal/finance"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
)

// Rates - общий сервис конвертации валют. Устанавливается один раз при
// старте приложения (см. cmd/server).
var Rates *currency.Converter

// SetConverter внедряет сервис конвертации в обработчики.
func SetConverter(c *currency.Converter) {
	Rates = c
}

// parseDate разбирает дату формата YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// respondFinanceError переводит ошибку бизнес-логики в HTTP-ответ.
// Ошибки валидации и бизнес-правил - всегда 400.
func respondFinanceError(c *gin.Context, err error) {
	if finance.IsValidation(err) ||
		errors.Is(err, finance.ErrInactiveRecurring) ||
		errors.Is(err, finance.ErrNoPaymentPlan) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// validCurrency проверяет код целевой валюты из query-параметра.
// Пустая строка допустима и означает "без конвертации".
func validCurrency(code string) bool {
	return code == "" || code == models.CurrencyCOP || code == models.CurrencyUSD
}

// otherCurrency возвращает вторую поддерживаемую валюту.
func otherCurrency(code string) string {
	if code == models.CurrencyCOP {
		return models.CurrencyUSD
	}
	return models.CurrencyCOP
}

// collapseTotals сворачивает суммы по валютам в одну целевую валюту.
// При пустой target возвращает разбивку как есть.
func collapseTotals(totals finance.CurrencyTotals, target string) gin.H {
	if target == "" {
		return gin.H{
			models.CurrencyCOP: totals[models.CurrencyCOP],
			models.CurrencyUSD: totals[models.CurrencyUSD],
		}
	}
	return gin.H{target: totals.Collapse(target, Rates)}
}
