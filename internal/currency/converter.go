// backend-erp/internal/currency/converter.go
//
// Сервис конвертации валют. Курс берётся из кэша, при промахе - из
// внешнего API, при любой ошибке внешнего вызова - из таблицы
// приблизительных курсов. Ошибка внешнего сервиса никогда не доходит
// до вызывающего: отчёты продолжают работать на приблизительных курсах.
package currency

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIBaseURL = "https://v6.exchangerate-api.com/v6"

// fetchTimeout - максимальное время ожидания внешнего API. Запрос
// отчёта не должен зависать из-за курса валют.
const fetchTimeout = 5 * time.Second

// Приблизительные курсы на случай недоступности внешнего API.
var fallbackRates = map[string]float64{
	"USD-COP": 4000.0,
	"COP-USD": 0.00025,
}

// Converter возвращает курсы и конвертирует суммы между валютами.
type Converter struct {
	cache   RateCache
	apiKey  string
	client  *http.Client
	baseURL string
}

func New(cache RateCache, apiKey string) *Converter {
	return &Converter{
		cache:   cache,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: fetchTimeout},
		baseURL: defaultAPIBaseURL,
	}
}

type pairResponse struct {
	Result         string  `json:"result"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Rate возвращает курс base->target. Никогда не возвращает ошибку:
// деградация до приблизительного курса - штатный режим.
func (c *Converter) Rate(base, target string) float64 {
	if base == target {
		return 1.0
	}

	pair := base + "-" + target
	if rate, ok := c.cache.Get(pair); ok {
		return rate
	}

	rate, err := c.fetchRate(base, target)
	if err != nil {
		slog.Warn("Не удалось получить курс валют, используется приблизительный",
			"pair", pair, "error", err)
		return c.fallback(pair)
	}

	c.cache.Set(pair, rate)
	return rate
}

// Convert переводит сумму из одной валюты в другую. При совпадении валют
// сумма возвращается без изменений, чтобы не накапливать ошибку
// плавающей точки на холостой конвертации.
func (c *Converter) Convert(amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	return amount * c.Rate(from, to)
}

// ClearCache сбрасывает кэш курсов. Используется тестами и
// административными операциями.
func (c *Converter) ClearCache() {
	c.cache.Clear()
}

func (c *Converter) fetchRate(base, target string) (float64, error) {
	if c.apiKey == "" {
		return 0, fmt.Errorf("ключ EXCHANGE_RATE_API_KEY не задан")
	}

	url := fmt.Sprintf("%s/%s/pair/%s/%s", c.baseURL, c.apiKey, base, target)
	resp, err := c.client.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API курсов вернул статус %d", resp.StatusCode)
	}

	var body pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if body.Result != "success" || body.ConversionRate <= 0 {
		return 0, fmt.Errorf("API курсов вернул result=%q", body.Result)
	}

	return body.ConversionRate, nil
}

func (c *Converter) fallback(pair string) float64 {
	if rate, ok := fallbackRates[pair]; ok {
		return rate
	}
	return 1.0
}
