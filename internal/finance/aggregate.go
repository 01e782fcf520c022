// backend-erp/internal/finance/aggregate.go
package finance

import (
	"fmt"
	"sort"
	"time"

	"backend-erp/models"
)

// Гранулярность отчётных периодов.
const (
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

// Record - одна датированная денежная запись (платёж, расход, доход),
// попадающая в агрегацию.
type Record struct {
	Date     time.Time
	Amount   float64
	Currency string
}

// CurrencyTotals - суммы по валютам внутри одного периода.
type CurrencyTotals map[string]float64

// Buckets - метка периода -> суммы по валютам.
type Buckets map[string]CurrencyTotals

// Converter - то, что агрегатору нужно от сервиса конвертации валют.
type Converter interface {
	Convert(amount float64, from, to string) float64
}

// ValidatePeriod быстро отклоняет неизвестную гранулярность до начала
// каких-либо вычислений.
func ValidatePeriod(period string) error {
	switch period {
	case PeriodMonth, PeriodQuarter, PeriodYear:
		return nil
	}
	return validationf("неизвестный период: %q (допустимы month, quarter, year)", period)
}

// BucketLabel усекает дату до метки периода: "2024-03", "2024-Q1", "2024".
// Метки всех трёх видов сортируются лексикографически в хронологическом
// порядке.
func BucketLabel(d time.Time, period string) string {
	switch period {
	case PeriodQuarter:
		quarter := (int(d.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", d.Year(), quarter)
	case PeriodYear:
		return fmt.Sprintf("%d", d.Year())
	default:
		return d.Format("2006-01")
	}
}

// SumByBucket раскладывает записи по периодам и суммирует по валютам.
func SumByBucket(records []Record, period string) (Buckets, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	buckets := make(Buckets)
	for _, r := range records {
		label := BucketLabel(r.Date, period)
		if buckets[label] == nil {
			buckets[label] = newCurrencyTotals()
		}
		buckets[label][r.Currency] += r.Amount
	}
	return buckets, nil
}

func newCurrencyTotals() CurrencyTotals {
	return CurrencyTotals{models.CurrencyCOP: 0, models.CurrencyUSD: 0}
}

// SortedLabels возвращает метки периодов в хронологическом порядке.
func (b Buckets) SortedLabels() []string {
	labels := make([]string, 0, len(b))
	for label := range b {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Collapse переводит суммы всех валют в target по текущему курсу и
// сворачивает период в одно значение.
func (t CurrencyTotals) Collapse(target string, conv Converter) float64 {
	total := t[target]
	for currency, amount := range t {
		if currency == target {
			continue
		}
		total += conv.Convert(amount, currency, target)
	}
	return total
}

// Net вычисляет income - expenses по каждой валюте. Если нужен результат
// в одной валюте, обе стороны сначала конвертируются (Collapse) и только
// потом вычитаются: вычитание разных валют по разным курсам дало бы
// несогласованные значения.
func Net(income, expenses CurrencyTotals) CurrencyTotals {
	net := newCurrencyTotals()
	for currency, amount := range income {
		net[currency] += amount
	}
	for currency, amount := range expenses {
		net[currency] -= amount
	}
	return net
}

// RunningBalance строит накопительный баланс: для каждой метки периода -
// сумма net всех периодов до неё включительно. Метки обходятся в
// хронологическом порядке.
func RunningBalance(labels []string, net map[string]CurrencyTotals) map[string]CurrencyTotals {
	balance := make(map[string]CurrencyTotals, len(labels))
	carry := newCurrencyTotals()

	for _, label := range labels {
		for currency, amount := range net[label] {
			carry[currency] += amount
		}
		snapshot := newCurrencyTotals()
		for currency, amount := range carry {
			snapshot[currency] = amount
		}
		balance[label] = snapshot
	}
	return balance
}
