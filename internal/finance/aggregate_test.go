package finance

import (
	"testing"
	"time"

	"backend-erp/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedConverter - конвертер с фиксированными курсами для тестов.
type fixedConverter struct {
	rates map[string]float64
}

func (f fixedConverter) Convert(amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	return amount * f.rates[from+"-"+to]
}

var testRates = fixedConverter{rates: map[string]float64{
	"USD-COP": 4000,
	"COP-USD": 0.00025,
}}

func TestBucketLabel(t *testing.T) {
	d := date(2024, time.March, 17)
	assert.Equal(t, "2024-03", BucketLabel(d, PeriodMonth))
	assert.Equal(t, "2024-Q1", BucketLabel(d, PeriodQuarter))
	assert.Equal(t, "2024", BucketLabel(d, PeriodYear))

	assert.Equal(t, "2024-Q4", BucketLabel(date(2024, time.October, 1), PeriodQuarter))
	assert.Equal(t, "2024-12", BucketLabel(date(2024, time.December, 31), PeriodMonth))
}

func TestValidatePeriod(t *testing.T) {
	assert.NoError(t, ValidatePeriod(PeriodMonth))
	assert.NoError(t, ValidatePeriod(PeriodQuarter))
	assert.NoError(t, ValidatePeriod(PeriodYear))

	err := ValidatePeriod("week")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSumByBucket(t *testing.T) {
	records := []Record{
		{Date: date(2024, time.January, 5), Amount: 100, Currency: models.CurrencyUSD},
		{Date: date(2024, time.January, 20), Amount: 50, Currency: models.CurrencyUSD},
		{Date: date(2024, time.January, 10), Amount: 200000, Currency: models.CurrencyCOP},
		{Date: date(2024, time.February, 1), Amount: 75, Currency: models.CurrencyUSD},
	}

	buckets, err := SumByBucket(records, PeriodMonth)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, 150.0, buckets["2024-01"][models.CurrencyUSD])
	assert.Equal(t, 200000.0, buckets["2024-01"][models.CurrencyCOP])
	assert.Equal(t, 75.0, buckets["2024-02"][models.CurrencyUSD])
	assert.Equal(t, 0.0, buckets["2024-02"][models.CurrencyCOP])
}

func TestSumByBucketUnknownPeriod(t *testing.T) {
	_, err := SumByBucket(nil, "decade")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSortedLabelsChronological(t *testing.T) {
	buckets := Buckets{
		"2024-10": nil,
		"2023-12": nil,
		"2024-02": nil,
	}
	assert.Equal(t, []string{"2023-12", "2024-02", "2024-10"}, buckets.SortedLabels())

	quarters := Buckets{"2024-Q3": nil, "2024-Q1": nil, "2023-Q4": nil}
	assert.Equal(t, []string{"2023-Q4", "2024-Q1", "2024-Q3"}, quarters.SortedLabels())
}

func TestCollapseDistributesOverSum(t *testing.T) {
	// Конвертация суммы равна сумме конвертаций: свёртка периода должна
	// давать тот же результат, что и конвертация каждой записи отдельно.
	totals := CurrencyTotals{
		models.CurrencyUSD: 100,
		models.CurrencyCOP: 400000,
	}

	collapsed := totals.Collapse(models.CurrencyUSD, testRates)
	assert.InDelta(t, 100+400000*0.00025, collapsed, 1e-9)

	collapsedCOP := totals.Collapse(models.CurrencyCOP, testRates)
	assert.InDelta(t, 400000+100*4000, collapsedCOP, 1e-9)
}

func TestNetPerCurrency(t *testing.T) {
	income := CurrencyTotals{models.CurrencyUSD: 500, models.CurrencyCOP: 1000000}
	expenses := CurrencyTotals{models.CurrencyUSD: 200, models.CurrencyCOP: 1500000}

	net := Net(income, expenses)
	assert.Equal(t, 300.0, net[models.CurrencyUSD])
	assert.Equal(t, -500000.0, net[models.CurrencyCOP])
}

func TestRunningBalance(t *testing.T) {
	labels := []string{"2024-01", "2024-02", "2024-03"}
	net := map[string]CurrencyTotals{
		"2024-01": {models.CurrencyUSD: 100, models.CurrencyCOP: 0},
		"2024-02": {models.CurrencyUSD: -30, models.CurrencyCOP: 50000},
		"2024-03": {models.CurrencyUSD: 10, models.CurrencyCOP: 0},
	}

	balance := RunningBalance(labels, net)
	assert.Equal(t, 100.0, balance["2024-01"][models.CurrencyUSD])
	assert.Equal(t, 70.0, balance["2024-02"][models.CurrencyUSD])
	assert.Equal(t, 50000.0, balance["2024-02"][models.CurrencyCOP])
	assert.Equal(t, 80.0, balance["2024-03"][models.CurrencyUSD])
	assert.Equal(t, 50000.0, balance["2024-03"][models.CurrencyCOP])
}

func TestRunningBalanceEmptyPeriodCarries(t *testing.T) {
	// Период без движения сохраняет баланс предыдущего.
	labels := []string{"2024-01", "2024-02"}
	net := map[string]CurrencyTotals{
		"2024-01": {models.CurrencyUSD: 40},
	}

	balance := RunningBalance(labels, net)
	assert.Equal(t, 40.0, balance["2024-02"][models.CurrencyUSD])
}
