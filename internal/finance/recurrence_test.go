package finance

import (
	"testing"
	"time"

	"backend-erp/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activeRecurring(frequency string, next time.Time) *models.RecurringExpense {
	rec := &models.RecurringExpense{
		Description:   "Аренда офиса",
		Frequency:     frequency,
		StartDate:     next,
		Amount:        100,
		Currency:      models.CurrencyUSD,
		Category:      "office",
		PaymentMethod: "transfer",
		Status:        models.RecurringStatusActive,
		NextPayment:   next,
	}
	rec.ID = 7
	return rec
}

func TestGenerateAccruedMonthly(t *testing.T) {
	rec := activeRecurring(models.FrequencyMonthly, date(2024, time.January, 1))

	accrued, next, err := GenerateAccrued(rec, 3, date(2024, time.January, 15))
	require.NoError(t, err)
	require.Len(t, accrued, 3)

	// 1 января уже в прошлом: пропускается без расхода лимита.
	assert.Equal(t, date(2024, time.February, 1), accrued[0].DueDate)
	assert.Equal(t, date(2024, time.March, 1), accrued[1].DueDate)
	assert.Equal(t, date(2024, time.April, 1), accrued[2].DueDate)
	assert.Equal(t, date(2024, time.February, 1), next)

	for _, a := range accrued {
		assert.Equal(t, 100.0, a.Amount)
		assert.Equal(t, models.CurrencyUSD, a.Currency)
		assert.Equal(t, models.AccruedStatusPending, a.Status)
		assert.True(t, a.IsRecurring)
		require.NotNil(t, a.RecurringID)
		assert.Equal(t, rec.ID, *a.RecurringID)
	}
}

func TestGenerateAccruedSkipDoesNotConsumeHorizon(t *testing.T) {
	// Курсор на год в прошлом: все прошедшие даты пропускаются, но
	// горизонт всё равно даёт полные 3 будущих начисления.
	rec := activeRecurring(models.FrequencyMonthly, date(2023, time.January, 1))

	accrued, next, err := GenerateAccrued(rec, 3, date(2024, time.January, 15))
	require.NoError(t, err)
	require.Len(t, accrued, 3)
	assert.Equal(t, date(2024, time.February, 1), accrued[0].DueDate)
	assert.Equal(t, date(2024, time.February, 1), next)
}

func TestGenerateAccruedCursorDayKept(t *testing.T) {
	// Курсор, совпадающий с сегодняшним днём, не считается прошлым.
	rec := activeRecurring(models.FrequencyMonthly, date(2024, time.March, 10))

	accrued, next, err := GenerateAccrued(rec, 2, date(2024, time.March, 10))
	require.NoError(t, err)
	require.Len(t, accrued, 2)
	assert.Equal(t, date(2024, time.March, 10), accrued[0].DueDate)
	assert.Equal(t, date(2024, time.April, 10), accrued[1].DueDate)
	assert.Equal(t, date(2024, time.March, 10), next)
}

func TestGenerateAccruedDayBasedFrequencies(t *testing.T) {
	cases := []struct {
		frequency string
		second    time.Time
	}{
		{models.FrequencyDaily, date(2024, time.June, 2)},
		{models.FrequencyWeekly, date(2024, time.June, 8)},
		{models.FrequencyBiweekly, date(2024, time.June, 16)},
	}
	for _, tc := range cases {
		t.Run(tc.frequency, func(t *testing.T) {
			rec := activeRecurring(tc.frequency, date(2024, time.June, 1))
			accrued, _, err := GenerateAccrued(rec, 2, date(2024, time.June, 1))
			require.NoError(t, err)
			require.Len(t, accrued, 2)
			assert.Equal(t, date(2024, time.June, 1), accrued[0].DueDate)
			assert.Equal(t, tc.second, accrued[1].DueDate)
		})
	}
}

func TestGenerateAccruedMonthEndNormalization(t *testing.T) {
	// 31 января + месяц по календарю - 2 марта (высокосный 2024),
	// семантика time.AddDate сохраняется намеренно.
	rec := activeRecurring(models.FrequencyMonthly, date(2024, time.January, 31))

	accrued, _, err := GenerateAccrued(rec, 2, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, accrued, 2)
	assert.Equal(t, date(2024, time.January, 31), accrued[0].DueDate)
	assert.Equal(t, date(2024, time.March, 2), accrued[1].DueDate)
}

func TestGenerateAccruedPausedTemplate(t *testing.T) {
	rec := activeRecurring(models.FrequencyMonthly, date(2024, time.January, 1))
	rec.Status = models.RecurringStatusPaused

	_, _, err := GenerateAccrued(rec, 3, date(2024, time.January, 1))
	assert.ErrorIs(t, err, ErrInactiveRecurring)
}

func TestGenerateAccruedUnknownFrequency(t *testing.T) {
	rec := activeRecurring("fortnightly", date(2024, time.January, 1))

	_, _, err := GenerateAccrued(rec, 3, date(2024, time.January, 1))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestGenerateAccruedHorizonDefaults(t *testing.T) {
	rec := activeRecurring(models.FrequencyMonthly, date(2024, time.May, 1))

	accrued, _, err := GenerateAccrued(rec, 0, date(2024, time.May, 1))
	require.NoError(t, err)
	assert.Len(t, accrued, DefaultHorizon)

	accrued, _, err = GenerateAccrued(rec, MaxHorizon+50, date(2024, time.May, 1))
	require.NoError(t, err)
	assert.Len(t, accrued, MaxHorizon)
}

// TestGenerateAccruedRepeatedCallDuplicates фиксирует текущее поведение
// курсора: новый курсор равен дате первого сгенерированного начисления,
// поэтому повторная генерация с тем же курсором даёт ту же серию ещё
// раз. Защита от дублей лежит на вызывающем.
func TestGenerateAccruedRepeatedCallDuplicates(t *testing.T) {
	today := date(2024, time.January, 15)
	rec := activeRecurring(models.FrequencyMonthly, date(2024, time.January, 1))

	first, next, err := GenerateAccrued(rec, 3, today)
	require.NoError(t, err)

	rec.NextPayment = next
	second, _, err := GenerateAccrued(rec, 3, today)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].DueDate, second[i].DueDate)
	}
}

func TestGenerateAccruedDailyCursorTooOld(t *testing.T) {
	// Дневная периодичность с курсором на 30+ лет в прошлом упирается
	// в предел перемотки и отклоняется как ошибка валидации.
	rec := activeRecurring(models.FrequencyDaily, date(1990, time.January, 1))

	_, _, err := GenerateAccrued(rec, 3, date(2024, time.January, 1))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
