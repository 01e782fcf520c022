// backend-erp/internal/finance/frequency.go
package finance

import (
	"time"

	"backend-erp/models"
)

// step - шаг периодичности: либо фиксированное число дней, либо целое
// число календарных месяцев. Месячный шаг использует семантику
// time.AddDate: "+1 месяц" от 31 января нормализуется по календарю,
// а не приближается 30 днями.
type step struct {
	days   int
	months int
}

var frequencySteps = map[string]step{
	models.FrequencyDaily:      {days: 1},
	models.FrequencyWeekly:     {days: 7},
	models.FrequencyBiweekly:   {days: 15},
	models.FrequencyMonthly:    {months: 1},
	models.FrequencyBimonthly:  {months: 2},
	models.FrequencyQuarterly:  {months: 3},
	models.FrequencySemiannual: {months: 6},
	models.FrequencyAnnual:     {months: 12},
}

// KnownFrequency сообщает, поддерживается ли такая периодичность.
func KnownFrequency(frequency string) bool {
	_, ok := frequencySteps[frequency]
	return ok
}

// frequencyStep возвращает шаг для периодичности. Неизвестное значение -
// ошибка валидации: раньше здесь молча подставлялся месячный шаг, что
// скрывало битые данные.
func frequencyStep(frequency string) (step, error) {
	s, ok := frequencySteps[frequency]
	if !ok {
		return step{}, validationf("неизвестная периодичность: %q", frequency)
	}
	return s, nil
}

func (s step) next(d time.Time) time.Time {
	if s.days > 0 {
		return d.AddDate(0, 0, s.days)
	}
	return d.AddDate(0, s.months, 0)
}

// dateOnly отбрасывает время, оставляя дату в UTC. Вся логика расписаний
// работает с датами, а не с моментами времени.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
