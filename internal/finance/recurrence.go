// backend-erp/internal/finance/recurrence.go
package finance

import (
	"time"

	"backend-erp/models"
)

const (
	// DefaultHorizon - число периодов, генерируемых по умолчанию.
	DefaultHorizon = 3

	// MaxHorizon ограничивает объём работы на один запрос.
	MaxHorizon = 120

	// maxSkipSteps ограничивает перемотку через прошедшие даты, чтобы
	// курсор из глубокого прошлого не превратился в бесконечный цикл.
	maxSkipSteps = 10000
)

// GenerateAccrued разворачивает шаблон повторяющегося расхода в список
// начислений и вычисляет новое значение курсора.
//
// Даты строго раньше today пропускаются: начисления для них не создаются,
// лимит horizon не расходуется, но курсор продвигается вперёд. Так шаблон,
// который давно не генерировали, "догоняет" сегодняшний день без создания
// задним числом целой пачки просроченных начислений.
//
// Новый курсор - дата ПЕРВОГО сгенерированного начисления: именно её
// интерфейс показывает как "следующий платёж". Повторный вызов без смены
// даты сгенерирует ту же серию ещё раз - поведение сохранено сознательно,
// см. TestGenerateAccruedRepeatedCallDuplicates.
//
// Сами записи не сохраняются: вызывающий обязан записать начисления и
// обновлённый курсор в одной транзакции.
func GenerateAccrued(rec *models.RecurringExpense, horizon int, today time.Time) ([]models.AccruedExpense, time.Time, error) {
	if rec.Status != models.RecurringStatusActive {
		return nil, time.Time{}, ErrInactiveRecurring
	}

	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if horizon > MaxHorizon {
		horizon = MaxHorizon
	}

	st, err := frequencyStep(rec.Frequency)
	if err != nil {
		return nil, time.Time{}, err
	}

	current := dateOnly(rec.NextPayment)
	today = dateOnly(today)

	// Перемотка через прошлое.
	skipped := 0
	for current.Before(today) {
		current = st.next(current)
		skipped++
		if skipped > maxSkipSteps {
			return nil, time.Time{}, validationf("курсор шаблона слишком далеко в прошлом: %s", rec.NextPayment.Format("2006-01-02"))
		}
	}

	accrued := make([]models.AccruedExpense, 0, horizon)
	var nextPayment time.Time

	for i := 0; i < horizon; i++ {
		if i == 0 {
			nextPayment = current
		}

		accrued = append(accrued, models.AccruedExpense{
			Description:   rec.Description,
			DueDate:       current,
			Amount:        rec.Amount,
			Currency:      rec.Currency,
			Category:      rec.Category,
			PaymentMethod: rec.PaymentMethod,
			Status:        models.AccruedStatusPending,
			IsRecurring:   true,
			RecurringID:   &rec.ID,
			Notes:         rec.Notes,
		})

		current = st.next(current)
	}

	return accrued, nextPayment, nil
}
