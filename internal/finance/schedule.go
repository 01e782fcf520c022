// backend-erp/internal/finance/schedule.go
package finance

import (
	"math"
	"time"

	"backend-erp/models"
)

// DefaultScheduleMonths - горизонт генерации платежей по умолчанию.
const DefaultScheduleMonths = 12

// Интервал подписки в месяцах. Недельная и двухнедельная периодичность
// приближаются долями месяца; это осознанное упрощение, сдвиг дат
// накапливается только внутри одного месяца.
var subscriptionIntervals = map[string]float64{
	models.FrequencyWeekly:     0.25,
	models.FrequencyBiweekly:   0.5,
	models.FrequencyMonthly:    1,
	models.FrequencyBimonthly:  2,
	models.FrequencyQuarterly:  3,
	models.FrequencySemiannual: 6,
	models.FrequencyAnnual:     12,
}

func hasImplementationFee(planType string) bool {
	return planType == models.PlanTypeOneTimeFee ||
		planType == models.PlanTypeInstallments ||
		planType == models.PlanTypeHybrid
}

func hasSubscription(planType string) bool {
	return planType == models.PlanTypeSubscription ||
		planType == models.PlanTypeHybrid
}

// ValidatePlan проверяет, что заполнены все поля, обязательные для типа
// плана. Вызывается до любой записи в базу.
func ValidatePlan(plan *models.PaymentPlan) error {
	switch plan.Type {
	case models.PlanTypeOneTimeFee, models.PlanTypeInstallments,
		models.PlanTypeSubscription, models.PlanTypeHybrid:
	default:
		return validationf("неизвестный тип плана оплаты: %q", plan.Type)
	}

	if hasImplementationFee(plan.Type) {
		if plan.ImplementationFeeTotal <= 0 {
			return validationf("для плана типа %q требуется сумма fee за внедрение", plan.Type)
		}
		if plan.ImplementationFeeCurrency == "" {
			return validationf("для плана типа %q требуется валюта fee за внедрение", plan.Type)
		}
	}

	if plan.Type == models.PlanTypeInstallments || plan.Type == models.PlanTypeHybrid {
		if plan.ImplementationFeeInstallments < 1 {
			return validationf("число частей fee должно быть не меньше 1")
		}
	}

	if hasSubscription(plan.Type) {
		if plan.RecurringFeeAmount <= 0 {
			return validationf("для подписки требуется сумма периодического fee")
		}
		if plan.RecurringFeeCurrency == "" {
			return validationf("для подписки требуется валюта периодического fee")
		}
		if _, ok := subscriptionIntervals[plan.RecurringFeeFrequency]; !ok {
			return validationf("неизвестная периодичность подписки: %q", plan.RecurringFeeFrequency)
		}
		if plan.RecurringFeeDayOfCharge < 1 || plan.RecurringFeeDayOfCharge > 31 {
			return validationf("день списания должен быть в диапазоне 1-31")
		}
	}

	return nil
}

// BuildSchedule генерирует полный график платежей проекта на months месяцев
// вперёд: часть за внедрение (единым платежом или частями) и/или
// подписочные платежи. Записи не сохраняются, это делает вызывающий.
func BuildSchedule(project *models.Project, plan *models.PaymentPlan, months int) ([]models.Payment, error) {
	if plan == nil {
		return nil, ErrNoPaymentPlan
	}
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}

	if months <= 0 {
		months = DefaultScheduleMonths
	}
	if months > MaxHorizon {
		months = MaxHorizon
	}

	start := dateOnly(project.StartDate)
	var payments []models.Payment

	// Часть за внедрение: сумма делится поровну между частями,
	// часть i приходится на start_date + i месяцев.
	if hasImplementationFee(plan.Type) {
		installments := plan.ImplementationFeeInstallments
		if installments < 1 {
			installments = 1
		}
		perInstallment := round2(plan.ImplementationFeeTotal / float64(installments))

		for i := 0; i < installments; i++ {
			payments = append(payments, models.Payment{
				ProjectID:         project.ID,
				ClientID:          project.ClientID,
				Amount:            perInstallment,
				Currency:          plan.ImplementationFeeCurrency,
				Date:              start.AddDate(0, i, 0),
				Status:            models.PaymentStatusPending,
				Type:              models.PaymentTypeImplementation,
				InstallmentNumber: i + 1,
			})
		}
	}

	// Подписка: от даты старта проекта, со сдвигом на льготные периоды
	// и с днём списания, прижатым к 28-му, чтобы дата существовала в
	// любом месяце.
	if hasSubscription(plan.Type) {
		interval := subscriptionIntervals[plan.RecurringFeeFrequency]

		subStart := start
		if plan.RecurringFeeGracePeriods > 0 {
			subStart = subStart.AddDate(0, int(float64(plan.RecurringFeeGracePeriods)*interval), 0)
		}

		day := plan.RecurringFeeDayOfCharge
		if day > 28 {
			day = 28
		}
		subStart = time.Date(subStart.Year(), subStart.Month(), day, 0, 0, 0, 0, time.UTC)

		count := int(float64(months) / interval)
		for i := 0; i < count; i++ {
			amount := plan.RecurringFeeAmount
			if plan.RecurringFeeDiscountPeriods > 0 && i < plan.RecurringFeeDiscountPeriods {
				amount *= 1 - plan.RecurringFeeDiscountPercentage/100
			}

			payments = append(payments, models.Payment{
				ProjectID:         project.ID,
				ClientID:          project.ClientID,
				Amount:            round2(amount),
				Currency:          plan.RecurringFeeCurrency,
				Date:              subStart.AddDate(0, int(float64(i)*interval), 0),
				Status:            models.PaymentStatusPending,
				Type:              models.PaymentTypeRecurring,
				InstallmentNumber: i + 1,
			})
		}
	}

	return payments, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
