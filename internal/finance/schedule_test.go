package finance

import (
	"testing"
	"time"

	"backend-erp/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject(start time.Time) *models.Project {
	p := &models.Project{
		ClientID:  3,
		Name:      "Внедрение CRM",
		StartDate: start,
		Status:    models.ProjectStatusActive,
	}
	p.ID = 11
	return p
}

func TestBuildScheduleOneTimeFee(t *testing.T) {
	project := testProject(date(2024, time.January, 10))
	plan := &models.PaymentPlan{
		Type:                          models.PlanTypeOneTimeFee,
		ImplementationFeeTotal:        1200,
		ImplementationFeeCurrency:     models.CurrencyUSD,
		ImplementationFeeInstallments: 1,
	}

	payments, err := BuildSchedule(project, plan, 12)
	require.NoError(t, err)
	require.Len(t, payments, 1)

	p := payments[0]
	assert.Equal(t, 1200.0, p.Amount)
	assert.Equal(t, models.CurrencyUSD, p.Currency)
	assert.Equal(t, date(2024, time.January, 10), p.Date)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Equal(t, models.PaymentTypeImplementation, p.Type)
	assert.Equal(t, 1, p.InstallmentNumber)
	assert.Equal(t, project.ID, p.ProjectID)
	assert.Equal(t, project.ClientID, p.ClientID)
}

func TestBuildScheduleInstallments(t *testing.T) {
	project := testProject(date(2024, time.January, 10))
	plan := &models.PaymentPlan{
		Type:                          models.PlanTypeInstallments,
		ImplementationFeeTotal:        1200,
		ImplementationFeeCurrency:     models.CurrencyUSD,
		ImplementationFeeInstallments: 3,
	}

	payments, err := BuildSchedule(project, plan, 12)
	require.NoError(t, err)
	require.Len(t, payments, 3)

	for i, p := range payments {
		assert.Equal(t, 400.0, p.Amount)
		assert.Equal(t, date(2024, time.January, 10).AddDate(0, i, 0), p.Date)
		assert.Equal(t, i+1, p.InstallmentNumber)
	}
}

func TestBuildScheduleInstallmentRounding(t *testing.T) {
	project := testProject(date(2024, time.January, 10))
	plan := &models.PaymentPlan{
		Type:                          models.PlanTypeInstallments,
		ImplementationFeeTotal:        1000,
		ImplementationFeeCurrency:     models.CurrencyCOP,
		ImplementationFeeInstallments: 3,
	}

	payments, err := BuildSchedule(project, plan, 12)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	// Сумма делится поровну с округлением до сентаво.
	for _, p := range payments {
		assert.Equal(t, 333.33, p.Amount)
	}
}

func TestBuildScheduleSubscription(t *testing.T) {
	project := testProject(date(2024, time.January, 10))
	plan := &models.PaymentPlan{
		Type:                    models.PlanTypeSubscription,
		RecurringFeeAmount:      500,
		RecurringFeeCurrency:    models.CurrencyUSD,
		RecurringFeeFrequency:   models.FrequencyMonthly,
		RecurringFeeDayOfCharge: 5,
	}

	payments, err := BuildSchedule(project, plan, 12)
	require.NoError(t, err)
	require.Len(t, payments, 12)

	assert.Equal(t, date(2024, time.January, 5), payments[0].Date)
	assert.Equal(t, date(2024, time.December, 5), payments[11].Date)
	for _, p := range payments {
		assert.Equal(t, 500.0, p.Amount)
		assert.Equal(t, models.PaymentTypeRecurring, p.Type)
	}
}

func TestBuildScheduleSubscriptionDiscount(t *testing.T) {
	project := testProject(date(2024, time.January, 1))
	plan := &models.PaymentPlan{
		Type:                           models.PlanTypeSubscription,
		RecurringFeeAmount:             500,
		RecurringFeeCurrency:           models.CurrencyUSD,
		RecurringFeeFrequency:          models.FrequencyMonthly,
		RecurringFeeDayOfCharge:        1,
		RecurringFeeDiscountPeriods:    2,
		RecurringFeeDiscountPercentage: 10,
	}

	payments, err := BuildSchedule(project, plan, 3)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, 450.0, payments[0].Amount)
	assert.Equal(t, 450.0, payments[1].Amount)
	assert.Equal(t, 500.0, payments[2].Amount)
}

func TestBuildScheduleSubscriptionGraceAndDayClamp(t *testing.T) {
	project := testProject(date(2024, time.January, 15))
	plan := &models.PaymentPlan{
		Type:                     models.PlanTypeSubscription,
		RecurringFeeAmount:       300,
		RecurringFeeCurrency:     models.CurrencyCOP,
		RecurringFeeFrequency:    models.FrequencyMonthly,
		RecurringFeeDayOfCharge:  31,
		RecurringFeeGracePeriods: 2,
	}

	payments, err := BuildSchedule(project, plan, 12)
	require.NoError(t, err)
	require.NotEmpty(t, payments)

	// Два льготных месяца сдвигают старт на март, день 31 прижат к 28.
	assert.Equal(t, date(2024, time.March, 28), payments[0].Date)
	for _, p := range payments {
		assert.LessOrEqual(t, p.Date.Day(), 28)
	}
}

func TestBuildScheduleSubscriptionWeekly(t *testing.T) {
	project := testProject(date(2024, time.January, 1))
	plan := &models.PaymentPlan{
		Type:                    models.PlanTypeSubscription,
		RecurringFeeAmount:      100,
		RecurringFeeCurrency:    models.CurrencyUSD,
		RecurringFeeFrequency:   models.FrequencyWeekly,
		RecurringFeeDayOfCharge: 1,
	}

	payments, err := BuildSchedule(project, plan, 3)
	require.NoError(t, err)
	// Интервал 0.25 месяца: 3 месяца дают 12 платежей.
	assert.Len(t, payments, 12)
}

func TestBuildScheduleHybrid(t *testing.T) {
	project := testProject(date(2024, time.February, 1))
	plan := &models.PaymentPlan{
		Type:                          models.PlanTypeHybrid,
		ImplementationFeeTotal:        2000,
		ImplementationFeeCurrency:     models.CurrencyUSD,
		ImplementationFeeInstallments: 2,
		RecurringFeeAmount:            400,
		RecurringFeeCurrency:          models.CurrencyUSD,
		RecurringFeeFrequency:         models.FrequencyMonthly,
		RecurringFeeDayOfCharge:       1,
	}

	payments, err := BuildSchedule(project, plan, 6)
	require.NoError(t, err)
	require.Len(t, payments, 8)

	implementation := 0
	recurring := 0
	for _, p := range payments {
		switch p.Type {
		case models.PaymentTypeImplementation:
			implementation++
			assert.Equal(t, 1000.0, p.Amount)
		case models.PaymentTypeRecurring:
			recurring++
			assert.Equal(t, 400.0, p.Amount)
		}
	}
	assert.Equal(t, 2, implementation)
	assert.Equal(t, 6, recurring)
}

func TestBuildScheduleNoPlan(t *testing.T) {
	project := testProject(date(2024, time.January, 1))
	_, err := BuildSchedule(project, nil, 12)
	assert.ErrorIs(t, err, ErrNoPaymentPlan)
}

func TestValidatePlanTable(t *testing.T) {
	cases := []struct {
		name string
		plan models.PaymentPlan
		ok   bool
	}{
		{
			name: "one_time_fee без суммы",
			plan: models.PaymentPlan{Type: models.PlanTypeOneTimeFee, ImplementationFeeCurrency: models.CurrencyUSD},
		},
		{
			name: "one_time_fee без валюты",
			plan: models.PaymentPlan{Type: models.PlanTypeOneTimeFee, ImplementationFeeTotal: 100},
		},
		{
			name: "installments с нулём частей",
			plan: models.PaymentPlan{
				Type:                      models.PlanTypeInstallments,
				ImplementationFeeTotal:    100,
				ImplementationFeeCurrency: models.CurrencyUSD,
			},
		},
		{
			name: "подписка без периодичности",
			plan: models.PaymentPlan{
				Type:                    models.PlanTypeSubscription,
				RecurringFeeAmount:      100,
				RecurringFeeCurrency:    models.CurrencyUSD,
				RecurringFeeDayOfCharge: 1,
			},
		},
		{
			name: "подписка с днём 0",
			plan: models.PaymentPlan{
				Type:                  models.PlanTypeSubscription,
				RecurringFeeAmount:    100,
				RecurringFeeCurrency:  models.CurrencyUSD,
				RecurringFeeFrequency: models.FrequencyMonthly,
			},
		},
		{
			name: "подписка с днём 32",
			plan: models.PaymentPlan{
				Type:                    models.PlanTypeSubscription,
				RecurringFeeAmount:      100,
				RecurringFeeCurrency:    models.CurrencyUSD,
				RecurringFeeFrequency:   models.FrequencyMonthly,
				RecurringFeeDayOfCharge: 32,
			},
		},
		{
			name: "неизвестный тип",
			plan: models.PaymentPlan{Type: "retainer"},
		},
		{
			name: "корректная подписка",
			plan: models.PaymentPlan{
				Type:                    models.PlanTypeSubscription,
				RecurringFeeAmount:      100,
				RecurringFeeCurrency:    models.CurrencyUSD,
				RecurringFeeFrequency:   models.FrequencyQuarterly,
				RecurringFeeDayOfCharge: 15,
			},
			ok: true,
		},
		{
			name: "корректный hybrid",
			plan: models.PaymentPlan{
				Type:                          models.PlanTypeHybrid,
				ImplementationFeeTotal:        500,
				ImplementationFeeCurrency:     models.CurrencyCOP,
				ImplementationFeeInstallments: 2,
				RecurringFeeAmount:            100,
				RecurringFeeCurrency:          models.CurrencyCOP,
				RecurringFeeFrequency:         models.FrequencyMonthly,
				RecurringFeeDayOfCharge:       28,
			},
			ok: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePlan(&tc.plan)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
			}
		})
	}
}
