// backend-erp/models/project.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы проекта.
const (
	ProjectStatusActive    = "active"
	ProjectStatusPaused    = "paused"
	ProjectStatusFinished  = "finished"
	ProjectStatusCancelled = "cancelled"
)

// Типы плана оплаты проекта.
const (
	PlanTypeOneTimeFee   = "one_time_fee"    // единоразовый fee
	PlanTypeInstallments = "installments"    // fee по частям
	PlanTypeSubscription = "subscription"    // периодическая подписка
	PlanTypeHybrid       = "hybrid"          // fee + подписка
)

// Project представляет проект, выполняемый для клиента.
type Project struct {
	gorm.Model
	ClientID    uint       `json:"client_id" gorm:"not null;index"`
	Client      Client     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Name        string     `json:"name" gorm:"size:120;not null"`
	Description string     `json:"description" gorm:"not null"`
	StartDate   time.Time  `json:"start_date" gorm:"not null"`
	EndDate     *time.Time `json:"end_date"`
	Status      string     `json:"status" gorm:"size:20;not null;default:active"`
	Notes       string     `json:"notes"`

	// План оплаты: ровно один на проект, удаляется вместе с ним.
	PaymentPlan *PaymentPlan `json:"payment_plan,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Payments    []Payment    `json:"payments,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// PaymentPlan описывает, как проект монетизируется: единоразовый fee,
// fee по частям, подписка или их комбинация. Набор обязательных полей
// зависит от типа плана и проверяется в internal/finance перед генерацией.
type PaymentPlan struct {
	gorm.Model
	ProjectID uint   `json:"project_id" gorm:"uniqueIndex;not null"`
	Type      string `json:"type" gorm:"size:30;not null"`

	ImplementationFeeTotal        float64 `json:"implementation_fee_total" gorm:"type:numeric(12,2)"`
	ImplementationFeeCurrency     string  `json:"implementation_fee_currency" gorm:"size:3"`
	ImplementationFeeInstallments int     `json:"implementation_fee_installments" gorm:"default:1"`

	RecurringFeeAmount             float64 `json:"recurring_fee_amount" gorm:"type:numeric(12,2)"`
	RecurringFeeCurrency           string  `json:"recurring_fee_currency" gorm:"size:3"`
	RecurringFeeFrequency          string  `json:"recurring_fee_frequency" gorm:"size:20"`
	RecurringFeeDayOfCharge        int     `json:"recurring_fee_day_of_charge"`
	RecurringFeeGracePeriods       int     `json:"recurring_fee_grace_periods" gorm:"default:0"`
	RecurringFeeDiscountPeriods    int     `json:"recurring_fee_discount_periods" gorm:"default:0"`
	RecurringFeeDiscountPercentage float64 `json:"recurring_fee_discount_percentage" gorm:"type:numeric(5,2);default:0"`
}
