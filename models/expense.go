// backend-erp/models/expense.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Периодичность повторяющегося расхода.
const (
	FrequencyDaily      = "daily"
	FrequencyWeekly     = "weekly"
	FrequencyBiweekly   = "biweekly"
	FrequencyMonthly    = "monthly"
	FrequencyBimonthly  = "bimonthly"
	FrequencyQuarterly  = "quarterly"
	FrequencySemiannual = "semiannual"
	FrequencyAnnual     = "annual"
)

// Статусы шаблона повторяющегося расхода.
const (
	RecurringStatusActive = "active"
	RecurringStatusPaused = "paused"
)

// Статусы начисленного расхода.
const (
	AccruedStatusPaid    = "paid"
	AccruedStatusPending = "pending"
	AccruedStatusOverdue = "overdue"
)

// Expense представляет разовый (уже понесённый) расход.
type Expense struct {
	gorm.Model
	Description   string    `json:"description" gorm:"size:255;not null"`
	Date          time.Time `json:"date" gorm:"not null;index"`
	Amount        float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency      string    `json:"currency" gorm:"size:3;not null"`
	Category      string    `json:"category" gorm:"size:100;not null"`
	PaymentMethod string    `json:"payment_method" gorm:"size:100;not null"`
	ReceiptPath   string    `json:"receipt_path" gorm:"size:255"`
	Notes         string    `json:"notes"`
}

// RecurringExpense - шаблон периодического расхода. Поле NextPayment -
// курсор: дата ближайшего ещё не сгенерированного начисления. Курсор
// двигается только генератором начислений и только вперёд.
type RecurringExpense struct {
	gorm.Model
	Description   string    `json:"description" gorm:"size:255;not null"`
	Frequency     string    `json:"frequency" gorm:"size:20;not null"`
	StartDate     time.Time `json:"start_date" gorm:"not null"`
	Amount        float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency      string    `json:"currency" gorm:"size:3;not null"`
	Category      string    `json:"category" gorm:"size:100;not null"`
	PaymentMethod string    `json:"payment_method" gorm:"size:100;not null"`
	Status        string    `json:"status" gorm:"size:20;not null;default:active"`
	NextPayment   time.Time `json:"next_payment" gorm:"not null"`
	Notes         string    `json:"notes"`
}

// AccruedExpense - одно конкретное начисление: либо сгенерировано из
// шаблона RecurringExpense, либо создано вручную. При удалении шаблона
// ссылка обнуляется, сами начисления остаются.
type AccruedExpense struct {
	gorm.Model
	Description   string     `json:"description" gorm:"size:255;not null"`
	DueDate       time.Time  `json:"due_date" gorm:"not null;index"`
	Amount        float64    `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency      string     `json:"currency" gorm:"size:3;not null"`
	Category      string     `json:"category" gorm:"size:100;not null"`
	PaymentMethod string     `json:"payment_method" gorm:"size:100;not null"`
	Status        string     `json:"status" gorm:"size:20;not null;default:pending"`
	ReceiptPath   string     `json:"receipt_path" gorm:"size:255"`
	IsRecurring   bool       `json:"is_recurring" gorm:"default:false"`
	RecurringID   *uint      `json:"recurring_id" gorm:"index"`
	Recurring     *RecurringExpense `json:"-" gorm:"foreignKey:RecurringID;constraint:OnDelete:SET NULL"`
	Notes         string     `json:"notes"`
}
