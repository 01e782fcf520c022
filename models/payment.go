// backend-erp/models/payment.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Поддерживаемые валюты.
const (
	CurrencyCOP = "COP"
	CurrencyUSD = "USD"
)

// Статусы платежа.
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
	PaymentStatusOverdue = "overdue"
)

// Типы платежа.
const (
	PaymentTypeImplementation = "implementation"
	PaymentTypeRecurring      = "recurring"
)

// Payment представляет один запланированный или фактический платеж клиента
// по проекту. Записи создаются вручную либо генерируются из плана оплаты.
type Payment struct {
	gorm.Model
	ProjectID uint    `json:"project_id" gorm:"not null;index"`
	Project   Project `json:"-"`
	ClientID  uint    `json:"client_id" gorm:"not null;index"`
	Client    Client  `json:"-"`

	Amount   float64 `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency string  `json:"currency" gorm:"size:3;not null"`

	// Date - запланированная дата; PaidDate - фактическая дата оплаты.
	Date     time.Time  `json:"date" gorm:"not null;index"`
	PaidDate *time.Time `json:"paid_date"`

	Status            string `json:"status" gorm:"size:20;not null;default:pending"`
	InvoiceNumber     string `json:"invoice_number" gorm:"size:100"`
	InvoiceURL        string `json:"invoice_url" gorm:"size:255"`
	Type              string `json:"type" gorm:"size:20;not null"`
	InstallmentNumber int    `json:"installment_number"`
	Notes             string `json:"notes"`
}
