// backend-erp/models/income.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Income представляет поступление денег: оплата клиента, взнос партнёра и т.д.
type Income struct {
	gorm.Model
	Description   string    `json:"description" gorm:"size:255;not null"`
	Date          time.Time `json:"date" gorm:"not null;index"`
	Amount        float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency      string    `json:"currency" gorm:"size:3;not null"`
	Type          string    `json:"type" gorm:"size:100;not null"` // 'client', 'partner_contribution', ...
	Client        string    `json:"client" gorm:"size:120"`        // имя клиента-источника, если есть
	PaymentMethod string    `json:"payment_method" gorm:"size:100;not null"`
	ReceiptPath   string    `json:"receipt_path" gorm:"size:255"`
	Notes         string    `json:"notes"`
}
