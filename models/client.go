// backend-erp/models/client.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы клиента.
const (
	ClientStatusActive     = "active"
	ClientStatusPaused     = "paused"
	ClientStatusTerminated = "terminated"
)

// Client представляет компанию-клиента, с которой заключены проекты.
type Client struct {
	gorm.Model
	Name        string    `json:"name" gorm:"size:120;not null"`
	ContactName string    `json:"contact_name" gorm:"size:120"`
	Email       string    `json:"email" gorm:"size:120"`
	Phone       string    `json:"phone" gorm:"size:50"`
	Address     string    `json:"address" gorm:"size:200"`
	TaxID       string    `json:"tax_id" gorm:"size:50"` // НИТ / налоговый идентификатор
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:20;not null;default:active"`
	Notes       string    `json:"notes"`

	// Проекты клиента удаляются каскадно вместе с ним.
	Projects []Project `json:"projects,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
