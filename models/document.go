// backend-erp/models/document.go
package models

import "gorm.io/gorm"

// Типы сущностей, к которым может быть привязан документ.
const (
	DocumentEntityClient  = "client"
	DocumentEntityProject = "project"
)

// Document - загруженный файл (договор, квитанция, акт), привязанный
// к клиенту или проекту через пару (entity_type, entity_id).
type Document struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:255;not null"`
	FilePath   string `json:"-" gorm:"size:255;not null"` // путь на диске наружу не отдаём
	FileType   string `json:"file_type" gorm:"size:50"`
	EntityType string `json:"entity_type" gorm:"size:20;not null;index:idx_documents_entity"`
	EntityID   uint   `json:"entity_id" gorm:"not null;index:idx_documents_entity"`
	Notes      string `json:"notes"`
}
