// backend-erp/models/user.go
package models

import "gorm.io/gorm"

// User - учётная запись сотрудника back-office.
type User struct {
	gorm.Model
	Login        string `json:"login" gorm:"size:80;uniqueIndex;not null"`
	Email        string `json:"email" gorm:"size:120"`
	FullName     string `json:"full_name" gorm:"size:120"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	Status       string `json:"status" gorm:"size:20;not null;default:active"`
}
