package models

import "gorm.io/gorm"

// Category groups products. Slug is the URL-facing identifier and must be
// unique; deleting a category that still has products is rejected at the
// store layer via the product foreign key.
type Category struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=2,max=100"`
	Slug        string `json:"slug" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	Description string `json:"description" gorm:"type:text" validate:"omitempty,max=500"`
	gorm.Model
}
