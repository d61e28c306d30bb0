package models

import "time"

// Review is a customer rating on a product. Nothing prevents a user from
// reviewing the same product more than once.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);index;not null" validate:"required"`
	ProfileID string    `json:"profile_id" gorm:"type:varchar(36);index;not null"`
	Rating    int       `json:"rating" gorm:"not null" validate:"required,gte=1,lte=5"`
	Comment   string    `json:"comment" gorm:"type:text" validate:"required,max=2000"`
	CreatedAt time.Time `json:"created_at"`
}
