package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product represents a product in the store. Specifications, variants and
// the image gallery are stored as JSON columns so they round-trip as-is
// through both postgres and the sqlite test driver.
type Product struct {
	ID              string                                  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name            string                                  `json:"name" gorm:"type:varchar(255);not null" validate:"required,min=3,max=255"`
	Description     string                                  `json:"description" gorm:"type:text" validate:"omitempty,max=500"`
	LongDescription string                                  `json:"long_description" gorm:"type:text"`
	Price           float64                                 `json:"price" validate:"gte=0"`
	Stock           int                                     `json:"stock" validate:"gte=0"`
	ImageURL        string                                  `json:"image_url" gorm:"type:varchar(500)" validate:"omitempty,url"`
	Images          datatypes.JSONSlice[string]             `json:"images"`
	Brand           string                                  `json:"brand" gorm:"type:varchar(100)"`
	CategoryID      *string                                 `json:"category_id" gorm:"type:varchar(36);index" validate:"omitempty,uuid"`
	Category        *Category                               `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Specifications  datatypes.JSONType[map[string]string]   `json:"specifications"`
	Variants        datatypes.JSONType[map[string][]string] `json:"variants"`
	RelatedProducts datatypes.JSONSlice[string]             `json:"related_products"`
	gorm.Model
}

// InStock reports whether the product can be added to a cart.
func (p *Product) InStock() bool {
	return p.Stock > 0
}
