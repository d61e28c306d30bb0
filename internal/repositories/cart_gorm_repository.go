package repositories

import (
	"fmt"

	"fixiestore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// GetByUser retrieves the user's cart lines with product data preloaded.
func (r *GORMCartRepository) GetByUser(userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return items, nil
}

// AddOrIncrement merges the item into the cart inside a transaction so the
// read-then-write pair cannot race with itself.
func (r *GORMCartRepository) AddOrIncrement(item *models.CartItem) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CartItem
		err := tx.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			First(&existing).Error
		if err == nil {
			existing.Quantity += item.Quantity
			*item = existing
			return tx.Save(&existing).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		return tx.Create(item).Error
	})
	if err != nil {
		return fmt.Errorf("failed to add product %s to cart: %w", item.ProductID, err)
	}
	return nil
}

// CountByUser returns the number of cart rows belonging to the user.
func (r *GORMCartRepository) CountByUser(userID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count cart items for user %s: %w", userID, err)
	}
	return count, nil
}

// ClearByUser deletes all cart rows belonging to the user.
func (r *GORMCartRepository) ClearByUser(userID string) error {
	if err := r.db.Delete(&models.CartItem{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}
