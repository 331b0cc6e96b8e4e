package repositories

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMItemRepository is a GORM implementation of ItemRepository.
type GORMItemRepository struct {
	db *gorm.DB
}

// NewGORMItemRepository creates a new instance of GORMItemRepository.
func NewGORMItemRepository(db *gorm.DB) *GORMItemRepository {
	return &GORMItemRepository{
		db: db,
	}
}

// GetAll retrieves every item of a collection in insertion order.
func (r *GORMItemRepository) GetAll(collection string) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.Where("collection = ?", collection).Order("created_at, id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", collection, err)
	}
	return items, nil
}

// GetByID retrieves a single item by its ID.
func (r *GORMItemRepository) GetByID(collection, id string) (*models.Item, error) {
	var item models.Item
	if err := r.db.First(&item, "collection = ? AND id = ?", collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item with ID %s %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item by ID %s: %w", id, err)
	}
	return &item, nil
}

// Create inserts a new item, assigning an ID when none is set.
func (r *GORMItemRepository) Create(item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// Update replaces an existing item.
func (r *GORMItemRepository) Update(item *models.Item) error {
	var existing models.Item
	if err := r.db.Select("created_at").First(&existing, "collection = ? AND id = ?", item.Collection, item.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("item with ID %s %w for update", item.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = existing.CreatedAt
	}
	if err := r.db.Save(item).Error; err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// Delete soft-deletes an item by its ID.
func (r *GORMItemRepository) Delete(collection, id string) error {
	res := r.db.Delete(&models.Item{}, "collection = ? AND id = ?", collection, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item with ID %s %w for deletion", id, ErrNotFound)
	}
	return nil
}
