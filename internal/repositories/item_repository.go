package repositories

import (
	"errors"

	"storefront/internal/models"
)

// ErrNotFound is wrapped by every repository error for a missing item.
var ErrNotFound = errors.New("not found")

// ItemRepository defines the interface for catalog item data access.
type ItemRepository interface {
	GetAll(collection string) ([]models.Item, error)
	GetByID(collection, id string) (*models.Item, error)
	Create(item *models.Item) error
	Update(item *models.Item) error
	Delete(collection, id string) error
}
