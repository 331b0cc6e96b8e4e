package models

import (
	"strings"
	"time"

	"storefront/internal/catalog"

	"gorm.io/gorm"
)

// Item is a catalog item as stored in the database.
type Item struct {
	ID             string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,max=36"`
	Collection     string   `json:"collection" gorm:"index;type:varchar(32)" validate:"required,oneof=products recipes bundles"`
	Title          string   `json:"title" validate:"required,min=2,max=200"`
	Description    string   `json:"description" validate:"omitempty,max=5000"`
	Price          float64  `json:"price" validate:"gte=0"`
	CompareAtPrice float64  `json:"compareAtPrice" validate:"gte=0"`
	Category       string   `json:"category" gorm:"index;type:varchar(100)" validate:"omitempty,max=100"`
	Brand          string   `json:"brand" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	Rating         float64  `json:"rating" validate:"gte=0,lte=5"`
	Stock          int      `json:"stock" validate:"gte=0"`
	InStock        bool     `json:"inStock"`
	Tags           string   `json:"-"` // comma-joined
	TagList        []string `json:"tags" gorm:"-" validate:"omitempty,dive,max=50,excludesall=0x2C"`
	IsNew          bool     `json:"isNew"`
	IsBestSeller   bool     `json:"isBestSeller"`
	Popularity     float64  `json:"popularity"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeSave flattens TagList into the stored column.
func (i *Item) BeforeSave(tx *gorm.DB) error {
	i.Tags = strings.Join(i.TagList, ",")
	return nil
}

// AfterFind restores TagList from the stored column.
func (i *Item) AfterFind(tx *gorm.DB) error {
	i.TagList = nil
	if i.Tags != "" {
		i.TagList = strings.Split(i.Tags, ",")
	}
	return nil
}

// ToCatalog converts the row into the pipeline's item shape.
func (i Item) ToCatalog() catalog.Item {
	var created int64
	if !i.CreatedAt.IsZero() {
		created = i.CreatedAt.UnixMilli()
	}
	return catalog.Item{
		ID:             i.ID,
		Collection:     i.Collection,
		Title:          i.Title,
		Description:    i.Description,
		Price:          i.Price,
		CompareAtPrice: i.CompareAtPrice,
		Category:       i.Category,
		Brand:          i.Brand,
		Rating:         i.Rating,
		Stock:          i.Stock,
		InStock:        i.InStock,
		Tags:           i.TagList,
		IsNew:          i.IsNew,
		IsBestSeller:   i.IsBestSeller,
		Popularity:     i.Popularity,
		CreatedAt:      created,
	}
}

// ItemFromCatalog builds a row from a normalized item.
func ItemFromCatalog(c catalog.Item) Item {
	item := Item{
		ID:             c.ID,
		Collection:     c.Collection,
		Title:          c.Title,
		Description:    c.Description,
		Price:          c.Price,
		CompareAtPrice: c.CompareAtPrice,
		Category:       c.Category,
		Brand:          c.Brand,
		Rating:         c.Rating,
		Stock:          c.Stock,
		InStock:        c.InStock,
		TagList:        c.Tags,
		IsNew:          c.IsNew,
		IsBestSeller:   c.IsBestSeller,
		Popularity:     c.Popularity,
	}
	if c.CreatedAt != 0 {
		item.CreatedAt = time.UnixMilli(c.CreatedAt).UTC()
	}
	return item
}
