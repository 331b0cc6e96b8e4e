// Package seed loads catalog fixtures from YAML and stores the ones the
// database does not have yet.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the layout of a seed file:
//
//	items:
//	  - id: lime-mojito
//	    collection: recipes
//	    title: Lime Mojito
//	    price: 10
type File struct {
	Items []catalog.RawItem `yaml:"items"`
}

// Result counts what a seed run did.
type Result struct {
	Created int
	Skipped int // already present
	Invalid int
}

// Load reads and normalizes the seed file at path.
func Load(path string) ([]catalog.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes seed YAML and normalizes every item.
func Parse(r io.Reader) ([]catalog.Item, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return catalog.NormalizeAll(file.Items), nil
}

// Apply stores every valid item whose ID is not taken yet. Items without an
// ID are always created. Invalid items are logged and skipped.
func Apply(repo repositories.ItemRepository, items []catalog.Item, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()

	var res Result
	for _, item := range items {
		row := models.ItemFromCatalog(item)
		if err := validate.Struct(row); err != nil {
			res.Invalid++
			logger.Warn("skipping invalid seed item", zap.String("id", item.ID), zap.String("title", item.Title), zap.Error(err))
			continue
		}

		if row.ID != "" {
			_, err := repo.GetByID(row.Collection, row.ID)
			if err == nil {
				res.Skipped++
				continue
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return res, fmt.Errorf("failed to check seed item %s: %w", row.ID, err)
			}
		}

		if err := repo.Create(&row); err != nil {
			return res, fmt.Errorf("failed to seed item %q: %w", row.Title, err)
		}
		res.Created++
		logger.Debug("seeded item", zap.String("collection", row.Collection), zap.String("id", row.ID))
	}

	logger.Info("seed applied", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped), zap.Int("invalid", res.Invalid))
	return res, nil
}
