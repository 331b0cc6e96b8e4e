package repositories_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteRepo(t *testing.T) repositories.ItemRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Item{}))
	return repositories.NewGORMItemRepository(db)
}

func forEachRepo(t *testing.T, fn func(t *testing.T, repo repositories.ItemRepository)) {
	t.Run("gorm", func(t *testing.T) { fn(t, newSQLiteRepo(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, repositories.NewMockItemRepository()) })
}

func TestItemRepository_CRUD(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ItemRepository) {
		item := &models.Item{Collection: "products", Title: "Lime Mojito", Price: 10, TagList: []string{"mint", "summer"}}
		require.NoError(t, repo.Create(item))
		assert.NotEmpty(t, item.ID)

		got, err := repo.GetByID("products", item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lime Mojito", got.Title)
		assert.Equal(t, []string{"mint", "summer"}, got.TagList)
		assert.False(t, got.CreatedAt.IsZero())

		_, err = repo.GetByID("recipes", item.ID)
		assert.True(t, errors.Is(err, repositories.ErrNotFound))

		got.Price = 11
		got.TagList = []string{"mint"}
		require.NoError(t, repo.Update(got))

		updated, err := repo.GetByID("products", item.ID)
		require.NoError(t, err)
		assert.Equal(t, 11.0, updated.Price)
		assert.Equal(t, []string{"mint"}, updated.TagList)
		assert.WithinDuration(t, item.CreatedAt, updated.CreatedAt, time.Second)

		require.NoError(t, repo.Delete("products", item.ID))
		_, err = repo.GetByID("products", item.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		err = repo.Delete("products", item.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.Contains(t, err.Error(), "for deletion")

		err = repo.Update(&models.Item{ID: "missing", Collection: "products", Title: "Nope"})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestItemRepository_GetAllByCollection(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ItemRepository) {
		for i, title := range []string{"A", "B", "C"} {
			collection := "products"
			if i == 1 {
				collection = "recipes"
			}
			require.NoError(t, repo.Create(&models.Item{ID: fmt.Sprintf("id-%d", i), Collection: collection, Title: title}))
		}

		products, err := repo.GetAll("products")
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "id-0", products[0].ID)
		assert.Equal(t, "id-2", products[1].ID)

		bundles, err := repo.GetAll("bundles")
		require.NoError(t, err)
		assert.Empty(t, bundles)
	})
}
