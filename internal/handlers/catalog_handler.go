package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CatalogHandler handles HTTP requests for catalog collections.
type CatalogHandler struct {
	service  *services.CatalogService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the collection routes. /view is registered ahead
// of /:id so that it is never taken for an item ID.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/:collection", h.HandleList)
	router.Get("/:collection/view", h.HandleView)
	router.Get("/:collection/:id", h.HandleGetItem)
	router.Post("/:collection", h.HandleCreateItem)
	router.Put("/:collection/:id", h.HandleUpdateItem)
	router.Delete("/:collection/:id", h.HandleDeleteItem)
}

// HandleList serves the raw listing: ?page, ?limit, ?search and ?category.
func (h *CatalogHandler) HandleList(c *fiber.Ctx) error {
	collection, ok := h.collection(c)
	if !ok {
		return nil
	}

	result, err := h.service.ListItems(collection, services.ListRequest{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 0),
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		h.logger.Error("failed to list items", zap.String("collection", collection), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve items",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleView runs the full filter, sort and paginate pipeline. The query
// string uses the shareable view parameters (q, cat, priceMin, sort, page...);
// malformed values fall back to their defaults instead of failing.
func (h *CatalogHandler) HandleView(c *fiber.Ctx) error {
	collection, ok := h.collection(c)
	if !ok {
		return nil
	}

	state := catalog.ParseQuery(string(c.Request().URI().QueryString()))
	result, err := h.service.View(collection, state)
	if err != nil {
		h.logger.Error("failed to build view", zap.String("collection", collection), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not build catalog view",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleGetItem retrieves a single item by its ID.
func (h *CatalogHandler) HandleGetItem(c *fiber.Ctx) error {
	collection, ok := h.collection(c)
	if !ok {
		return nil
	}

	id := c.Params("id")
	item, err := h.service.GetItem(collection, id)
	if err != nil {
		return h.itemError(c, "Could not retrieve item", id, err)
	}
	return c.JSON(item)
}

// HandleCreateItem normalizes the body and stores it as a new item.
func (h *CatalogHandler) HandleCreateItem(c *fiber.Ctx) error {
	collection, ok := h.collection(c)
	if !ok {
		return nil
	}

	row, ok := h.parseItem(c, collection)
	if !ok {
		return nil
	}
	if err := h.service.CreateItem(row); err != nil {
		h.logger.Error("failed to create item", zap.String("collection", collection), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create item",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(row.ToCatalog())
}

// HandleUpdateItem replaces an existing item.
func (h *CatalogHandler) HandleUpdateItem(c *fiber.Ctx) error {
	collection, ok := h.collection(c)
	if !ok {
		return nil
	}

	id := c.Params("id")
	row, ok := h.parseItem(c, collection)
	if !ok {
		return nil
	}
	row.ID = id

	if err := h.service.UpdateItem(row); err != nil {
		return h.itemError(c, "Could not update item", id, err)
	}
	return c.JSON(row.ToCatalog())
}

// HandleDeleteItem removes an item.
func (h *CatalogHandler) HandleDeleteItem(c *fiber.Ctx) error {
	collection, ok := h.collection(c)
	if !ok {
		return nil
	}

	id := c.Params("id")
	if err := h.service.DeleteItem(collection, id); err != nil {
		return h.itemError(c, "Could not delete item", id, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// collection returns the :collection param. It answers 404 itself and
// reports false when the name is not a known collection.
func (h *CatalogHandler) collection(c *fiber.Ctx) (string, bool) {
	name := c.Params("collection")
	if !catalog.ValidCollection(name) {
		h.respond(c, fiber.StatusNotFound, fiber.Map{
			"message": fmt.Sprintf("Unknown collection %q", name),
		})
		return "", false
	}
	return name, true
}

// parseItem decodes, normalizes and validates a request body. It answers
// 400 itself and reports false when the body is unusable.
func (h *CatalogHandler) parseItem(c *fiber.Ctx, collection string) (*models.Item, bool) {
	var raw catalog.RawItem
	if err := c.BodyParser(&raw); err != nil {
		h.respond(c, fiber.StatusBadRequest, fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return nil, false
	}
	raw.Collection = collection

	row := models.ItemFromCatalog(catalog.Normalize(raw))
	if err := h.validate.Struct(row); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			h.respond(c, fiber.StatusBadRequest, fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
			return nil, false
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		h.respond(c, fiber.StatusBadRequest, fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
		return nil, false
	}
	return &row, true
}

func (h *CatalogHandler) respond(c *fiber.Ctx, status int, body fiber.Map) {
	if err := c.Status(status).JSON(body); err != nil {
		h.logger.Error("failed to write response", zap.Int("status", status), zap.Error(err))
	}
}

func (h *CatalogHandler) itemError(c *fiber.Ctx, message, id string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Item with ID %s not found", id),
		})
	}
	h.logger.Error(message, zap.String("item_id", id), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
