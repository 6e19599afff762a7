// Package handlers provides HTTP handlers for the coffee shop drinks API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bear-san/coffee-shop/internal/database"
	"github.com/bear-san/coffee-shop/internal/logger"
	"github.com/bear-san/coffee-shop/internal/models"
)

// DrinkStore is the storage the handlers need.
type DrinkStore interface {
	List(ctx context.Context) ([]*models.Drink, error)
	Get(ctx context.Context, id int) (*models.Drink, error)
	Create(ctx context.Context, d *models.Drink) error
	Update(ctx context.Context, d *models.Drink) error
	Delete(ctx context.Context, id int) error
}

type Handler struct {
	store  DrinkStore
	logger logger.Logger
}

func NewHandler(store DrinkStore, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log,
	}
}

// drinkRequest is the body of POST /drinks and PATCH /drinks/:id. Recipe
// is raw so a single ingredient object is accepted as well as an array.
type drinkRequest struct {
	Title  *string         `json:"title"`
	Recipe json.RawMessage `json:"recipe"`
}

func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Coffee Shop"})
}

func (h *Handler) LoginResults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "You are logged in to Coffee Shop"})
}

func (h *Handler) GetDrinks(c *gin.Context) {
	h.listDrinks(c, models.Drink.Short)
}

func (h *Handler) GetDrinksDetail(c *gin.Context) {
	h.listDrinks(c, models.Drink.Long)
}

func (h *Handler) listDrinks(c *gin.Context, represent func(models.Drink) models.Drink) {
	drinks, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list drinks", logger.Error(err))
		abortWithStatus(c, http.StatusInternalServerError)
		return
	}

	out := make([]models.Drink, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, represent(*d))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": out})
}

func (h *Handler) CreateDrink(c *gin.Context) {
	var req drinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusBadRequest)
		return
	}

	recipe, err := models.ParseRecipe(req.Recipe)
	if err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity)
		return
	}
	drink := &models.Drink{Recipe: recipe}
	if req.Title != nil {
		drink.Title = *req.Title
	}

	if err := drink.Validate(); err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity)
		return
	}
	if err := h.store.Create(c.Request.Context(), drink); err != nil {
		h.writeStoreError(c, "create", err)
		return
	}

	h.logger.Info("Drink created", logger.Int("id", drink.ID), logger.String("title", drink.Title))
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": []models.Drink{drink.Long()}})
}

func (h *Handler) UpdateDrink(c *gin.Context) {
	id, ok := drinkID(c)
	if !ok {
		return
	}

	var req drinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusBadRequest)
		return
	}

	drink, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, "get", err)
		return
	}

	if req.Title != nil {
		drink.Title = *req.Title
	}
	if len(req.Recipe) > 0 {
		recipe, err := models.ParseRecipe(req.Recipe)
		if err != nil {
			abortWithStatus(c, http.StatusUnprocessableEntity)
			return
		}
		drink.Recipe = recipe
	}

	if err := drink.Validate(); err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity)
		return
	}
	if err := h.store.Update(c.Request.Context(), drink); err != nil {
		h.writeStoreError(c, "update", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": []models.Drink{drink.Long()}})
}

func (h *Handler) DeleteDrink(c *gin.Context) {
	id, ok := drinkID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeStoreError(c, "delete", err)
		return
	}

	h.logger.Info("Drink deleted", logger.Int("id", id))
	c.JSON(http.StatusOK, gin.H{"success": true, "delete": id})
}

// drinkID parses the :id parameter. Anything but a positive integer cannot
// name a drink, so it is reported as not found.
func drinkID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		abortWithStatus(c, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeStoreError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		abortWithStatus(c, http.StatusNotFound)
	case errors.Is(err, database.ErrDuplicateTitle):
		abortWithStatus(c, http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Drink store failed", logger.String("op", op), logger.Error(err))
		_ = c.Error(err)
		abortWithStatus(c, http.StatusInternalServerError)
	}
}
