package apiclient

import (
	"context"

	"github.com/bear-san/coffee-shop/internal/models"
)

const permissionDrinksDetail = "get:drinks-detail"

// PermissionChecker reports whether the current session holds a permission.
type PermissionChecker interface {
	Can(permission string) bool
}

// DrinksService picks endpoints from the session's permissions.
type DrinksService struct {
	client *Client
	perms  PermissionChecker
}

func NewDrinksService(c *Client, perms PermissionChecker) *DrinksService {
	return &DrinksService{client: c, perms: perms}
}

// List returns full recipes when the session may read them, and the
// public short form otherwise.
func (s *DrinksService) List(ctx context.Context) ([]models.Drink, error) {
	if s.perms != nil && s.perms.Can(permissionDrinksDetail) {
		return s.client.DrinksDetail(ctx)
	}
	return s.client.Drinks(ctx)
}

// Save updates d when it has an id and creates it otherwise.
func (s *DrinksService) Save(ctx context.Context, d models.Drink) (*models.Drink, error) {
	if d.ID > 0 {
		title := d.Title
		return s.client.UpdateDrink(ctx, d.ID, &title, d.Recipe)
	}
	return s.client.CreateDrink(ctx, d)
}

func (s *DrinksService) Delete(ctx context.Context, id int) error {
	return s.client.DeleteDrink(ctx, id)
}

// Client returns the underlying API client.
func (s *DrinksService) Client() *Client {
	return s.client
}
