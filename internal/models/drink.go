package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDrink is returned when a drink fails validation.
var ErrInvalidDrink = errors.New("invalid drink")

// Ingredient is one part of a drink recipe.
type Ingredient struct {
	Name  string `json:"name,omitempty"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// Drink is a menu item.
type Drink struct {
	ID     int          `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

// Short is the public representation: ingredient names are hidden.
func (d Drink) Short() Drink {
	recipe := make([]Ingredient, len(d.Recipe))
	for i, ing := range d.Recipe {
		recipe[i] = Ingredient{Color: ing.Color, Parts: ing.Parts}
	}
	return Drink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long is the full representation.
func (d Drink) Long() Drink {
	recipe := make([]Ingredient, len(d.Recipe))
	copy(recipe, d.Recipe)
	return Drink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Validate checks the fields required to store a drink.
func (d Drink) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDrink)
	}
	if len(d.Recipe) == 0 {
		return fmt.Errorf("%w: recipe is required", ErrInvalidDrink)
	}
	for i, ing := range d.Recipe {
		if ing.Name == "" || ing.Color == "" {
			return fmt.Errorf("%w: ingredient %d needs a name and a color", ErrInvalidDrink, i)
		}
		if ing.Parts < 1 {
			return fmt.Errorf("%w: ingredient %d needs at least one part", ErrInvalidDrink, i)
		}
	}
	return nil
}

// ParseRecipe accepts either a single ingredient object or an array of them.
func ParseRecipe(raw json.RawMessage) ([]Ingredient, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		var one Ingredient
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDrink, err)
		}
		return []Ingredient{one}, nil
	}

	var many []Ingredient
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDrink, err)
	}
	return many, nil
}
