package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/bear-san/coffee-shop/internal/models"
)

var (
	// ErrNotFound is returned when no drink has the requested id.
	ErrNotFound = errors.New("drink not found")
	// ErrDuplicateTitle is returned when another drink already uses the title.
	ErrDuplicateTitle = errors.New("drink title already exists")
)

type drinkRow struct {
	ID     int    `db:"id"`
	Title  string `db:"title"`
	Recipe string `db:"recipe"`
}

func (r drinkRow) toModel() (*models.Drink, error) {
	var recipe []models.Ingredient
	if err := json.Unmarshal([]byte(r.Recipe), &recipe); err != nil {
		return nil, fmt.Errorf("decode recipe of drink %d: %w", r.ID, err)
	}
	return &models.Drink{ID: r.ID, Title: r.Title, Recipe: recipe}, nil
}

// DrinkRepository handles database operations for drinks.
type DrinkRepository struct {
	db *sqlx.DB
}

// NewDrinkRepository creates a new drink repository.
func NewDrinkRepository(db *sqlx.DB) *DrinkRepository {
	return &DrinkRepository{db: db}
}

// List returns every drink ordered by id.
func (r *DrinkRepository) List(ctx context.Context) ([]*models.Drink, error) {
	var rows []drinkRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT id, title, recipe FROM drinks ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}

	drinks := make([]*models.Drink, 0, len(rows))
	for _, row := range rows {
		d, err := row.toModel()
		if err != nil {
			return nil, err
		}
		drinks = append(drinks, d)
	}
	return drinks, nil
}

// Get returns the drink with the given id.
func (r *DrinkRepository) Get(ctx context.Context, id int) (*models.Drink, error) {
	var row drinkRow
	err := r.db.GetContext(ctx, &row, "SELECT id, title, recipe FROM drinks WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get drink %d: %w", id, err)
	}
	return row.toModel()
}

// Create inserts d and sets its ID.
func (r *DrinkRepository) Create(ctx context.Context, d *models.Drink) error {
	recipe, err := json.Marshal(d.Recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}

	res, err := r.db.ExecContext(ctx, "INSERT INTO drinks (title, recipe) VALUES (?, ?)", d.Title, string(recipe))
	if err != nil {
		return wrapWriteError("create drink", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read drink id: %w", err)
	}
	d.ID = int(id)
	return nil
}

// Update stores the title and recipe of an existing drink.
func (r *DrinkRepository) Update(ctx context.Context, d *models.Drink) error {
	recipe, err := json.Marshal(d.Recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}

	res, err := r.db.ExecContext(ctx, "UPDATE drinks SET title = ?, recipe = ? WHERE id = ?", d.Title, string(recipe), d.ID)
	if err != nil {
		return wrapWriteError("update drink", err)
	}
	return expectOneRow(res)
}

// Delete removes the drink with the given id.
func (r *DrinkRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM drinks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete drink %d: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func wrapWriteError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrDuplicateTitle
	}
	return fmt.Errorf("%s: %w", op, err)
}
