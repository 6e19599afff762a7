package root

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bear-san/coffee-shop/internal/models"
)

func newDrinksCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drinks",
		Short: "Browse and edit the drinks menu",
	}
	cmd.AddCommand(
		newDrinksListCommand(a),
		newDrinksCreateCommand(a),
		newDrinksUpdateCommand(a),
		newDrinksDeleteCommand(a),
	)
	return cmd
}

func newDrinksListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drinks; recipes are shown in full with get:drinks-detail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.api()
			if err != nil {
				return err
			}
			drinks, err := svc.List(cmd.Context())
			if err != nil {
				return explain(err)
			}
			renderDrinks(cmd, drinks)
			return nil
		},
	}
}

func newDrinksCreateCommand(a *app) *cobra.Command {
	var title, recipe string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a drink (needs post:drinks)",
		Example: `  coffeeshop drinks create --title latte \
    --recipe '[{"name":"milk","color":"white","parts":3},{"name":"coffee","color":"brown","parts":1}]'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ingredients, err := models.ParseRecipe([]byte(recipe))
			if err != nil {
				return err
			}
			drink := models.Drink{Title: title, Recipe: ingredients}
			if err := drink.Validate(); err != nil {
				return err
			}

			svc, err := a.api()
			if err != nil {
				return err
			}
			saved, err := svc.Save(cmd.Context(), drink)
			if err != nil {
				return explain(err)
			}
			renderDrinks(cmd, []models.Drink{*saved})
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Drink title")
	cmd.Flags().StringVar(&recipe, "recipe", "", "Recipe as a JSON ingredient or array of ingredients")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("recipe")
	return cmd
}

func newDrinksUpdateCommand(a *app) *cobra.Command {
	var title, recipe string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a drink's title or recipe (needs patch:drinks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDrinkID(args[0])
			if err != nil {
				return err
			}

			var newTitle *string
			if cmd.Flags().Changed("title") {
				newTitle = &title
			}
			var ingredients []models.Ingredient
			if cmd.Flags().Changed("recipe") {
				if ingredients, err = models.ParseRecipe([]byte(recipe)); err != nil {
					return err
				}
			}
			if newTitle == nil && ingredients == nil {
				return fmt.Errorf("nothing to update: pass --title or --recipe")
			}

			svc, err := a.api()
			if err != nil {
				return err
			}
			saved, err := svc.Client().UpdateDrink(cmd.Context(), id, newTitle, ingredients)
			if err != nil {
				return explain(err)
			}
			renderDrinks(cmd, []models.Drink{*saved})
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&recipe, "recipe", "", "New recipe as JSON")
	return cmd
}

func newDrinksDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a drink (needs delete:drinks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDrinkID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.api()
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), id); err != nil {
				return explain(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted drink %d\n", id)
			return err
		},
	}
}

func parseDrinkID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid drink id %q", s)
	}
	return id, nil
}

func renderDrinks(cmd *cobra.Command, drinks []models.Drink) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Recipe"})

	for _, d := range drinks {
		parts := make([]string, 0, len(d.Recipe))
		for _, ing := range d.Recipe {
			name := ing.Name
			if name == "" {
				name = ing.Color
			}
			parts = append(parts, fmt.Sprintf("%d x %s", ing.Parts, name))
		}
		t.AppendRow(table.Row{d.ID, d.Title, strings.Join(parts, "\n")})
	}
	t.Render()
}
