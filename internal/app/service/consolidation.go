package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/shopspring/decimal"
)

// ErrCorruptTotal reports a zero or negative consolidated quantity. Cart and
// catalog invariants make every total positive, so this is upstream data
// corruption, never user error.
var ErrCorruptTotal = errors.New("consolidated quantity is zero or negative")

// ShoppingList is the consolidated output of a checkout: category groups in
// ascending label order, each holding line items sorted case-insensitively
// by food name.
type ShoppingList struct {
	Groups []CategoryGroup `json:"groups"`
}

type CategoryGroup struct {
	Category string             `json:"category"`
	Items    []ShoppingListItem `json:"items"`
}

type ShoppingListItem struct {
	FoodName string `json:"food_name"`
	Unit     string `json:"unit"`     // canonical unit for the food type
	Quantity string `json:"quantity"` // rendered, see FormatQuantity
}

// IngredientLine is one ingredient demand of a recipe, quantity in the
// ingredient's native unit.
type IngredientLine struct {
	Ingredient model.Ingredient
	Quantity   decimal.Decimal
}

// ResolvedConversion is the (canonical unit, factor) pair an ingredient's
// conversion reference resolves to.
type ResolvedConversion struct {
	CanonicalUnit string
	Factor        decimal.Decimal
}

// CatalogIndex is the read-only catalog view the consolidation engine
// consumes.
type CatalogIndex interface {
	GetRecipeIngredients(recipeID uint) ([]IngredientLine, error)
	ResolveConversion(ingredientID uint) (ResolvedConversion, error)
}

// Consolidate merges the ingredient demand of every cart entry into one
// shopping list. For each recipe line the effective demand is
// recipe_quantity * cart_quantity * conversion_factor, summed by
// (food_name, canonical_unit) and grouped by category label. All arithmetic
// is exact decimal; the function mutates nothing and is deterministic for
// identical input.
func Consolidate(entries []model.RecipeCartEntry, catalog CatalogIndex) (*ShoppingList, error) {
	type itemKey struct {
		foodName string
		unit     string
	}
	type itemTotal struct {
		foodName string
		unit     string
		category string
		total    decimal.Decimal
	}

	totals := make(map[itemKey]*itemTotal)

	for _, entry := range entries {
		lines, err := catalog.GetRecipeIngredients(entry.RecipeID)
		if err != nil {
			return nil, err
		}

		for _, line := range lines {
			conv, err := catalog.ResolveConversion(line.Ingredient.ID)
			if err != nil {
				return nil, err
			}

			demand := line.Quantity.Mul(entry.Quantity).Mul(conv.Factor)

			key := itemKey{foodName: line.Ingredient.FoodName, unit: conv.CanonicalUnit}
			if item, ok := totals[key]; ok {
				item.total = item.total.Add(demand)
			} else {
				totals[key] = &itemTotal{
					foodName: line.Ingredient.FoodName,
					unit:     conv.CanonicalUnit,
					category: line.Ingredient.Category.CategoryLabel,
					total:    demand,
				}
			}
		}
	}

	byCategory := make(map[string][]*itemTotal)
	for _, item := range totals {
		if item.total.Sign() <= 0 {
			return nil, ErrCorruptTotal
		}
		byCategory[item.category] = append(byCategory[item.category], item)
	}

	labels := make([]string, 0, len(byCategory))
	for label := range byCategory {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	list := &ShoppingList{Groups: make([]CategoryGroup, 0, len(labels))}
	for _, label := range labels {
		items := byCategory[label]
		sort.Slice(items, func(i, j int) bool {
			return strings.ToLower(items[i].foodName) < strings.ToLower(items[j].foodName)
		})

		group := CategoryGroup{Category: label, Items: make([]ShoppingListItem, 0, len(items))}
		for _, item := range items {
			group.Items = append(group.Items, ShoppingListItem{
				FoodName: strings.ToLower(item.foodName),
				Unit:     strings.ToLower(item.unit),
				Quantity: FormatQuantity(item.total),
			})
		}
		list.Groups = append(list.Groups, group)
	}

	return list, nil
}

// FormatQuantity renders a quantity with at most two fraction digits,
// stripping trailing zeros and a bare trailing point: 2.50 -> "2.5",
// 3.00 -> "3". A negative zero normalizes to "0".
func FormatQuantity(q decimal.Decimal) string {
	s := strings.TrimRight(q.StringFixed(2), "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}
