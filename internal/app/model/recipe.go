package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is immutable once published; the catalog importer owns writes.
type Recipe struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Title      string    `gorm:"type:text;not null" json:"title"`
	Category   string    `gorm:"type:varchar(50)" json:"category"`
	PrepTime   int       `json:"prep_time"`   // minutes
	Difficulty int       `json:"difficulty"`  // 1-3
	SpiceLevel int       `json:"spice_level"` // 0-3
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Lines []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"lines,omitempty"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient is one ingredient line of a recipe. Quantity is expressed
// in the referenced ingredient's native unit.
type RecipeIngredient struct {
	RecipeID     uint            `gorm:"primarykey" json:"recipe_id"`
	IngredientID uint            `gorm:"primarykey" json:"ingredient_id"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`

	// Relationships
	Recipe     Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Ingredient Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
