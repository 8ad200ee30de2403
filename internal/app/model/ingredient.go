package model

import "time"

// Ingredient identifies a purchasable food in a specific native unit.
// The same food name may appear under several units ("chicken breast" in
// "ounces" vs "whole"); the (food_name, unit) pair is unique. Every
// ingredient is bound at data-entry time to exactly one conversion row that
// translates its native unit into the canonical unit of its food type.
type Ingredient struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	FoodName     string    `gorm:"type:text;not null;uniqueIndex:idx_ingredients_name_unit" json:"food_name"`
	Unit         string    `gorm:"type:text;not null;uniqueIndex:idx_ingredients_name_unit" json:"unit"`
	CategoryID   uint      `gorm:"not null;index" json:"category_id"`
	ConversionID uint      `gorm:"not null;index" json:"conversion_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Category   Category   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Conversion Conversion `gorm:"foreignKey:ConversionID" json:"-"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
