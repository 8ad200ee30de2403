package model

import "github.com/shopspring/decimal"

// Conversion translates one native unit into the canonical unit used for a
// food type, by a single multiplication. No conversion graph exists: each
// ingredient resolves exactly one row, one hop. ConversionFactor is > 0.
type Conversion struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	UnitFrom         string          `gorm:"type:text;not null" json:"unit_from"`
	UnitTo           string          `gorm:"type:text;not null" json:"unit_to"`
	FoodType         string          `gorm:"type:text;not null" json:"food_type"`
	ConversionFactor decimal.Decimal `gorm:"type:numeric;not null" json:"conversion_factor"`
}

func (Conversion) TableName() string {
	return "conversions"
}
