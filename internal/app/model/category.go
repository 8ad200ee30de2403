package model

// Category is the grouping key for shopping list sections ("Produce",
// "Meat & Poultry", ...). Pure label, no behavior.
type Category struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	CategoryLabel string `gorm:"type:text;not null;uniqueIndex" json:"category_label"`
}

func (Category) TableName() string {
	return "categories"
}
