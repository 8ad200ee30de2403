package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCartName is used when a cart is created without a display name.
const DefaultCartName = "Untitled Cart"

// Cart is a named, owned collection of (recipe, quantity) entries. Once
// IsComplete flips to true the cart is historical and read-only; there is no
// un-checkout. Whether a cart is the user's active cart is session state,
// tracked outside this entity.
type Cart struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Name       string    `gorm:"type:text;not null" json:"name"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	IsComplete bool      `gorm:"not null;default:false" json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	User    User              `gorm:"foreignKey:UserID" json:"-"`
	Entries []RecipeCartEntry `gorm:"foreignKey:CartID" json:"entries,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.Name == "" {
		c.Name = DefaultCartName
	}
	return nil
}

// RecipeCartEntry pairs a recipe with a quantity inside one cart. One entry
// per distinct recipe per cart; quantity is a positive decimal.
type RecipeCartEntry struct {
	RecipeID uint            `gorm:"primarykey" json:"recipe_id"`
	CartID   uint            `gorm:"primarykey" json:"cart_id"`
	Quantity decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`

	// Relationships
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"recipe,omitempty"`
	Cart   Cart   `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RecipeCartEntry) TableName() string {
	return "recipe_cart_entries"
}
