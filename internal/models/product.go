package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store.
type Product struct {
	ID          string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string              `json:"name" gorm:"type:varchar(200);not null"`
	Slug        string              `json:"slug" gorm:"uniqueIndex;type:varchar(255);not null"`
	Description string              `json:"description,omitempty" gorm:"type:text"`
	Price       decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	SalePrice   decimal.NullDecimal `json:"sale_price" gorm:"type:decimal(10,2)"`
	Stock       int                 `json:"stock" gorm:"not null;default:0"`
	Images      []string            `json:"images" gorm:"serializer:json;type:text"`
	Sizes       []string            `json:"sizes" gorm:"serializer:json;type:text"`
	Colors      []string            `json:"colors" gorm:"serializer:json;type:text"`
	Featured    bool                `json:"featured" gorm:"not null;default:false"`
	Active      bool                `json:"active" gorm:"not null"`
	CategoryID  *string             `json:"category_id,omitempty" gorm:"type:varchar(36);index"`
	Category    *Category           `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// EffectivePrice is the price a buyer pays right now: the sale price when it is
// set and undercuts the base price, the base price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid && !p.SalePrice.Decimal.IsNegative() && p.SalePrice.Decimal.LessThan(p.Price) {
		return p.SalePrice.Decimal
	}
	if p.Price.IsNegative() {
		return decimal.Zero
	}
	return p.Price
}
