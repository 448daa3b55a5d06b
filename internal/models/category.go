package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products. Categories may be nested one level or more through ParentID.
type Category struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string     `json:"name" gorm:"type:varchar(100);not null"`
	Slug         string     `json:"slug" gorm:"uniqueIndex;type:varchar(150);not null"`
	Description  string     `json:"description,omitempty" gorm:"type:text"`
	Image        string     `json:"image,omitempty" gorm:"type:varchar(500)"`
	ParentID     *string    `json:"parent_id,omitempty" gorm:"type:varchar(36);index"`
	Parent       *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children     []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Products     []Product  `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
	ProductCount int64      `json:"product_count" gorm:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
