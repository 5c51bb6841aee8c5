package model

import (
	"time"

	"gorm.io/gorm"
)

// Category groups catalog products
type Category struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Product represents a catalog entry. Price is in the smallest currency unit.
type Product struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	CategoryID *uint          `json:"category_id,omitempty" gorm:"index"`
	Category   *Category      `json:"category,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Name       string         `json:"name" gorm:"type:varchar(300);not null"`
	SKU        string         `json:"sku" gorm:"type:varchar(50);uniqueIndex;not null"`
	Price      int64          `json:"price" gorm:"not null;check:price >= 0"`
	Reference  string         `json:"reference" gorm:"type:varchar(300);not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
