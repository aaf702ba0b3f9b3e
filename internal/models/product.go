package models

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          gocql.UUID      `json:"id" db:"product_id"`
	Name        string          `json:"name" db:"name"`
	Slug        string          `json:"slug" db:"slug"`
	Description string          `json:"description" db:"description"`
	BasePrice   decimal.Decimal `json:"basePrice" db:"base_price"`
	CategoryID  string          `json:"categoryId" db:"category_id"`
	Attributes  []Attribute     `json:"attributes" db:"attributes"`
	Variants    []Variant       `json:"variants" db:"variants"`
	ImageURLs   []string        `json:"images" db:"image_urls"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	HasVariants bool            `json:"hasVariants" db:"has_variants"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}
