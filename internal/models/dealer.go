package models

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
)

type Dealer struct {
	ID        gocql.UUID `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	City      string     `json:"city"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Allocation attribue du stock d'une variante à un concessionnaire.
// VariantIndex est la position de la variante dans Product.Variants.
type Allocation struct {
	ID           gocql.UUID `json:"id"`
	DealerID     string     `json:"dealerId"`
	ProductID    string     `json:"productId"`
	VariantIndex int        `json:"variantIndex"`
	Quantity     int        `json:"quantity"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// DealerPrice est un prix spécifique à un concessionnaire pour une variante.
type DealerPrice struct {
	ID              gocql.UUID      `json:"id"`
	DealerID        string          `json:"dealerId"`
	ProductID       string          `json:"productId"`
	VariantIndex    int             `json:"variantIndex"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Promotion struct {
	ID              gocql.UUID `json:"id"`
	Name            string     `json:"name"`
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discountPercent"`
	StartsAt        time.Time  `json:"startsAt"`
	EndsAt          time.Time  `json:"endsAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}
