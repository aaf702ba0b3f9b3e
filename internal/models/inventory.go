package models

import (
	"time"

	"github.com/gocql/gocql"
)

// StockMovement trace chaque variation du stock d'une variante.
type StockMovement struct {
	ID           gocql.UUID `json:"id"`
	ProductID    string     `json:"productId"`
	VariantIndex int        `json:"variantIndex"`
	Type         string     `json:"type"` // "allocation", "adjustment"
	Quantity     int        `json:"quantity"`
	PrevStock    int        `json:"prevStock"`
	NewStock     int        `json:"newStock"`
	Reason       string     `json:"reason"`
	CreatedAt    time.Time  `json:"createdAt"`
}

const (
	MovementAllocation = "allocation"
	MovementAdjustment = "adjustment"
)
