package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Variant est une combinaison achetable : une option par attribut sélectionné.
// Les allocations et les prix la référencent par sa position dans la liste
// générée, pas par un identifiant stable.
type Variant struct {
	AttributeValues []AttributeValue `json:"attributeValue"`
	Status          bool             `json:"status"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice decimal.Decimal  `json:"discountedPrice"`
	Stock           int              `json:"stock"`
}

// Label renvoie les libellés du tuple joints par " / ".
func (v Variant) Label() string {
	if len(v.AttributeValues) == 0 {
		return "Défaut"
	}
	labels := make([]string, 0, len(v.AttributeValues))
	for _, av := range v.AttributeValues {
		labels = append(labels, av.Label)
	}
	return strings.Join(labels, " / ")
}
