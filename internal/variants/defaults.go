package variants

import (
	"github.com/shopspring/decimal"

	"cedra_admin/internal/models"
)

// Build régénère toutes les lignes de variantes à partir des attributs
// sélectionnés. Les anciennes lignes sont abandonnées : pas de diff.
// Chaque ligne est activée, au prix de base, sans remise et sans stock.
func Build(attrs []models.Attribute, basePrice decimal.Decimal) []models.Variant {
	tuples := Generate(SelectEnabled(attrs))

	rows := make([]models.Variant, 0, len(tuples))
	for _, tuple := range tuples {
		rows = append(rows, models.Variant{
			AttributeValues: tuple,
			Status:          true,
			Price:           basePrice,
			DiscountedPrice: basePrice,
			Stock:           0,
		})
	}
	return rows
}

// Normalize applique les valeurs par défaut d'une ligne saisie :
// le prix remisé vaut le prix catalogue s'il n'est pas renseigné.
func Normalize(v *models.Variant) {
	if v.DiscountedPrice.IsZero() {
		v.DiscountedPrice = v.Price
	}
	if v.Stock < 0 {
		v.Stock = 0
	}
}
