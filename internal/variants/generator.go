package variants

import (
	"cedra_admin/internal/models"
)

// Generate construit le produit cartésien des options, attribut par attribut.
//
// On part d'un tuple vide, puis chaque attribut (dans l'ordre reçu) multiplie
// les tuples partiels par ses options (dans leur ordre). L'ordre de sortie est
// donc lexicographique : il fixe l'index positionnel de chaque variante.
// Sans attribut, on obtient un unique tuple vide ; un attribut sans option
// donne zéro tuple.
func Generate(attrs []models.Attribute) [][]models.AttributeValue {
	acc := [][]models.AttributeValue{{}}

	for _, attr := range attrs {
		next := make([][]models.AttributeValue, 0, len(acc)*len(attr.Options))
		for _, partial := range acc {
			for _, opt := range attr.Options {
				tuple := make([]models.AttributeValue, len(partial), len(partial)+1)
				copy(tuple, partial)
				tuple = append(tuple, models.AttributeValue{
					AttributeID:   attr.ID,
					AttributeType: attr.Type,
					Label:         opt.Label,
					Value:         opt.Value,
				})
				next = append(next, tuple)
			}
		}
		acc = next
	}

	return acc
}

// Count renvoie le nombre de variantes que Generate produira.
func Count(attrs []models.Attribute) int {
	n := 1
	for _, attr := range attrs {
		n *= len(attr.Options)
	}
	return n
}

// SelectEnabled ne garde que les options actives de chaque attribut.
// Les attributs d'origine ne sont pas modifiés.
func SelectEnabled(attrs []models.Attribute) []models.Attribute {
	out := make([]models.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		kept := attr
		kept.Options = make([]models.Option, 0, len(attr.Options))
		for _, opt := range attr.Options {
			if !opt.Disabled {
				kept.Options = append(kept.Options, opt)
			}
		}
		out = append(out, kept)
	}
	return out
}
