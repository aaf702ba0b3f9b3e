package models

type AttributeType string

const (
	AttributeSelect AttributeType = "select"
	AttributeColor  AttributeType = "color"
	AttributeText   AttributeType = "text"
)

// Attribute est un axe de variation d'un produit (couleur, taille...).
// L'ordre des options est significatif : il fixe l'ordre des variantes générées.
type Attribute struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Type    AttributeType `json:"type"`
	Options []Option      `json:"options"`
}

// Option est une valeur possible d'un attribut. Une option désactivée reste
// affichée mais n'entre pas dans la génération des variantes.
type Option struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// AttributeValue est un élément du tuple d'une variante.
type AttributeValue struct {
	AttributeID   string        `json:"attributeId"`
	AttributeType AttributeType `json:"attributeType"`
	Label         string        `json:"label"`
	Value         string        `json:"value"`
}
