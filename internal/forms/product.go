package forms

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"cedra_admin/internal/models"
)

// ProductPayload est le formulaire de création/édition d'un produit.
type ProductPayload struct {
	ProductID   string             `json:"productId"`
	Name        string             `json:"name" validate:"required,max=200"`
	Slug        string             `json:"slug" validate:"required,max=200"`
	Description string             `json:"description" validate:"max=5000"`
	BasePrice   decimal.Decimal    `json:"basePrice"`
	CategoryID  string             `json:"categoryId" validate:"required"`
	Attributes  []models.Attribute `json:"attributes"`
	Variants    []models.Variant   `json:"variants"`
	Images      []string           `json:"images" validate:"min=1,dive,required"`
}

func (p ProductPayload) check(fe FieldErrors) {
	if p.BasePrice.IsNegative() {
		fe.Add("basePrice", "Le prix ne peut pas être négatif.")
	}
	if len(p.Variants) == 0 {
		fe.Add("variants", "Au moins une variante est requise.")
	}
	for i, v := range p.Variants {
		key := fmt.Sprintf("variants[%d]", i)
		if v.Price.IsNegative() {
			fe.Add(key+".price", "Le prix ne peut pas être négatif.")
		}
		if v.DiscountedPrice.GreaterThan(v.Price) {
			fe.Add(key+".discountedPrice", "Le prix remisé dépasse le prix catalogue.")
		}
		if v.Stock < 0 {
			fe.Add(key+".stock", "Le stock ne peut pas être négatif.")
		}
	}
}

// Fields produit les champs multipart attendus par l'API : les listes sont
// encodées en JSON, images dans l'ordre d'affichage.
func (p ProductPayload) Fields() (map[string]string, error) {
	attrs, err := json.Marshal(nonNil(p.Attributes))
	if err != nil {
		return nil, fmt.Errorf("encodage attributes: %w", err)
	}
	variants, err := json.Marshal(nonNil(p.Variants))
	if err != nil {
		return nil, fmt.Errorf("encodage variants: %w", err)
	}
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return nil, fmt.Errorf("encodage images: %w", err)
	}

	fields := map[string]string{
		"name":        p.Name,
		"slug":        p.Slug,
		"description": p.Description,
		"basePrice":   p.BasePrice.String(),
		"categoryId":  p.CategoryID,
		"attributes":  string(attrs),
		"variants":    string(variants),
		"images":      string(images),
	}
	if p.ProductID != "" {
		fields["productId"] = p.ProductID
	}
	return fields, nil
}

// ProductFromFields relit un formulaire multipart côté serveur.
func ProductFromFields(get func(string) string) (ProductPayload, error) {
	p := ProductPayload{
		ProductID:   get("productId"),
		Name:        get("name"),
		Slug:        get("slug"),
		Description: get("description"),
		CategoryID:  get("categoryId"),
	}

	if raw := get("basePrice"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return p, fmt.Errorf("basePrice: %w", err)
		}
		p.BasePrice = price
	}
	if err := decodeJSONField(get("attributes"), &p.Attributes); err != nil {
		return p, fmt.Errorf("attributes: %w", err)
	}
	if err := decodeJSONField(get("variants"), &p.Variants); err != nil {
		return p, fmt.Errorf("variants: %w", err)
	}
	if err := decodeJSONField(get("images"), &p.Images); err != nil {
		return p, fmt.Errorf("images: %w", err)
	}
	return p, nil
}

func decodeJSONField(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
