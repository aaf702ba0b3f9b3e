package forms

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationPayload attribue une quantité d'une variante à un concessionnaire.
// VariantIndex est la position de la variante dans la liste du produit.
type AllocationPayload struct {
	DealerID     string `json:"dealerId" validate:"required"`
	ProductID    string `json:"productId" validate:"required"`
	VariantIndex int    `json:"variantIndex" validate:"min=0"`
	Quantity     int    `json:"quantity" validate:"min=1,max=100000"`
}

func (p AllocationPayload) Fields() (map[string]string, error) {
	return map[string]string{
		"dealerId":     p.DealerID,
		"productId":    p.ProductID,
		"variantIndex": strconv.Itoa(p.VariantIndex),
		"quantity":     strconv.Itoa(p.Quantity),
	}, nil
}

func AllocationFromFields(get func(string) string) (AllocationPayload, error) {
	p := AllocationPayload{DealerID: get("dealerId"), ProductID: get("productId")}
	var err error
	if p.VariantIndex, err = atoi(get("variantIndex")); err != nil {
		return p, fmt.Errorf("variantIndex: %w", err)
	}
	if p.Quantity, err = atoi(get("quantity")); err != nil {
		return p, fmt.Errorf("quantity: %w", err)
	}
	return p, nil
}

// PricingPayload fixe le prix d'une variante pour un concessionnaire.
type PricingPayload struct {
	DealerID        string          `json:"dealerId" validate:"required"`
	ProductID       string          `json:"productId" validate:"required"`
	VariantIndex    int             `json:"variantIndex" validate:"min=0"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
}

func (p PricingPayload) check(fe FieldErrors) {
	if !p.Price.IsPositive() {
		fe.Add("price", "Le prix doit être supérieur à zéro.")
	}
	if p.DiscountedPrice.IsNegative() {
		fe.Add("discountedPrice", "Le prix remisé ne peut pas être négatif.")
	}
	if p.DiscountedPrice.GreaterThan(p.Price) {
		fe.Add("discountedPrice", "Le prix remisé dépasse le prix catalogue.")
	}
}

func (p PricingPayload) Fields() (map[string]string, error) {
	discounted := p.DiscountedPrice
	if discounted.IsZero() {
		discounted = p.Price
	}
	return map[string]string{
		"dealerId":        p.DealerID,
		"productId":       p.ProductID,
		"variantIndex":    strconv.Itoa(p.VariantIndex),
		"price":           p.Price.String(),
		"discountedPrice": discounted.String(),
	}, nil
}

func PricingFromFields(get func(string) string) (PricingPayload, error) {
	p := PricingPayload{DealerID: get("dealerId"), ProductID: get("productId")}
	var err error
	if p.VariantIndex, err = atoi(get("variantIndex")); err != nil {
		return p, fmt.Errorf("variantIndex: %w", err)
	}
	if p.Price, err = decimalField(get("price")); err != nil {
		return p, fmt.Errorf("price: %w", err)
	}
	if p.DiscountedPrice, err = decimalField(get("discountedPrice")); err != nil {
		return p, fmt.Errorf("discountedPrice: %w", err)
	}
	if p.DiscountedPrice.IsZero() {
		p.DiscountedPrice = p.Price
	}
	return p, nil
}

type PromotionPayload struct {
	Name            string    `json:"name" validate:"required,max=120"`
	Code            string    `json:"code" validate:"required,alphanum,max=32"`
	DiscountPercent int       `json:"discountPercent" validate:"min=1,max=100"`
	StartsAt        time.Time `json:"startsAt" validate:"required"`
	EndsAt          time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

func (p PromotionPayload) Fields() (map[string]string, error) {
	return map[string]string{
		"name":            p.Name,
		"code":            p.Code,
		"discountPercent": strconv.Itoa(p.DiscountPercent),
		"startsAt":        p.StartsAt.Format(time.RFC3339),
		"endsAt":          p.EndsAt.Format(time.RFC3339),
	}, nil
}

func PromotionFromFields(get func(string) string) (PromotionPayload, error) {
	p := PromotionPayload{Name: get("name"), Code: get("code")}
	var err error
	if p.DiscountPercent, err = atoi(get("discountPercent")); err != nil {
		return p, fmt.Errorf("discountPercent: %w", err)
	}
	if p.StartsAt, err = timeField(get("startsAt")); err != nil {
		return p, fmt.Errorf("startsAt: %w", err)
	}
	if p.EndsAt, err = timeField(get("endsAt")); err != nil {
		return p, fmt.Errorf("endsAt: %w", err)
	}
	return p, nil
}

type DealerPayload struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=6,max=20"`
	City  string `json:"city" validate:"max=80"`
}

func (p DealerPayload) Fields() (map[string]string, error) {
	return map[string]string{
		"name":  p.Name,
		"email": p.Email,
		"phone": p.Phone,
		"city":  p.City,
	}, nil
}

func DealerFromFields(get func(string) string) (DealerPayload, error) {
	return DealerPayload{
		Name:  get("name"),
		Email: get("email"),
		Phone: get("phone"),
		City:  get("city"),
	}, nil
}

func atoi(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func decimalField(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func timeField(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
