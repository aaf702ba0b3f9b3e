package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cedra_admin/internal/forms"
	"cedra_admin/internal/models"
)

// VariantSource liste les variantes d'un produit, dans leur ordre de génération.
type VariantSource interface {
	ProductVariants(ctx context.Context, productID string) ([]models.Variant, error)
}

// Choice est une entrée du sélecteur de variante.
type Choice struct {
	Index   int
	Label   string
	Stock   int
	Enabled bool
}

var errNoProduct = errors.New("aucun produit sélectionné")

// variantPicker charge les variantes du produit choisi. L'index d'une variante
// est sa position dans la liste renvoyée par le serveur.
type variantPicker struct {
	mu        sync.Mutex
	source    VariantSource
	productID string
	variants  []models.Variant
}

// LoadVariants remplace la liste par celle du produit donné.
func (p *variantPicker) LoadVariants(ctx context.Context, productID string) ([]Choice, error) {
	vs, err := p.source.ProductVariants(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("chargement des variantes de %s: %w", productID, err)
	}

	p.mu.Lock()
	p.productID = productID
	p.variants = vs
	p.mu.Unlock()
	return p.Choices(), nil
}

func (p *variantPicker) Choices() []Choice {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Choice, len(p.variants))
	for i, v := range p.variants {
		out[i] = Choice{Index: i, Label: v.Label(), Stock: v.Stock, Enabled: v.Status}
	}
	return out
}

// checkVariant vérifie que l'index désigne une variante active du produit chargé.
func (p *variantPicker) checkVariant(productID string, index int, fe forms.FieldErrors) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.productID == "" || productID != p.productID {
		fe.Add("productId", "Chargez d'abord les variantes de ce produit.")
		return
	}
	if index < 0 || index >= len(p.variants) {
		fe.Add("variantIndex", "Variante inconnue.")
		return
	}
	if !p.variants[index].Status {
		fe.Add("variantIndex", "Cette variante est désactivée.")
	}
}

// AllocationAPI regroupe les appels du formulaire d'allocation.
type AllocationAPI interface {
	VariantSource
	SubmitAllocation(ctx context.Context, p forms.AllocationPayload) (string, error)
}

// AllocationForm alloue du stock d'une variante à un revendeur.
type AllocationForm struct {
	variantPicker
	send *SimpleForm[forms.AllocationPayload]
}

func NewAllocationForm(api AllocationAPI, notify Notifier) *AllocationForm {
	f := &AllocationForm{variantPicker: variantPicker{source: api}}
	f.send = NewSimpleForm(notify, "Allocation enregistrée", api.SubmitAllocation)
	f.send.extra = func(p forms.AllocationPayload, fe forms.FieldErrors) {
		f.checkVariant(p.ProductID, p.VariantIndex, fe)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, bad := fe["variantIndex"]; !bad && p.VariantIndex < len(f.variants) && p.Quantity > f.variants[p.VariantIndex].Stock {
			fe.Add("quantity", fmt.Sprintf("Stock insuffisant (%d disponibles).", f.variants[p.VariantIndex].Stock))
		}
	}
	return f
}

func (f *AllocationForm) Submit(ctx context.Context, p forms.AllocationPayload) (string, error) {
	return f.send.Submit(ctx, p)
}

// PricingAPI regroupe les appels du formulaire de tarif revendeur.
type PricingAPI interface {
	VariantSource
	SubmitPricing(ctx context.Context, p forms.PricingPayload) (string, error)
}

// PricingForm fixe le prix d'une variante pour un revendeur.
type PricingForm struct {
	variantPicker
	send *SimpleForm[forms.PricingPayload]
}

func NewPricingForm(api PricingAPI, notify Notifier) *PricingForm {
	f := &PricingForm{variantPicker: variantPicker{source: api}}
	f.send = NewSimpleForm(notify, "Tarif enregistré", api.SubmitPricing)
	f.send.extra = func(p forms.PricingPayload, fe forms.FieldErrors) {
		f.checkVariant(p.ProductID, p.VariantIndex, fe)
	}
	return f
}

func (f *PricingForm) Submit(ctx context.Context, p forms.PricingPayload) (string, error) {
	return f.send.Submit(ctx, p)
}
