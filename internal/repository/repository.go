package repository

import (
	"context"
	"errors"
	"fmt"

	"cedra_admin/internal/models"
)

var (
	ErrNotFound          = errors.New("introuvable")
	ErrSlugTaken         = errors.New("slug déjà utilisé")
	ErrCodeTaken         = errors.New("code promotion déjà utilisé")
	ErrEmailTaken        = errors.New("email déjà utilisé")
	ErrVariantIndex      = errors.New("index de variante hors limites")
	ErrVariantDisabled   = errors.New("variante désactivée")
	ErrInsufficientStock = errors.New("stock insuffisant")
)

// ProductStore persiste les produits et leurs variantes. Les variantes sont
// adressées par leur position dans Product.Variants.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	// UpdateProduct remplace le produit existant ; CreatedAt est conservé.
	UpdateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// DealerStore persiste les données revendeurs.
type DealerStore interface {
	// Allocate décrémente le stock de la variante et trace le mouvement.
	Allocate(ctx context.Context, a *models.Allocation) (models.StockMovement, error)
	SavePrice(ctx context.Context, p *models.DealerPrice) error
	SavePromotion(ctx context.Context, p *models.Promotion) error
	SaveDealer(ctx context.Context, d *models.Dealer) error
}

type Store interface {
	ProductStore
	DealerStore
}

var (
	_ Store = (*Scylla)(nil)
	_ Store = (*Memory)(nil)
)

// allocateVariant applique une allocation sur une copie des variantes.
func allocateVariant(vs []models.Variant, a *models.Allocation) ([]models.Variant, models.StockMovement, error) {
	if a.VariantIndex < 0 || a.VariantIndex >= len(vs) {
		return nil, models.StockMovement{}, fmt.Errorf("%w: %d sur %d", ErrVariantIndex, a.VariantIndex, len(vs))
	}
	v := vs[a.VariantIndex]
	if !v.Status {
		return nil, models.StockMovement{}, ErrVariantDisabled
	}
	if a.Quantity > v.Stock {
		return nil, models.StockMovement{}, fmt.Errorf("%w: %d demandés, %d disponibles", ErrInsufficientStock, a.Quantity, v.Stock)
	}

	next := append([]models.Variant(nil), vs...)
	next[a.VariantIndex].Stock = v.Stock - a.Quantity

	return next, models.StockMovement{
		ProductID:    a.ProductID,
		VariantIndex: a.VariantIndex,
		Type:         models.MovementAllocation,
		Quantity:     -a.Quantity,
		PrevStock:    v.Stock,
		NewStock:     v.Stock - a.Quantity,
		Reason:       "allocation revendeur " + a.DealerID,
		CreatedAt:    a.CreatedAt,
	}, nil
}
