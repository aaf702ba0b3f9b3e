package dealer

import (
	"context"
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"cedra_admin/internal/apperr"
	"cedra_admin/internal/cache"
	"cedra_admin/internal/forms"
	"cedra_admin/internal/handlers"
	"cedra_admin/internal/models"
	"cedra_admin/internal/repository"
)

type Handler struct {
	Products repository.ProductStore
	Dealers  repository.DealerStore
	Cache    cache.VariantCache
}

func (h *Handler) variants(ctx context.Context, productID string) ([]models.Variant, error) {
	return cache.GetVariants(ctx, h.Cache, productID, func(ctx context.Context, id string) ([]models.Variant, error) {
		p, err := h.Products.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		return p.Variants, nil
	})
}

// ProductVariants - Liste des variantes d'un produit ; l'index dans la
// liste identifie la variante dans les formulaires revendeur.
func (h *Handler) ProductVariants(c *gin.Context) {
	vs, err := h.variants(c.Request.Context(), c.Param("productId"))
	if err != nil {
		handlers.Fail(c, storeError(err))
		return
	}
	if vs == nil {
		vs = []models.Variant{}
	}
	handlers.OK(c, "Variantes chargées", gin.H{"variants": vs})
}

// CreateAllocation - Allouer du stock d'une variante à un revendeur
func (h *Handler) CreateAllocation(c *gin.Context) {
	p, err := handlers.Bind(c, forms.AllocationFromFields)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	ctx := c.Request.Context()
	a := &models.Allocation{
		DealerID:     p.DealerID,
		ProductID:    p.ProductID,
		VariantIndex: p.VariantIndex,
		Quantity:     p.Quantity,
	}
	mv, err := h.Dealers.Allocate(ctx, a)
	if err != nil {
		handlers.Fail(c, storeError(err))
		return
	}
	h.Cache.Invalidate(ctx, p.ProductID)

	log.Printf("✅ Allocation %s : %d x variante %d du produit %s (stock %d → %d)",
		p.DealerID, p.Quantity, p.VariantIndex, p.ProductID, mv.PrevStock, mv.NewStock)
	handlers.OK(c, "Allocation enregistrée", gin.H{"id": a.ID.String(), "movement": mv})
}

// CreatePricing - Tarif revendeur d'une variante
func (h *Handler) CreatePricing(c *gin.Context) {
	p, err := handlers.Bind(c, forms.PricingFromFields)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	ctx := c.Request.Context()
	vs, err := h.variants(ctx, p.ProductID)
	if err != nil {
		handlers.Fail(c, storeError(err))
		return
	}
	if p.VariantIndex >= len(vs) {
		handlers.Fail(c, storeError(repository.ErrVariantIndex))
		return
	}

	price := &models.DealerPrice{
		DealerID:        p.DealerID,
		ProductID:       p.ProductID,
		VariantIndex:    p.VariantIndex,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
	}
	if err := h.Dealers.SavePrice(ctx, price); err != nil {
		handlers.Fail(c, apperr.Wrap(err))
		return
	}
	handlers.OK(c, "Tarif enregistré", gin.H{"id": price.ID.String()})
}

// CreatePromotion - Nouveau code promotion
func (h *Handler) CreatePromotion(c *gin.Context) {
	p, err := handlers.Bind(c, forms.PromotionFromFields)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	promo := &models.Promotion{
		Name:            p.Name,
		Code:            p.Code,
		DiscountPercent: p.DiscountPercent,
		StartsAt:        p.StartsAt,
		EndsAt:          p.EndsAt,
	}
	if err := h.Dealers.SavePromotion(c.Request.Context(), promo); err != nil {
		handlers.Fail(c, storeError(err))
		return
	}
	handlers.OK(c, "Promotion créée", gin.H{"id": promo.ID.String()})
}

// CreateDealer - Nouveau revendeur
func (h *Handler) CreateDealer(c *gin.Context) {
	p, err := handlers.Bind(c, forms.DealerFromFields)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	d := &models.Dealer{Name: p.Name, Email: p.Email, Phone: p.Phone, City: p.City}
	if err := h.Dealers.SaveDealer(c.Request.Context(), d); err != nil {
		handlers.Fail(c, storeError(err))
		return
	}
	handlers.OK(c, "Revendeur créé", gin.H{"id": d.ID.String()})
}

func storeError(err error) error {
	field := func(kind apperr.Kind, msg, name, detail string) error {
		return &apperr.AppError{Kind: kind, PublicMsg: msg, Fields: map[string]string{name: detail}, Err: err}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFoundErr("Produit introuvable.")
	case errors.Is(err, repository.ErrVariantIndex):
		return field(apperr.Invalid, "Variante inconnue.", "variantIndex", "Variante inconnue.")
	case errors.Is(err, repository.ErrVariantDisabled):
		return field(apperr.Invalid, "Cette variante est désactivée.", "variantIndex", "Cette variante est désactivée.")
	case errors.Is(err, repository.ErrInsufficientStock):
		return field(apperr.Conflict, "Stock insuffisant.", "quantity", "Quantité supérieure au stock disponible.")
	case errors.Is(err, repository.ErrCodeTaken):
		return field(apperr.Conflict, "Ce code promotion existe déjà.", "code", "Choisissez un autre code.")
	case errors.Is(err, repository.ErrEmailTaken):
		return field(apperr.Conflict, "Un revendeur utilise déjà cet email.", "email", "Email déjà utilisé.")
	default:
		return apperr.Wrap(err)
	}
}
