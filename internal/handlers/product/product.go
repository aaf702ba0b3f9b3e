package product

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"cedra_admin/internal/apperr"
	"cedra_admin/internal/cache"
	"cedra_admin/internal/forms"
	"cedra_admin/internal/handlers"
	"cedra_admin/internal/models"
	"cedra_admin/internal/repository"
	"cedra_admin/internal/search"
	"cedra_admin/internal/storage"
	"cedra_admin/internal/variants"
)

const indexTimeout = 10 * time.Second

type Handler struct {
	Store   repository.ProductStore
	Cache   cache.VariantCache
	Index   search.Index
	Storage storage.Storage

	indexing sync.WaitGroup
}

// Wait attend la fin des indexations en cours (arrêt du serveur, tests).
func (h *Handler) Wait() { h.indexing.Wait() }

// CreateProduct - Créer ou mettre à jour un produit depuis le formulaire admin
func (h *Handler) CreateProduct(c *gin.Context) {
	payload, err := handlers.Bind(c, forms.ProductFromFields)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	fe := forms.FieldErrors{}
	checkVariantGrid(payload, fe)
	if !fe.Empty() {
		handlers.Fail(c, handlers.Invalid(fe))
		return
	}

	p := &models.Product{
		Name:        strings.TrimSpace(payload.Name),
		Slug:        payload.Slug,
		Description: payload.Description,
		BasePrice:   payload.BasePrice,
		CategoryID:  payload.CategoryID,
		Attributes:  payload.Attributes,
		Variants:    payload.Variants,
		ImageURLs:   payload.Images,
		IsActive:    true,
		HasVariants: len(variants.SelectEnabled(payload.Attributes)) > 0,
	}
	for i := range p.Variants {
		variants.Normalize(&p.Variants[i])
	}

	ctx := c.Request.Context()
	message := "Produit créé avec succès"
	if payload.ProductID != "" {
		id, err := gocql.ParseUUID(payload.ProductID)
		if err != nil {
			handlers.Fail(c, handlers.FieldError("productId", "Identifiant invalide."))
			return
		}
		p.ID = id
		if err := h.update(ctx, p); err != nil {
			handlers.Fail(c, storeError(err))
			return
		}
		message = "Produit mis à jour avec succès"
	} else if err := h.Store.CreateProduct(ctx, p); err != nil {
		handlers.Fail(c, storeError(err))
		return
	}

	h.Cache.Invalidate(ctx, p.ID.String())
	h.indexAsync(p)

	log.Printf("✅ Produit enregistré: %s (%d variantes, %d images)", p.Name, len(p.Variants), len(p.ImageURLs))
	handlers.OK(c, message, gin.H{"id": p.ID.String()})
}

// update signale les variantes déplacées : leur index sert d'identifiant
// aux allocations et tarifs déjà enregistrés.
func (h *Handler) update(ctx context.Context, p *models.Product) error {
	old, err := h.Store.GetProduct(ctx, p.ID.String())
	if err != nil {
		return err
	}
	if !variants.Stable(old.Variants, p.Variants) {
		log.Printf("⚠️ Produit %s : positions des variantes modifiées %v", p.ID, variants.Remap(old.Variants, p.Variants))
	}
	return h.Store.UpdateProduct(ctx, p)
}

func (h *Handler) indexAsync(p *models.Product) {
	doc := *p
	h.indexing.Add(1)
	go func() {
		defer h.indexing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := h.Index.IndexProduct(ctx, &doc); err != nil {
			log.Printf("❌ Erreur indexation %s: %v", doc.Name, err)
		}
	}()
}

// GetProduct - Charger un produit pour l'édition
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.Store.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		handlers.Fail(c, storeError(err))
		return
	}
	handlers.OK(c, "Produit chargé", gin.H{"product": p})
}

// checkVariantGrid vérifie que les lignes reçues correspondent aux
// combinaisons des options actives, dans l'ordre de génération.
func checkVariantGrid(p forms.ProductPayload, fe forms.FieldErrors) {
	tuples := variants.Generate(variants.SelectEnabled(p.Attributes))
	if len(tuples) != len(p.Variants) {
		fe.Add("variants", "Les variantes ne correspondent pas aux attributs sélectionnés.")
		return
	}
	for i, tuple := range tuples {
		if variants.Key(tuple) != variants.Key(p.Variants[i].AttributeValues) {
			fe.Add("variants", "Les variantes ne correspondent pas aux attributs sélectionnés.")
			return
		}
	}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFoundErr("Produit introuvable.")
	case errors.Is(err, repository.ErrSlugTaken):
		return &apperr.AppError{Kind: apperr.Conflict, PublicMsg: "Ce slug est déjà utilisé.",
			Fields: map[string]string{"slug": "Choisissez un autre slug."}}
	default:
		return apperr.Wrap(err)
	}
}
