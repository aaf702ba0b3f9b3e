package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"cedra_admin/internal/controller"
	"cedra_admin/internal/models"
)

// manifest décrit un produit à saisir. En édition, les champs vides gardent
// la valeur enregistrée et Attributes absent conserve les variantes existantes.
type manifest struct {
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Description string             `json:"description"`
	BasePrice   *decimal.Decimal   `json:"basePrice"`
	CategoryID  string             `json:"categoryId"`
	Attributes  []models.Attribute `json:"attributes"`
	Variants    []variantEdit      `json:"variants"`
}

// variantEdit modifie la ligne Index du tableau généré.
type variantEdit struct {
	Index           int              `json:"index"`
	Status          *bool            `json:"status"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	Stock           *int             `json:"stock"`
}

type slugSource interface {
	GenerateSlug(ctx context.Context, name string) (string, error)
}

func (m *manifest) apply(ctx context.Context, api slugSource, form *controller.ProductForm) error {
	if m.BasePrice != nil {
		form.SetBasePrice(*m.BasePrice)
	}
	if m.Description != "" {
		form.SetDescription(m.Description)
	}
	if m.CategoryID != "" {
		form.SetCategory(m.CategoryID)
	}

	// Le formulaire génère le slug en différé ; en ligne de commande on
	// l'obtient tout de suite pour ne pas dépendre du délai.
	if m.Name != "" {
		form.SetName(m.Name)
		if m.Slug == "" {
			s, err := api.GenerateSlug(ctx, m.Name)
			if err != nil {
				return fmt.Errorf("génération du slug: %w", err)
			}
			m.Slug = s
		}
	}
	if m.Slug != "" {
		form.SetSlug(m.Slug)
	}

	if m.Attributes != nil {
		form.SelectAttributes(m.Attributes)
	}
	for _, e := range m.Variants {
		err := form.UpdateVariant(e.Index, func(v *models.Variant) {
			if e.Status != nil {
				v.Status = *e.Status
			}
			if e.Price != nil {
				v.Price = *e.Price
			}
			if e.DiscountedPrice != nil {
				v.DiscountedPrice = *e.DiscountedPrice
			}
			if e.Stock != nil {
				v.Stock = *e.Stock
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
