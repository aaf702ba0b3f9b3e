package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"cedra_admin/internal/forms"
	"cedra_admin/internal/images"
	"cedra_admin/internal/models"
)

type uploadResponse struct {
	models.Envelope
	URL string `json:"url"`
}

// UploadImage envoie un seul fichier (champ "image") et renvoie son URL.
func (c *Client) UploadImage(ctx context.Context, f *images.File) (string, error) {
	resp, err := c.request(ctx).
		SetMultipartField("image", f.Name, f.MimeType, f.Open()).
		Post(PathUploadImage)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}

	var out uploadResponse
	if err := decode(resp, &out, func() models.Envelope { return out.Envelope }); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload %s: url absente de la réponse", f.Name)
	}
	return out.URL, nil
}

var _ images.Uploader = (*Client)(nil)

type variantsResponse struct {
	models.Envelope
	Variants []models.Variant `json:"variants"`
}

// ProductVariants renvoie les variantes d'un produit. L'index dans la liste
// est l'identifiant utilisé par les formulaires d'allocation et de prix.
func (c *Client) ProductVariants(ctx context.Context, productID string) ([]models.Variant, error) {
	path := PathProductVariants + url.PathEscape(productID)
	resp, err := c.request(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}

	var out variantsResponse
	if err := decode(resp, &out, func() models.Envelope { return out.Envelope }); err != nil {
		return nil, err
	}
	return out.Variants, nil
}

type productResponse struct {
	models.Envelope
	Product *models.Product `json:"product"`
}

// Product charge un produit existant, pour ouvrir le formulaire en édition.
func (c *Client) Product(ctx context.Context, productID string) (*models.Product, error) {
	path := PathProduct + url.PathEscape(productID)
	resp, err := c.request(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}

	var out productResponse
	if err := decode(resp, &out, func() models.Envelope { return out.Envelope }); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, fmt.Errorf("GET %s: produit absent de la réponse", path)
	}
	return out.Product, nil
}

// SearchHit est un résultat de recherche produit.
type SearchHit struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

type searchResponse struct {
	models.Envelope
	Products []SearchHit `json:"products"`
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]SearchHit, error) {
	resp, err := c.request(ctx).
		SetQueryParam("q", query).
		Get(PathSearch)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", PathSearch, err)
	}

	var out searchResponse
	if err := decode(resp, &out, func() models.Envelope { return out.Envelope }); err != nil {
		return nil, err
	}
	return out.Products, nil
}

type slugResponse struct {
	models.Envelope
	Slug string `json:"slug"`
}

func (c *Client) GenerateSlug(ctx context.Context, name string) (string, error) {
	resp, err := c.request(ctx).
		SetQueryParam("name", name).
		Get(PathGenerateSlug)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", PathGenerateSlug, err)
	}

	var out slugResponse
	if err := decode(resp, &out, func() models.Envelope { return out.Envelope }); err != nil {
		return "", err
	}
	return out.Slug, nil
}

// SubmitProduct envoie le formulaire produit et renvoie l'identifiant créé.
func (c *Client) SubmitProduct(ctx context.Context, p forms.ProductPayload) (string, error) {
	return c.submit(ctx, PathCreateProduct, p)
}

func (c *Client) SubmitAllocation(ctx context.Context, p forms.AllocationPayload) (string, error) {
	return c.submit(ctx, PathAllocation, p)
}

func (c *Client) SubmitPricing(ctx context.Context, p forms.PricingPayload) (string, error) {
	return c.submit(ctx, PathPricing, p)
}

func (c *Client) SubmitPromotion(ctx context.Context, p forms.PromotionPayload) (string, error) {
	return c.submit(ctx, PathPromotion, p)
}

func (c *Client) SubmitDealer(ctx context.Context, p forms.DealerPayload) (string, error) {
	return c.submit(ctx, PathDealer, p)
}

func (c *Client) submit(ctx context.Context, path string, p forms.Payload) (string, error) {
	fields, err := p.Fields()
	if err != nil {
		return "", err
	}
	out, err := c.SubmitMultipart(ctx, path, fields)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}
