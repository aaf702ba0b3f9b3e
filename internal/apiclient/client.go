package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"cedra_admin/internal/models"
)

const (
	PathUploadImage     = "/product/api/upload-image"
	PathGenerateSlug    = "/product/api/generate-slug"
	PathCreateProduct   = "/product/api/create"
	PathProduct         = "/product/api/product/"
	PathSearch          = "/product/api/search"
	PathProductVariants = "/dealer/allocation/api/product-variants/"
	PathAllocation      = "/dealer/allocation/api/create"
	PathPricing         = "/dealer/pricing/api/create"
	PathPromotion       = "/promotion/api/create"
	PathDealer          = "/dealer/api/create"
)

// APIError est une erreur métier renvoyée par le serveur (code "error").
// Son message est destiné au toast.
type APIError struct {
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "erreur API"
	}
	return e.Message
}

// Client parle à l'API admin. Seule l'enveloppe JSON fait foi : le code HTTP
// n'est pas interprété.
type Client struct {
	http *resty.Client
}

type Option func(*resty.Client)

func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

func WithHeader(key, value string) Option {
	return func(c *resty.Client) { c.SetHeader(key, value) }
}

// New crée un client pour baseURL, par exemple "http://localhost:8080/admin".
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{http: rc}
}

// decode lit l'enveloppe dans out (qui doit embarquer models.Envelope)
// et convertit un code "error" en *APIError.
func decode(resp *resty.Response, out any, env func() models.Envelope) error {
	body := resp.Body()
	if len(body) == 0 {
		return fmt.Errorf("réponse vide (HTTP %d)", resp.StatusCode())
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("réponse illisible (HTTP %d): %w", resp.StatusCode(), err)
	}
	e := env()
	if !e.OK() {
		return &APIError{Message: e.Message, Fields: e.Errors}
	}
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// SubmitMultipart envoie un formulaire en multipart/form-data.
func (c *Client) SubmitMultipart(ctx context.Context, path string, fields map[string]string) (*CreateResponse, error) {
	resp, err := c.request(ctx).
		SetMultipartFormData(fields).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}

	var out CreateResponse
	if err := decode(resp, &out, func() models.Envelope { return out.Envelope }); err != nil {
		return nil, err
	}
	return &out, nil
}

type CreateResponse struct {
	models.Envelope
	ID string `json:"id"`
}
