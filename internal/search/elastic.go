package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"cedra_admin/internal/models"
)

// Index indexe les produits et les retrouve par texte libre.
type Index interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, query string) ([]Document, error)
}

// Document est la forme indexée d'un produit.
type Document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	CategoryID  string   `json:"categoryId"`
	BasePrice   string   `json:"basePrice"`
	Image       string   `json:"image,omitempty"`
	Variants    []string `json:"variants"`
}

func NewDocument(p *models.Product) Document {
	doc := Document{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		BasePrice:   p.BasePrice.String(),
		Variants:    make([]string, 0, len(p.Variants)),
	}
	if len(p.ImageURLs) > 0 {
		doc.Image = p.ImageURLs[0]
	}
	for _, v := range p.Variants {
		doc.Variants = append(doc.Variants, v.Label())
	}
	return doc
}

type Elastic struct {
	client *elasticsearch.Client
	index  string
}

// NewElastic se connecte et vérifie le cluster.
func NewElastic(url, user, password, index string) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	log.Println("✅ Connecté à Elasticsearch")
	return &Elastic{client: client, index: index}, nil
}

func (e *Elastic) IndexProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(NewDocument(p))
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("refus Elastic pour %s: %s", p.Name, res.String())
	}
	log.Printf("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	return nil
}

func (e *Elastic) Search(ctx context.Context, query string) ([]Document, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name^2", "slug", "description", "variants"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("❌ Elasticsearch erreur: %s", res.String())
		return nil, errors.New("index non trouvé ou vide")
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("décodage JSON: %w", err)
	}

	out := make([]Document, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
