package search

import (
	"context"
	"strings"
	"sync"

	"cedra_admin/internal/models"
)

// Memory indexe en mémoire ; recherche par sous-chaîne sur le nom et le slug.
type Memory struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) IndexProduct(ctx context.Context, p *models.Product) error {
	doc := NewDocument(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == doc.ID {
			m.docs[i] = doc
			return nil
		}
	}
	m.docs = append(m.docs, doc)
	return nil
}

func (m *Memory) Search(ctx context.Context, query string) ([]Document, error) {
	q := strings.ToLower(query)
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Document{}
	for _, d := range m.docs {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(d.Slug, q) {
			out = append(out, d)
		}
	}
	return out, nil
}
