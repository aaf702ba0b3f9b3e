package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"cedra_admin/internal/models"
)

// Memory est un Store en mémoire, utilisé en développement et dans les tests.
type Memory struct {
	mu          sync.RWMutex
	products    map[string]*models.Product
	slugs       map[string]string
	allocations []models.Allocation
	movements   []models.StockMovement
	prices      map[string]models.DealerPrice
	promotions  map[string]models.Promotion
	dealers     map[string]models.Dealer
}

func NewMemory() *Memory {
	return &Memory{
		products:   map[string]*models.Product{},
		slugs:      map[string]string{},
		prices:     map[string]models.DealerPrice{},
		promotions: map[string]models.Promotion{},
		dealers:    map[string]models.Dealer{},
	}
}

func (m *Memory) CreateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.slugs[p.Slug]; taken {
		return ErrSlugTaken
	}
	if p.ID == (gocql.UUID{}) {
		p.ID = gocql.TimeUUID()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	cp := *p
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	m.products[p.ID.String()] = &cp
	m.slugs[p.Slug] = p.ID.String()
	return nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := p.ID.String()
	old, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := m.slugs[p.Slug]; taken && owner != id {
		return ErrSlugTaken
	}
	delete(m.slugs, old.Slug)

	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()
	cp := *p
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	m.products[id] = &cp
	m.slugs[p.Slug] = id
	return nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp, nil
}

func (m *Memory) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.slugs[slug]
	return ok, nil
}

func (m *Memory) Allocate(ctx context.Context, a *models.Allocation) (models.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[a.ProductID]
	if !ok {
		return models.StockMovement{}, ErrNotFound
	}
	a.ID = gocql.TimeUUID()
	a.CreatedAt = time.Now()

	next, mv, err := allocateVariant(p.Variants, a)
	if err != nil {
		return models.StockMovement{}, err
	}
	mv.ID = gocql.TimeUUID()

	p.Variants = next
	p.UpdatedAt = a.CreatedAt
	m.allocations = append(m.allocations, *a)
	m.movements = append(m.movements, mv)
	return mv, nil
}

// Movements renvoie l'historique des mouvements de stock d'un produit.
func (m *Memory) Movements(productID string) []models.StockMovement {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.StockMovement
	for _, mv := range m.movements {
		if mv.ProductID == productID {
			out = append(out, mv)
		}
	}
	return out
}

func (m *Memory) SavePrice(ctx context.Context, p *models.DealerPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = gocql.TimeUUID()
	p.CreatedAt = time.Now()
	m.prices[priceKey(p.DealerID, p.ProductID, p.VariantIndex)] = *p
	return nil
}

// Price renvoie le tarif revendeur d'une variante.
func (m *Memory) Price(dealerID, productID string, index int) (models.DealerPrice, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prices[priceKey(dealerID, productID, index)]
	return p, ok
}

func (m *Memory) SavePromotion(ctx context.Context, p *models.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := strings.ToUpper(p.Code)
	if _, taken := m.promotions[code]; taken {
		return ErrCodeTaken
	}
	p.ID = gocql.TimeUUID()
	p.Code = code
	p.CreatedAt = time.Now()
	m.promotions[code] = *p
	return nil
}

func (m *Memory) SaveDealer(ctx context.Context, d *models.Dealer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(d.Email)
	if _, taken := m.dealers[email]; taken {
		return ErrEmailTaken
	}
	d.ID = gocql.TimeUUID()
	d.Email = email
	d.CreatedAt = time.Now()
	m.dealers[email] = *d
	return nil
}

func priceKey(dealerID, productID string, index int) string {
	return dealerID + "|" + productID + "|" + strconv.Itoa(index)
}
