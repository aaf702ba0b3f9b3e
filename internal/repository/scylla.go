package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"

	"cedra_admin/internal/models"
)

// Schema crée les tables du keyspace produits. Les montants sont stockés en
// texte pour garder la précision de decimal.Decimal.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id uuid PRIMARY KEY,
		name text, slug text, description text, base_price text, category_id text,
		attributes text, variants text, image_urls list<text>,
		is_active boolean, has_variants boolean,
		created_at timestamp, updated_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS products_by_slug (slug text PRIMARY KEY, product_id uuid)`,
	`CREATE TABLE IF NOT EXISTS dealer_allocations (
		dealer_id text, allocation_id timeuuid, product_id text, variant_index int,
		quantity int, created_at timestamp,
		PRIMARY KEY (dealer_id, allocation_id))`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		product_id text, movement_id timeuuid, variant_index int, type text,
		quantity int, prev_stock int, new_stock int, reason text, created_at timestamp,
		PRIMARY KEY (product_id, movement_id))`,
	`CREATE TABLE IF NOT EXISTS dealer_prices (
		dealer_id text, product_id text, variant_index int, price_id uuid,
		price text, discounted_price text, created_at timestamp,
		PRIMARY KEY (dealer_id, product_id, variant_index))`,
	`CREATE TABLE IF NOT EXISTS promotions (
		code text PRIMARY KEY, promotion_id uuid, name text, discount_percent int,
		starts_at timestamp, ends_at timestamp, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS dealers (
		email text PRIMARY KEY, dealer_id uuid, name text, phone text, city text,
		created_at timestamp)`,
}

const allocateRetries = 3

// Scylla implémente Store sur le keyspace produits.
type Scylla struct {
	session *gocql.Session
}

func NewScylla(session *gocql.Session) *Scylla {
	return &Scylla{session: session}
}

// EnsureSchema exécute Schema ; le rôle doit avoir les droits CREATE.
func (s *Scylla) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("schéma: %w", err)
		}
	}
	log.Println("✅ Schéma ScyllaDB à jour")
	return nil
}

func (s *Scylla) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == (gocql.UUID{}) {
		p.ID = gocql.TimeUUID()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	// Réserve le slug d'abord : une LWT garantit l'unicité.
	applied, err := s.session.Query(`INSERT INTO products_by_slug (slug, product_id) VALUES (?, ?) IF NOT EXISTS`,
		p.Slug, p.ID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("réservation slug %s: %w", p.Slug, err)
	}
	if !applied {
		return ErrSlugTaken
	}

	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return err
	}
	vars, err := json.Marshal(p.Variants)
	if err != nil {
		return err
	}

	err = s.session.Query(`INSERT INTO products (product_id, name, slug, description, base_price, category_id,
		attributes, variants, image_urls, is_active, has_variants, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description, p.BasePrice.String(), p.CategoryID,
		string(attrs), string(vars), p.ImageURLs, p.IsActive, p.HasVariants, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		// Libère le slug réservé.
		if derr := s.session.Query(`DELETE FROM products_by_slug WHERE slug = ?`, p.Slug).WithContext(ctx).Exec(); derr != nil {
			log.Printf("⚠️ Slug %s non libéré: %v", p.Slug, derr)
		}
		return fmt.Errorf("insertion produit: %w", err)
	}
	return nil
}

func (s *Scylla) UpdateProduct(ctx context.Context, p *models.Product) error {
	old, err := s.GetProduct(ctx, p.ID.String())
	if err != nil {
		return err
	}

	if old.Slug != p.Slug {
		applied, err := s.session.Query(`INSERT INTO products_by_slug (slug, product_id) VALUES (?, ?) IF NOT EXISTS`,
			p.Slug, p.ID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return fmt.Errorf("réservation slug %s: %w", p.Slug, err)
		}
		if !applied {
			return ErrSlugTaken
		}
	}

	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return err
	}
	vars, err := json.Marshal(p.Variants)
	if err != nil {
		return err
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()

	err = s.session.Query(`UPDATE products SET name = ?, slug = ?, description = ?, base_price = ?, category_id = ?,
		attributes = ?, variants = ?, image_urls = ?, is_active = ?, has_variants = ?, updated_at = ?
		WHERE product_id = ?`,
		p.Name, p.Slug, p.Description, p.BasePrice.String(), p.CategoryID,
		string(attrs), string(vars), p.ImageURLs, p.IsActive, p.HasVariants, p.UpdatedAt, p.ID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("mise à jour produit: %w", err)
	}

	if old.Slug != p.Slug {
		if err := s.session.Query(`DELETE FROM products_by_slug WHERE slug = ?`, old.Slug).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Ancien slug %s non libéré: %v", old.Slug, err)
		}
	}
	return nil
}

func (s *Scylla) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		p                     models.Product
		basePrice             string
		attrsRaw, variantsRaw string
	)
	err = s.session.Query(`SELECT product_id, name, slug, description, base_price, category_id,
		attributes, variants, image_urls, is_active, has_variants, created_at, updated_at
		FROM products WHERE product_id = ?`, uid).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &basePrice, &p.CategoryID,
		&attrsRaw, &variantsRaw, &p.ImageURLs, &p.IsActive, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", id, err)
	}

	if p.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return nil, fmt.Errorf("prix de base illisible: %w", err)
	}
	if err := unmarshalColumn(attrsRaw, &p.Attributes); err != nil {
		return nil, fmt.Errorf("attributs illisibles: %w", err)
	}
	if err := unmarshalColumn(variantsRaw, &p.Variants); err != nil {
		return nil, fmt.Errorf("variantes illisibles: %w", err)
	}
	return &p, nil
}

func (s *Scylla) SlugExists(ctx context.Context, slug string) (bool, error) {
	var id gocql.UUID
	err := s.session.Query(`SELECT product_id FROM products_by_slug WHERE slug = ?`, slug).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Allocate met à jour les variantes en LWT sur updated_at : une allocation
// concurrente fait échouer la condition et l'opération est rejouée.
func (s *Scylla) Allocate(ctx context.Context, a *models.Allocation) (models.StockMovement, error) {
	uid, err := gocql.ParseUUID(a.ProductID)
	if err != nil {
		return models.StockMovement{}, ErrNotFound
	}
	a.ID = gocql.TimeUUID()
	a.CreatedAt = time.Now()

	for attempt := 0; attempt < allocateRetries; attempt++ {
		var (
			raw       string
			updatedAt time.Time
		)
		err := s.session.Query(`SELECT variants, updated_at FROM products WHERE product_id = ?`, uid).
			WithContext(ctx).Scan(&raw, &updatedAt)
		if errors.Is(err, gocql.ErrNotFound) {
			return models.StockMovement{}, ErrNotFound
		}
		if err != nil {
			return models.StockMovement{}, err
		}

		var vs []models.Variant
		if err := unmarshalColumn(raw, &vs); err != nil {
			return models.StockMovement{}, err
		}
		next, mv, err := allocateVariant(vs, a)
		if err != nil {
			return models.StockMovement{}, err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return models.StockMovement{}, err
		}

		applied, err := s.session.Query(`UPDATE products SET variants = ?, updated_at = ? WHERE product_id = ? IF updated_at = ?`,
			string(encoded), a.CreatedAt, uid, updatedAt).WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return models.StockMovement{}, fmt.Errorf("mise à jour stock: %w", err)
		}
		if !applied {
			log.Printf("⚠️ Conflit d'allocation sur %s, nouvelle tentative", a.ProductID)
			continue
		}

		mv.ID = gocql.TimeUUID()
		s.record(ctx, a, mv)
		return mv, nil
	}
	return models.StockMovement{}, fmt.Errorf("allocation %s: trop de conflits concurrents", a.ProductID)
}

// record trace l'allocation et le mouvement ; le stock est déjà décrémenté.
func (s *Scylla) record(ctx context.Context, a *models.Allocation, mv models.StockMovement) {
	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(`INSERT INTO dealer_allocations (dealer_id, allocation_id, product_id, variant_index, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, a.DealerID, a.ID, a.ProductID, a.VariantIndex, a.Quantity, a.CreatedAt)
	b.Query(`INSERT INTO stock_movements (product_id, movement_id, variant_index, type, quantity, prev_stock, new_stock, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, mv.ProductID, mv.ID, mv.VariantIndex, mv.Type, mv.Quantity, mv.PrevStock, mv.NewStock, mv.Reason, mv.CreatedAt)
	if err := s.session.ExecuteBatch(b); err != nil {
		log.Printf("❌ Historique d'allocation non enregistré pour %s: %v", a.ProductID, err)
	}
}

func (s *Scylla) SavePrice(ctx context.Context, p *models.DealerPrice) error {
	p.ID = gocql.TimeUUID()
	p.CreatedAt = time.Now()
	return s.session.Query(`INSERT INTO dealer_prices (dealer_id, product_id, variant_index, price_id, price, discounted_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.DealerID, p.ProductID, p.VariantIndex, p.ID, p.Price.String(), p.DiscountedPrice.String(), p.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Scylla) SavePromotion(ctx context.Context, p *models.Promotion) error {
	p.ID = gocql.TimeUUID()
	p.Code = strings.ToUpper(p.Code)
	p.CreatedAt = time.Now()

	applied, err := s.session.Query(`INSERT INTO promotions (code, promotion_id, name, discount_percent, starts_at, ends_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		p.Code, p.ID, p.Name, p.DiscountPercent, p.StartsAt, p.EndsAt, p.CreatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrCodeTaken
	}
	return nil
}

func (s *Scylla) SaveDealer(ctx context.Context, d *models.Dealer) error {
	d.ID = gocql.TimeUUID()
	d.Email = strings.ToLower(d.Email)
	d.CreatedAt = time.Now()

	applied, err := s.session.Query(`INSERT INTO dealers (email, dealer_id, name, phone, city, created_at)
		VALUES (?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		d.Email, d.ID, d.Name, d.Phone, d.City, d.CreatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrEmailTaken
	}
	return nil
}

func unmarshalColumn(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
