package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"cedra_admin/internal/models"
)

const VariantCacheTTL = 10 * time.Minute

// VariantCache garde la liste ordonnée des variantes d'un produit.
// L'ordre est celui de génération : l'index reste l'identifiant.
type VariantCache interface {
	Get(ctx context.Context, productID string) ([]models.Variant, bool)
	Set(ctx context.Context, productID string, vs []models.Variant)
	Invalidate(ctx context.Context, productID string)
}

// Loader lit les variantes depuis la base quand le cache est vide.
type Loader func(ctx context.Context, productID string) ([]models.Variant, error)

// GetVariants lit le cache, puis la base, et remplit le cache au passage.
func GetVariants(ctx context.Context, c VariantCache, productID string, load Loader) ([]models.Variant, error) {
	if vs, ok := c.Get(ctx, productID); ok {
		return vs, nil
	}
	vs, err := load(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.Set(ctx, productID, vs)
	return vs, nil
}

type RedisVariants struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisVariants(client *redis.Client) *RedisVariants {
	return &RedisVariants{client: client, ttl: VariantCacheTTL}
}

func variantsKey(productID string) string { return "product_variants:" + productID }

func (r *RedisVariants) Get(ctx context.Context, productID string) ([]models.Variant, bool) {
	data, err := r.client.Get(ctx, variantsKey(productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Lecture cache variantes %s: %v", productID, err)
		}
		return nil, false
	}
	var vs []models.Variant
	if err := json.Unmarshal(data, &vs); err != nil {
		return nil, false
	}
	return vs, true
}

func (r *RedisVariants) Set(ctx context.Context, productID string, vs []models.Variant) {
	data, err := json.Marshal(vs)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, variantsKey(productID), data, r.ttl).Err(); err != nil {
		log.Printf("⚠️ Écriture cache variantes %s: %v", productID, err)
	}
}

func (r *RedisVariants) Invalidate(ctx context.Context, productID string) {
	r.client.Del(ctx, variantsKey(productID))
}

// Memory est un VariantCache local, sans expiration.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]models.Variant
}

func NewMemory() *Memory {
	return &Memory{items: map[string][]models.Variant{}}
}

func (m *Memory) Get(ctx context.Context, productID string) ([]models.Variant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs, ok := m.items[productID]
	if !ok {
		return nil, false
	}
	return append([]models.Variant(nil), vs...), true
}

func (m *Memory) Set(ctx context.Context, productID string, vs []models.Variant) {
	m.mu.Lock()
	m.items[productID] = append([]models.Variant(nil), vs...)
	m.mu.Unlock()
}

func (m *Memory) Invalidate(ctx context.Context, productID string) {
	m.mu.Lock()
	delete(m.items, productID)
	m.mu.Unlock()
}

// MemoryLimiter est l'équivalent local de RedisLimiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]window
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{now: time.Now, windows: map[string]window{}}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, d time.Duration) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if now.After(w.resetAt) {
		w = window{resetAt: now.Add(d)}
	}
	w.count++
	l.windows[key] = w

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return w.count <= limit, remaining, nil
}
