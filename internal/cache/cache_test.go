package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"cedra_admin/internal/models"
)

func TestGetVariantsReadThrough(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	calls := 0
	load := func(ctx context.Context, id string) ([]models.Variant, error) {
		calls++
		return []models.Variant{{Stock: 3}, {Stock: 4}}, nil
	}

	for i := 0; i < 2; i++ {
		vs, err := GetVariants(ctx, c, "p1", load)
		if err != nil || len(vs) != 2 || vs[1].Stock != 4 {
			t.Fatalf("GetVariants() = %v, %v", vs, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one load, got %d", calls)
	}

	c.Invalidate(ctx, "p1")
	if _, err := GetVariants(ctx, c, "p1", load); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected a reload after invalidation, got %d loads", calls)
	}
}

func TestGetVariantsLoadError(t *testing.T) {
	c := NewMemory()
	boom := errors.New("boom")
	_, err := GetVariants(context.Background(), c, "p1", func(context.Context, string) ([]models.Variant, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, ok := c.Get(context.Background(), "p1"); ok {
		t.Errorf("errors must not be cached")
	}
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, remaining, _ := l.Allow(context.Background(), "ip", 3, time.Minute)
		if !ok || remaining != 2-i {
			t.Fatalf("request %d: ok=%v remaining=%d", i, ok, remaining)
		}
	}
	if ok, _, _ := l.Allow(context.Background(), "ip", 3, time.Minute); ok {
		t.Errorf("fourth request must be refused")
	}

	now = now.Add(61 * time.Second)
	if ok, _, _ := l.Allow(context.Background(), "ip", 3, time.Minute); !ok {
		t.Errorf("window must reset")
	}
}
