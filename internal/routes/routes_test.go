package routes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cedra_admin/internal/apiclient"
	"cedra_admin/internal/cache"
	"cedra_admin/internal/controller"
	"cedra_admin/internal/forms"
	"cedra_admin/internal/handlers/dealer"
	"cedra_admin/internal/handlers/product"
	"cedra_admin/internal/images"
	"cedra_admin/internal/models"
	"cedra_admin/internal/repository"
	"cedra_admin/internal/search"
	"cedra_admin/internal/storage"
)

type notes struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	fields    []forms.FieldErrors
}

func (n *notes) Success(msg string) { n.mu.Lock(); n.successes = append(n.successes, msg); n.mu.Unlock() }
func (n *notes) Error(msg string)   { n.mu.Lock(); n.errors = append(n.errors, msg); n.mu.Unlock() }
func (n *notes) FieldErrors(fe forms.FieldErrors) {
	n.mu.Lock()
	n.fields = append(n.fields, fe)
	n.mu.Unlock()
}

type testServer struct {
	url      string
	store    *repository.Memory
	index    *search.Memory
	products *product.Handler
}

func newTestServer(t *testing.T, uploadLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store := repository.NewMemory()
	variantCache := cache.NewMemory()
	index := search.NewMemory()

	ph := &product.Handler{Store: store, Cache: variantCache, Index: index, Storage: storage.NewLocal(dir, "/uploads")}
	dh := &dealer.Handler{Products: store, Dealers: store, Cache: variantCache}

	r := gin.New()
	RegisterRoutes(r, Deps{
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Products:        ph,
		Dealers:         dh,
		Limiter:         cache.NewMemoryLimiter(),
		UploadRateLimit: uploadLimit,
		StaticDir:       dir,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{url: srv.URL, store: store, index: index, products: ph}
}

func pngFile(name string) *images.File {
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	return images.NewFile(name, data, "")
}

func colorSize() []models.Attribute {
	return []models.Attribute{
		{ID: "color", Name: "Couleur", Type: models.AttributeColor, Options: []models.Option{
			{Label: "Rouge", Value: "#f00"}, {Label: "Bleu", Value: "#00f"}, {Label: "Vert", Value: "#0f0", Disabled: true},
		}},
		{ID: "size", Name: "Taille", Type: models.AttributeSelect, Options: []models.Option{
			{Label: "S", Value: "s"}, {Label: "M", Value: "m"},
		}},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func createProduct(t *testing.T, ts *testServer, client *apiclient.Client, n *notes) string {
	t.Helper()

	form := controller.NewProductForm(client, n, nil, controller.WithSlugDelay(10*time.Millisecond))
	t.Cleanup(form.Close)

	form.SetName("T-shirt Été")
	waitFor(t, "slug", func() bool { return form.View().Slug != "" })
	if got := form.View().Slug; got != "t-shirt-ete" {
		t.Fatalf("unexpected slug %q", got)
	}

	form.SetCategory("tops")
	form.SetBasePrice(decimal.NewFromInt(20))
	form.SelectAttributes(colorSize())
	if err := form.UpdateVariant(0, func(v *models.Variant) { v.Stock = 10 }); err != nil {
		t.Fatal(err)
	}

	rejected, err := form.Images().AddFiles(pngFile("front.png"), pngFile("back.png"),
		images.NewFile("notes.txt", []byte("hello"), ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 1 || rejected[0].Reason != images.ReasonNotImage {
		t.Fatalf("expected the text file to be rejected, got %+v", rejected)
	}
	if err := form.Images().Move(1, 0); err != nil {
		t.Fatal(err)
	}

	id, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error: %v (toasts %v, fields %v)", err, n.errors, n.fields)
	}
	ts.products.Wait()
	return id
}

func TestProductFormEndToEnd(t *testing.T) {
	ts := newTestServer(t, 100)
	client := apiclient.New(ts.url + "/admin")
	n := &notes{}
	ctx := context.Background()

	id := createProduct(t, ts, client, n)

	p, err := ts.store.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("product not stored: %v", err)
	}
	if len(p.Variants) != 4 || p.Variants[0].Stock != 10 || !p.HasVariants {
		t.Errorf("unexpected variants %+v", p.Variants)
	}
	if p.Variants[3].Label() != "Bleu / M" {
		t.Errorf("unexpected last variant %q", p.Variants[3].Label())
	}
	if len(p.ImageURLs) != 2 {
		t.Fatalf("expected 2 images, got %v", p.ImageURLs)
	}
	for _, u := range p.ImageURLs {
		if !strings.HasPrefix(u, "/uploads/") {
			t.Errorf("unexpected image url %q", u)
		}
		resp, err := http.Get(ts.url + u)
		if err != nil || resp.StatusCode != http.StatusOK {
			t.Errorf("uploaded image not served: %v", err)
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	hits, err := client.SearchProducts(ctx, "t-shirt")
	if err != nil || len(hits) != 1 || hits[0].ID != id {
		t.Errorf("SearchProducts() = %+v, %v", hits, err)
	}

	// Le même nom donne maintenant un slug suffixé.
	s, err := client.GenerateSlug(ctx, "T-shirt Été")
	if err != nil || s != "t-shirt-ete-2" {
		t.Errorf("GenerateSlug() = %q, %v", s, err)
	}
}

func TestEditKeepsPersistedImages(t *testing.T) {
	ts := newTestServer(t, 100)
	client := apiclient.New(ts.url + "/admin")
	ctx := context.Background()
	id := createProduct(t, ts, client, &notes{})

	existing, err := client.Product(ctx, id)
	if err != nil {
		t.Fatalf("Product() error: %v", err)
	}
	before := existing.ImageURLs

	form := controller.NewProductForm(client, &notes{}, existing)
	t.Cleanup(form.Close)
	if got := form.Images().Persisted(); len(got) != 2 {
		t.Fatalf("expected 2 persisted images, got %v", got)
	}
	if _, err := form.Images().AddFiles(pngFile("side.png")); err != nil {
		t.Fatal(err)
	}
	// p0, p1, side -> side, p1, p0
	if err := form.Images().Reorder([]int{2, 1, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := form.Submit(ctx); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	ts.products.Wait()

	p, _ := ts.store.GetProduct(ctx, id)
	if len(p.ImageURLs) != 3 || p.ImageURLs[1] != before[1] || p.ImageURLs[2] != before[0] {
		t.Errorf("unexpected images after edit %v (before %v)", p.ImageURLs, before)
	}
}

func TestDealerForms(t *testing.T) {
	ts := newTestServer(t, 100)
	client := apiclient.New(ts.url + "/admin")
	ctx := context.Background()
	id := createProduct(t, ts, client, &notes{})

	n := &notes{}
	alloc := controller.NewAllocationForm(client, n)
	choices, err := alloc.LoadVariants(ctx, id)
	if err != nil {
		t.Fatalf("LoadVariants() error: %v", err)
	}
	if len(choices) != 4 || choices[0].Label != "Rouge / S" || choices[0].Stock != 10 {
		t.Fatalf("unexpected choices %+v", choices)
	}

	payload := forms.AllocationPayload{DealerID: "garage-lyon", ProductID: id, VariantIndex: 0, Quantity: 3}
	if _, err := alloc.Submit(ctx, payload); err != nil {
		t.Fatalf("allocation failed: %v", err)
	}

	// Le cache a été invalidé : le stock relu tient compte de l'allocation.
	vs, err := client.ProductVariants(ctx, id)
	if err != nil || vs[0].Stock != 7 {
		t.Errorf("expected stock 7 after allocation, got %+v, %v", vs, err)
	}
	if mv := ts.store.Movements(id); len(mv) != 1 || mv[0].NewStock != 7 {
		t.Errorf("unexpected movements %+v", mv)
	}

	// Sans passer par le formulaire, le serveur refuse un index hors limites.
	_, err = client.SubmitAllocation(ctx, forms.AllocationPayload{DealerID: "d", ProductID: id, VariantIndex: 9, Quantity: 1})
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Fields["variantIndex"] == "" {
		t.Errorf("expected a variantIndex error, got %v", err)
	}
	_, err = client.SubmitAllocation(ctx, forms.AllocationPayload{DealerID: "d", ProductID: id, VariantIndex: 0, Quantity: 50})
	if !errors.As(err, &apiErr) || apiErr.Fields["quantity"] == "" {
		t.Errorf("expected a quantity error, got %v", err)
	}

	pricing := controller.NewPricingForm(client, n)
	if _, err := pricing.LoadVariants(ctx, id); err != nil {
		t.Fatal(err)
	}
	price := forms.PricingPayload{DealerID: "garage-lyon", ProductID: id, VariantIndex: 3, Price: decimal.NewFromInt(18)}
	if _, err := pricing.Submit(ctx, price); err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	if got, ok := ts.store.Price("garage-lyon", id, 3); !ok || !got.DiscountedPrice.Equal(decimal.NewFromInt(18)) {
		t.Errorf("unexpected stored price %+v", got)
	}

	promo := controller.NewSimpleForm(n, "Promotion créée", client.SubmitPromotion)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	pp := forms.PromotionPayload{Name: "Été", Code: "ETE25", DiscountPercent: 25, StartsAt: start, EndsAt: start.AddDate(0, 1, 0)}
	if _, err := promo.Submit(ctx, pp); err != nil {
		t.Fatalf("promotion failed: %v", err)
	}
	if _, err := promo.Submit(ctx, pp); !errors.As(err, &apiErr) || apiErr.Fields["code"] == "" {
		t.Errorf("expected a duplicate code error, got %v", err)
	}

	dealerForm := controller.NewSimpleForm(n, "Revendeur créé", client.SubmitDealer)
	if _, err := dealerForm.Submit(ctx, forms.DealerPayload{Name: "Garage Lyon", Email: "contact@garage.fr", Phone: "0478000000"}); err != nil {
		t.Fatalf("dealer failed: %v", err)
	}
}

func TestUploadRejectsNonImages(t *testing.T) {
	ts := newTestServer(t, 100)
	client := apiclient.New(ts.url + "/admin")

	// Un faux .png : le serveur lit le contenu, pas l'extension.
	fake := &images.File{Name: "fake.png", Size: 5, MimeType: "image/png", Data: []byte("hello")}
	_, err := client.UploadImage(context.Background(), fake)
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Fields["image"] == "" {
		t.Fatalf("expected an image field error, got %v", err)
	}
}

func TestUploadRateLimited(t *testing.T) {
	ts := newTestServer(t, 1)
	client := apiclient.New(ts.url + "/admin")
	ctx := context.Background()

	if _, err := client.UploadImage(ctx, pngFile("a.png")); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	_, err := client.UploadImage(ctx, pngFile("b.png"))
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected a rate limit error, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 1)
	resp, err := http.Get(ts.url + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
