package controller

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cedra_admin/internal/apiclient"
	"cedra_admin/internal/forms"
	"cedra_admin/internal/images"
	"cedra_admin/internal/models"
)

type recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	fields    []forms.FieldErrors
}

func (r *recorder) Success(msg string) { r.mu.Lock(); r.successes = append(r.successes, msg); r.mu.Unlock() }
func (r *recorder) Error(msg string)   { r.mu.Lock(); r.errors = append(r.errors, msg); r.mu.Unlock() }
func (r *recorder) FieldErrors(fe forms.FieldErrors) {
	r.mu.Lock()
	r.fields = append(r.fields, fe)
	r.mu.Unlock()
}

type fakeAPI struct {
	mu         sync.Mutex
	uploadErr  error
	submitErr  error
	slugCalls  []string
	uploads    []string
	product    *forms.ProductPayload
	variants   []models.Variant
	allocation *forms.AllocationPayload
	pricing    *forms.PricingPayload
	release    chan struct{}
}

func (a *fakeAPI) UploadImage(ctx context.Context, f *images.File) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads = append(a.uploads, f.Name)
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	return "https://cdn/" + f.Name, nil
}

func (a *fakeAPI) GenerateSlug(ctx context.Context, name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slugCalls = append(a.slugCalls, name)
	return "srv-" + name, nil
}

func (a *fakeAPI) SubmitProduct(ctx context.Context, p forms.ProductPayload) (string, error) {
	if a.release != nil {
		<-a.release
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitErr != nil {
		return "", a.submitErr
	}
	a.product = &p
	return "p-1", nil
}

func (a *fakeAPI) ProductVariants(ctx context.Context, productID string) ([]models.Variant, error) {
	return a.variants, nil
}

func (a *fakeAPI) SubmitAllocation(ctx context.Context, p forms.AllocationPayload) (string, error) {
	a.allocation = &p
	return "a-1", nil
}

func (a *fakeAPI) SubmitPricing(ctx context.Context, p forms.PricingPayload) (string, error) {
	a.pricing = &p
	return "pr-1", nil
}

func colorSize() []models.Attribute {
	return []models.Attribute{
		{ID: "color", Name: "Couleur", Type: models.AttributeColor, Options: []models.Option{
			{Label: "Rouge", Value: "#f00"}, {Label: "Bleu", Value: "#00f"},
		}},
		{ID: "size", Name: "Taille", Type: models.AttributeSelect, Options: []models.Option{
			{Label: "S", Value: "s"}, {Label: "M", Value: "m"}, {Label: "XL", Value: "xl", Disabled: true},
		}},
	}
}

func png(name string) *images.File {
	return &images.File{Name: name, Size: 3, MimeType: "image/png", Data: []byte{1, 2, 3}}
}

func filledForm(t *testing.T, api *fakeAPI, n Notifier) *ProductForm {
	t.Helper()
	f := NewProductForm(api, n, nil)
	t.Cleanup(f.Close)
	f.SetSlug("t-shirt")
	f.SetCategory("cat-1")
	f.SetBasePrice(decimal.NewFromInt(20))
	f.SetName("T-shirt")
	f.SelectAttributes(colorSize())
	return f
}

func TestRegenerateSeedsBasePrice(t *testing.T) {
	f := filledForm(t, &fakeAPI{}, &recorder{})

	rows := f.Variants()
	if len(rows) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(rows))
	}
	if got := rows[1].Label(); got != "Rouge / M" {
		t.Errorf("unexpected second label %q", got)
	}
	for i, v := range rows {
		if !v.Price.Equal(decimal.NewFromInt(20)) || !v.Status || v.Stock != 0 {
			t.Errorf("row %d not seeded with defaults: %+v", i, v)
		}
	}

	// Le prix de base ne modifie pas les lignes existantes.
	f.SetBasePrice(decimal.NewFromInt(30))
	if !f.Variants()[0].Price.Equal(decimal.NewFromInt(20)) {
		t.Errorf("existing rows must keep their price")
	}
	f.Regenerate()
	if !f.Variants()[0].Price.Equal(decimal.NewFromInt(30)) {
		t.Errorf("regenerated rows must use the new base price")
	}
}

func TestUpdateVariant(t *testing.T) {
	f := filledForm(t, &fakeAPI{}, &recorder{})

	err := f.UpdateVariant(2, func(v *models.Variant) {
		v.Price = decimal.NewFromInt(25)
		v.DiscountedPrice = decimal.Zero
		v.Stock = 7
	})
	if err != nil {
		t.Fatalf("UpdateVariant() error: %v", err)
	}
	v := f.Variants()[2]
	if !v.DiscountedPrice.Equal(decimal.NewFromInt(25)) || v.Stock != 7 {
		t.Errorf("unexpected row after update: %+v", v)
	}
	if err := f.UpdateVariant(9, func(*models.Variant) {}); err == nil {
		t.Errorf("expected an error for an unknown row")
	}
}

func TestSubmitValidatesBeforeNetwork(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	f := filledForm(t, api, rec)

	_, err := f.Submit(context.Background())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if _, ok := ve.Fields["images"]; !ok {
		t.Errorf("expected an images error, got %v", ve.Fields)
	}
	if len(api.uploads) != 0 || api.product != nil {
		t.Errorf("no network call expected on invalid form")
	}
	if len(rec.fields) != 1 {
		t.Errorf("expected inline errors to be shown")
	}
}

func TestSubmitUploadsInVisualOrder(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	f := NewProductForm(api, rec, &models.Product{
		Name: "T-shirt", Slug: "t-shirt", CategoryID: "cat-1",
		BasePrice: decimal.NewFromInt(20), ImageURLs: []string{"https://cdn/old.png"},
	})
	t.Cleanup(f.Close)
	f.SelectAttributes(colorSize())

	if _, err := f.Images().AddFiles(png("a.png"), png("b.png")); err != nil {
		t.Fatal(err)
	}
	// old, a, b -> b, old, a
	if err := f.Images().Move(2, 0); err != nil {
		t.Fatal(err)
	}

	id, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if id != "p-1" {
		t.Errorf("unexpected id %q", id)
	}

	want := []string{"https://cdn/b.png", "https://cdn/old.png", "https://cdn/a.png"}
	if !reflect.DeepEqual(api.product.Images, want) {
		t.Errorf("expected images %v, got %v", want, api.product.Images)
	}
	if len(rec.successes) != 1 {
		t.Errorf("expected a success toast, got %v", rec.successes)
	}
	if f.Images().State() != images.StateSubmitted {
		t.Errorf("expected submitted gallery, got %s", f.Images().State())
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrSubmitted) {
		t.Errorf("expected ErrSubmitted, got %v", err)
	}
}

func TestSubmitUploadFailureKeepsState(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.New("quota")}
	rec := &recorder{}
	f := filledForm(t, api, rec)
	if _, err := f.Images().AddFiles(png("a.png")); err != nil {
		t.Fatal(err)
	}

	if _, err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected an upload error")
	}
	if api.product != nil {
		t.Errorf("product must not be sent when an upload fails")
	}
	if len(rec.errors) != 1 {
		t.Errorf("expected an error toast, got %v", rec.errors)
	}
	v := f.View()
	if v.Submitting || v.SubmitLabel != LabelSubmit {
		t.Errorf("submit control must be restored: %+v", v)
	}
	if len(f.Images().Staged()) != 1 {
		t.Errorf("staged file must be kept for retry")
	}

	api.uploadErr = nil
	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestSubmitServerErrorShowsMessage(t *testing.T) {
	api := &fakeAPI{submitErr: &apiclient.APIError{
		Message: "Slug déjà utilisé",
		Fields:  map[string]string{"slug": "Ce slug existe déjà."},
	}}
	rec := &recorder{}
	f := filledForm(t, api, rec)
	if _, err := f.Images().AddFiles(png("a.png")); err != nil {
		t.Fatal(err)
	}

	if _, err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected an API error")
	}
	if !reflect.DeepEqual(rec.errors, []string{"Slug déjà utilisé"}) {
		t.Errorf("unexpected toasts %v", rec.errors)
	}
	if len(rec.fields) != 1 || rec.fields[0]["slug"] == "" {
		t.Errorf("expected server field errors inline, got %v", rec.fields)
	}
	if f.Images().State() != images.StateStaging {
		t.Errorf("gallery must stay editable, got %s", f.Images().State())
	}
}

func TestSubmitRejectsDoubleClick(t *testing.T) {
	api := &fakeAPI{release: make(chan struct{})}
	var views []ProductView
	var mu sync.Mutex
	f := NewProductForm(api, &recorder{}, nil, WithRender(func(v ProductView) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	}))
	t.Cleanup(f.Close)
	f.SetSlug("t-shirt")
	f.SetCategory("cat-1")
	f.SetName("T-shirt")
	f.SelectAttributes(colorSize())
	if _, err := f.Images().AddFiles(png("a.png")); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for !f.View().Submitting {
		if time.Now().After(deadline) {
			t.Fatal("form never entered submitting state")
		}
		time.Sleep(time.Millisecond)
	}
	if got := f.View().SubmitLabel; got != LabelSubmitting {
		t.Errorf("expected busy label, got %q", got)
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrSubmitting) {
		t.Errorf("expected ErrSubmitting, got %v", err)
	}

	close(api.release)
	if err := <-done; err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if last := views[len(views)-1]; last.Submitting || last.SubmitLabel != LabelSubmit {
		t.Errorf("submit control must be restored after the request: %+v", last)
	}
}

func TestNameChangeDebouncesSlug(t *testing.T) {
	api := &fakeAPI{}
	f := NewProductForm(api, &recorder{}, nil, WithSlugDelay(40*time.Millisecond))
	t.Cleanup(f.Close)

	for _, name := range []string{"T", "T-", "T-sh", "T-shirt"} {
		f.SetName(name)
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(120 * time.Millisecond)

	api.mu.Lock()
	calls := append([]string(nil), api.slugCalls...)
	api.mu.Unlock()
	if !reflect.DeepEqual(calls, []string{"T-shirt"}) {
		t.Fatalf("expected a single slug request, got %v", calls)
	}
	if got := f.View().Slug; got != "srv-T-shirt" {
		t.Errorf("unexpected slug %q", got)
	}

	// Un slug saisi à la main n'est plus écrasé.
	f.SetSlug("mon-slug")
	f.SetName("Autre")
	time.Sleep(80 * time.Millisecond)
	if got := f.View().Slug; got != "mon-slug" {
		t.Errorf("manual slug overwritten: %q", got)
	}
}

func dealerVariants() []models.Variant {
	return []models.Variant{
		{AttributeValues: []models.AttributeValue{{AttributeID: "size", Label: "S", Value: "s"}}, Status: true, Stock: 5},
		{AttributeValues: []models.AttributeValue{{AttributeID: "size", Label: "M", Value: "m"}}, Status: false, Stock: 9},
	}
}

func TestAllocationForm(t *testing.T) {
	api := &fakeAPI{variants: dealerVariants()}
	rec := &recorder{}
	f := NewAllocationForm(api, rec)

	payload := forms.AllocationPayload{DealerID: "d-1", ProductID: "p-1", VariantIndex: 0, Quantity: 2}
	if _, err := f.Submit(context.Background(), payload); err == nil {
		t.Fatal("expected an error before variants are loaded")
	}

	choices, err := f.LoadVariants(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("LoadVariants() error: %v", err)
	}
	if len(choices) != 2 || choices[0].Label != "S" || choices[1].Enabled {
		t.Errorf("unexpected choices %+v", choices)
	}

	cases := []struct {
		name  string
		index int
		qty   int
		field string
	}{
		{"out of range", 5, 1, "variantIndex"},
		{"disabled", 1, 1, "variantIndex"},
		{"insufficient stock", 0, 6, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := payload
			p.VariantIndex, p.Quantity = tc.index, tc.qty
			_, err := f.Submit(context.Background(), p)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Fields[tc.field] == "" {
				t.Errorf("expected %s error, got %v", tc.field, err)
			}
		})
	}

	id, err := f.Submit(context.Background(), payload)
	if err != nil || id != "a-1" {
		t.Fatalf("Submit() = %q, %v", id, err)
	}
	if api.allocation.VariantIndex != 0 || api.allocation.Quantity != 2 {
		t.Errorf("unexpected allocation sent %+v", api.allocation)
	}
	if len(rec.successes) != 1 {
		t.Errorf("expected a success toast")
	}
}

func TestPricingForm(t *testing.T) {
	api := &fakeAPI{variants: dealerVariants()}
	f := NewPricingForm(api, &recorder{})
	if _, err := f.LoadVariants(context.Background(), "p-1"); err != nil {
		t.Fatal(err)
	}

	bad := forms.PricingPayload{DealerID: "d-1", ProductID: "p-1", VariantIndex: 0,
		Price: decimal.NewFromInt(10), DiscountedPrice: decimal.NewFromInt(12)}
	if _, err := f.Submit(context.Background(), bad); err == nil {
		t.Errorf("expected discounted price error")
	}

	ok := bad
	ok.DiscountedPrice = decimal.NewFromInt(8)
	if _, err := f.Submit(context.Background(), ok); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !api.pricing.DiscountedPrice.Equal(decimal.NewFromInt(8)) {
		t.Errorf("unexpected pricing sent %+v", api.pricing)
	}
}
