package main

import (
	"context"
	"encoding/json"
	"testing"

	"cedra_admin/internal/controller"
	"cedra_admin/internal/forms"
	"cedra_admin/internal/images"
)

type stubAPI struct{ slugCalls int }

func (s *stubAPI) UploadImage(ctx context.Context, f *images.File) (string, error) {
	return "https://cdn.exemple.fr/" + f.Name, nil
}

func (s *stubAPI) GenerateSlug(ctx context.Context, name string) (string, error) {
	s.slugCalls++
	return "jante-alu", nil
}

func (s *stubAPI) SubmitProduct(ctx context.Context, p forms.ProductPayload) (string, error) {
	return "id", nil
}

const sample = `{
  "name": "Jante alu",
  "basePrice": "120",
  "categoryId": "roues",
  "attributes": [
    {"id": "taille", "name": "Taille", "type": "select", "options": [
      {"label": "16", "value": "16"}, {"label": "17", "value": "17"}
    ]}
  ],
  "variants": [{"index": 1, "stock": 8, "status": false}]
}`

func TestManifestApply(t *testing.T) {
	var m manifest
	if err := json.Unmarshal([]byte(sample), &m); err != nil {
		t.Fatal(err)
	}

	api := &stubAPI{}
	form := controller.NewProductForm(api, controller.LogNotifier{}, nil)
	defer form.Close()

	if err := m.apply(context.Background(), api, form); err != nil {
		t.Fatal(err)
	}

	view := form.View()
	if view.Slug != "jante-alu" || api.slugCalls != 1 {
		t.Errorf("unexpected slug %q after %d calls", view.Slug, api.slugCalls)
	}
	if len(view.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(view.Variants))
	}
	if v := view.Variants[0]; !v.Price.Equal(*m.BasePrice) || !v.Status {
		t.Errorf("first row should keep base price and stay active: %+v", v)
	}
	if v := view.Variants[1]; v.Stock != 8 || v.Status {
		t.Errorf("second row not edited: %+v", v)
	}
}

func TestManifestApplyUnknownVariant(t *testing.T) {
	m := manifest{Slug: "x", Variants: []variantEdit{{Index: 3}}}
	form := controller.NewProductForm(&stubAPI{}, controller.LogNotifier{}, nil)
	defer form.Close()

	if err := m.apply(context.Background(), &stubAPI{}, form); err == nil {
		t.Error("expected error for a missing row")
	}
}

func TestParseOrder(t *testing.T) {
	perm, err := parseOrder("2, 0,1")
	if err != nil || len(perm) != 3 || perm[0] != 2 || perm[2] != 1 {
		t.Errorf("unexpected %v %v", perm, err)
	}
	if _, err := parseOrder("a,b"); err == nil {
		t.Error("expected error")
	}
}
