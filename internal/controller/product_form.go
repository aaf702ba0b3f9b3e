package controller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"

	"cedra_admin/internal/forms"
	"cedra_admin/internal/images"
	"cedra_admin/internal/models"
	"cedra_admin/internal/slug"
	"cedra_admin/internal/variants"
)

const (
	LabelSubmit     = "Enregistrer"
	LabelSubmitting = "Enregistrement..."
)

// ProductAPI regroupe les appels utilisés par le formulaire produit.
type ProductAPI interface {
	images.Uploader
	GenerateSlug(ctx context.Context, name string) (string, error)
	SubmitProduct(ctx context.Context, p forms.ProductPayload) (string, error)
}

// ProductView est l'état à afficher après chaque mutation.
type ProductView struct {
	Variants    []models.Variant
	Images      []images.Entry
	Slug        string
	Submitting  bool
	SubmitLabel string
}

// ProductForm pilote un formulaire produit pendant toute sa durée de vie :
// attributs, lignes de variantes, galerie d'images et envoi.
type ProductForm struct {
	mu          sync.Mutex
	api         ProductAPI
	notify      Notifier
	images      *images.Manager
	slugger     *slug.Debouncer
	slugDelay   time.Duration
	render      func(ProductView)
	draft       forms.ProductPayload
	attrs       []models.Attribute
	rows        []models.Variant
	slugTouched bool
	submitting  bool
	submitted   bool
	submitLabel string
}

type ProductFormOption func(*ProductForm)

// WithRender branche l'affichage : render reçoit la vue après chaque mutation.
func WithRender(render func(ProductView)) ProductFormOption {
	return func(f *ProductForm) { f.render = render }
}

// WithSlugDelay change le délai de la génération automatique du slug.
func WithSlugDelay(d time.Duration) ProductFormOption {
	return func(f *ProductForm) { f.slugDelay = d }
}

// NewProductForm ouvre un formulaire. existing est nil pour une création,
// sinon le produit édité (ses images deviennent les images enregistrées).
func NewProductForm(api ProductAPI, notify Notifier, existing *models.Product, opts ...ProductFormOption) *ProductForm {
	f := &ProductForm{api: api, notify: notify, submitLabel: LabelSubmit}

	var persisted []string
	if existing != nil {
		f.draft = forms.ProductPayload{
			Name:        existing.Name,
			Slug:        existing.Slug,
			Description: existing.Description,
			BasePrice:   existing.BasePrice,
			CategoryID:  existing.CategoryID,
		}
		if existing.ID != (gocql.UUID{}) {
			f.draft.ProductID = existing.ID.String()
		}
		f.attrs = existing.Attributes
		f.rows = existing.Variants
		f.slugTouched = true
		persisted = existing.ImageURLs
	}

	for _, opt := range opts {
		opt(f)
	}
	f.images = images.NewManager(persisted, func([]images.Entry) { f.emit() })
	f.slugger = slug.NewDebouncer(f.slugDelay, f.fetchSlug)
	return f
}

func (f *ProductForm) Images() *images.Manager { return f.images }

// Close arrête la génération de slug en attente.
func (f *ProductForm) Close() { f.slugger.Stop() }

func (f *ProductForm) SetDescription(desc string) {
	f.mu.Lock()
	f.draft.Description = desc
	f.mu.Unlock()
}

func (f *ProductForm) SetCategory(id string) {
	f.mu.Lock()
	f.draft.CategoryID = id
	f.mu.Unlock()
}

// SetBasePrice ne touche pas aux lignes existantes : le prix de base ne sert
// qu'à initialiser les lignes lors de la prochaine génération.
func (f *ProductForm) SetBasePrice(p decimal.Decimal) {
	f.mu.Lock()
	f.draft.BasePrice = p
	f.mu.Unlock()
}

// SetName met à jour le nom et relance la génération du slug, sauf si
// l'utilisateur a saisi le slug lui-même.
func (f *ProductForm) SetName(name string) {
	f.mu.Lock()
	f.draft.Name = name
	touched := f.slugTouched
	f.mu.Unlock()

	if !touched && name != "" {
		f.slugger.Trigger(name)
	}
}

// SetSlug fixe le slug à la main et coupe la génération automatique.
func (f *ProductForm) SetSlug(s string) {
	f.mu.Lock()
	f.draft.Slug = s
	f.slugTouched = true
	f.mu.Unlock()
	f.emit()
}

func (f *ProductForm) fetchSlug(ctx context.Context, name string) {
	s, err := f.api.GenerateSlug(ctx, name)
	if err != nil {
		log.Printf("⚠️ Génération du slug impossible pour %q: %v", name, err)
		s = slug.FromName(name)
	}

	f.mu.Lock()
	if f.slugTouched {
		f.mu.Unlock()
		return
	}
	f.draft.Slug = s
	f.mu.Unlock()
	f.emit()
}

// SelectAttributes remplace les attributs sélectionnés et régénère le tableau.
func (f *ProductForm) SelectAttributes(attrs []models.Attribute) {
	f.mu.Lock()
	f.attrs = attrs
	f.mu.Unlock()
	f.Regenerate()
}

// Regenerate reconstruit toutes les lignes ; les saisies précédentes sont perdues.
func (f *ProductForm) Regenerate() {
	f.mu.Lock()
	f.rows = variants.Build(f.attrs, f.draft.BasePrice)
	f.mu.Unlock()
	f.emit()
}

// UpdateVariant modifie la ligne i (activation, prix, stock).
func (f *ProductForm) UpdateVariant(i int, edit func(*models.Variant)) error {
	f.mu.Lock()
	if i < 0 || i >= len(f.rows) {
		f.mu.Unlock()
		return fmt.Errorf("variante %d inexistante", i)
	}
	edit(&f.rows[i])
	variants.Normalize(&f.rows[i])
	f.mu.Unlock()
	f.emit()
	return nil
}

func (f *ProductForm) Variants() []models.Variant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Variant(nil), f.rows...)
}

func (f *ProductForm) View() ProductView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *ProductForm) viewLocked() ProductView {
	return ProductView{
		Variants:    append([]models.Variant(nil), f.rows...),
		Images:      f.images.Entries(),
		Slug:        f.draft.Slug,
		Submitting:  f.submitting,
		SubmitLabel: f.submitLabel,
	}
}

func (f *ProductForm) emit() {
	if f.render == nil {
		return
	}
	f.mu.Lock()
	v := f.viewLocked()
	f.mu.Unlock()
	f.render(v)
}

// Submit valide le formulaire, uploade les nouvelles images puis envoie le
// produit. Tant que l'envoi est en cours le bouton reste désactivé ; en cas
// d'échec tout est conservé pour une nouvelle tentative.
func (f *ProductForm) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	switch {
	case f.submitted:
		f.mu.Unlock()
		return "", ErrSubmitted
	case f.submitting:
		f.mu.Unlock()
		return "", ErrSubmitting
	}

	payload := f.draft
	payload.Attributes = f.attrs
	payload.Variants = append([]models.Variant(nil), f.rows...)
	payload.Images = galleryPlaceholders(f.images.Entries())

	if fe := forms.Validate(payload); !fe.Empty() {
		f.mu.Unlock()
		f.notify.FieldErrors(fe)
		return "", &ValidationError{Fields: fe}
	}

	f.submitting = true
	f.submitLabel = LabelSubmitting
	f.mu.Unlock()
	f.emit()

	id, err := f.send(ctx, payload)

	f.mu.Lock()
	f.submitting = false
	f.submitLabel = LabelSubmit
	if err == nil {
		f.submitted = true
	}
	f.mu.Unlock()
	f.emit()

	return id, err
}

func (f *ProductForm) send(ctx context.Context, payload forms.ProductPayload) (string, error) {
	urls, err := f.images.Finalize(ctx, f.api)
	if err != nil {
		f.notify.Error(toastMessage("Échec de l'envoi des images", err))
		return "", err
	}
	payload.Images = urls

	id, err := f.api.SubmitProduct(ctx, payload)
	if err != nil {
		f.notify.Error(toastMessage("Échec de l'enregistrement", err))
		notifyServerFields(f.notify, err)
		return "", err
	}

	f.images.MarkSubmitted()
	f.notify.Success("Produit enregistré avec succès")
	return id, nil
}

// galleryPlaceholders décrit la galerie avant upload, pour la validation.
func galleryPlaceholders(entries []images.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Source == images.SourceStaged {
			out = append(out, "pending:"+e.File.Name)
			continue
		}
		out = append(out, e.URL)
	}
	return out
}
