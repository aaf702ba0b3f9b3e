package images

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	ErrBusy           = errors.New("images: finalisation en cours")
	ErrPosition       = errors.New("images: position invalide")
	ErrSourceMismatch = errors.New("images: la position ne correspond pas à la source")
	ErrPermutation    = errors.New("images: permutation invalide")
)

type Source string

const (
	SourcePersisted Source = "persisted"
	SourceStaged    Source = "staged"
)

type State int

const (
	StateIdle State = iota
	StateStaging
	StateFinalizing
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaging:
		return "staging"
	case StateFinalizing:
		return "finalizing"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Entry est une image de la galerie, dans l'ordre affiché.
type Entry struct {
	Source Source
	URL    string
	File   *File
}

// Uploader envoie un fichier et renvoie son URL publique.
type Uploader interface {
	UploadImage(ctx context.Context, f *File) (string, error)
}

type Rejection struct {
	File   *File
	Reason string
}

const (
	ReasonNotImage  = "le fichier n'est pas une image"
	ReasonDuplicate = "fichier déjà ajouté"

	DefaultUploadLimit = 4
)

// Manager tient la liste ordonnée des images d'un formulaire : les URLs déjà
// enregistrées et les fichiers locaux en attente d'upload. L'ordre de order
// est la seule source de vérité ; persisted et staged en sont des projections.
type Manager struct {
	mu          sync.Mutex
	order       []Entry
	state       State
	uploadLimit int
	onChange    func([]Entry)
}

// NewManager crée un gestionnaire initialisé avec les URLs déjà enregistrées.
// onChange (optionnel) reçoit l'ordre courant après chaque mutation.
func NewManager(persisted []string, onChange func([]Entry)) *Manager {
	m := &Manager{
		order:       make([]Entry, 0, len(persisted)),
		uploadLimit: DefaultUploadLimit,
		onChange:    onChange,
	}
	for _, url := range persisted {
		m.order = append(m.order, Entry{Source: SourcePersisted, URL: url})
	}
	m.state = m.restingState()
	return m
}

// SetUploadLimit borne le nombre d'uploads simultanés pendant Finalize.
func (m *Manager) SetUploadLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 {
		n = 1
	}
	m.uploadLimit = n
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Persisted renvoie les URLs enregistrées dans l'ordre affiché.
func (m *Manager) Persisted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.order {
		if e.Source == SourcePersisted {
			out = append(out, e.URL)
		}
	}
	return out
}

// Staged renvoie les fichiers en attente dans l'ordre affiché.
func (m *Manager) Staged() []*File {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*File
	for _, e := range m.order {
		if e.Source == SourceStaged {
			out = append(out, e.File)
		}
	}
	return out
}

// AddFiles ajoute les images à la fin de la liste. Les fichiers qui ne sont
// pas des images ou dont le couple (nom, taille) est déjà en attente sont
// écartés et renvoyés avec leur motif.
func (m *Manager) AddFiles(files ...*File) ([]Rejection, error) {
	m.mu.Lock()
	if err := m.checkMutable(); err != nil {
		m.mu.Unlock()
		return nil, err
	}

	var rejected []Rejection
	for _, f := range files {
		if f == nil {
			continue
		}
		if !f.IsImage() {
			rejected = append(rejected, Rejection{File: f, Reason: ReasonNotImage})
			continue
		}
		if m.hasStaged(f) {
			rejected = append(rejected, Rejection{File: f, Reason: ReasonDuplicate})
			continue
		}
		m.order = append(m.order, Entry{Source: SourceStaged, File: f})
	}
	m.state = m.restingState()
	snap := m.snapshot()
	m.mu.Unlock()

	m.emit(snap)
	return rejected, nil
}

// RemoveAt retire l'entrée à la position courante donnée. source est la
// source attendue au moment du clic : si l'entrée a changé entre-temps,
// rien n'est retiré.
func (m *Manager) RemoveAt(position int, source Source) error {
	m.mu.Lock()
	if err := m.checkMutable(); err != nil {
		m.mu.Unlock()
		return err
	}
	if position < 0 || position >= len(m.order) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrPosition, position)
	}
	if m.order[position].Source != source {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d est %s", ErrSourceMismatch, position, m.order[position].Source)
	}

	m.order = append(m.order[:position], m.order[position+1:]...)
	m.state = m.restingState()
	snap := m.snapshot()
	m.mu.Unlock()

	m.emit(snap)
	return nil
}

// Reorder applique une permutation explicite : la nouvelle position i reçoit
// l'entrée qui était en position perm[i].
func (m *Manager) Reorder(perm []int) error {
	m.mu.Lock()
	if err := m.checkMutable(); err != nil {
		m.mu.Unlock()
		return err
	}
	if !isPermutation(perm, len(m.order)) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrPermutation, perm)
	}

	next := make([]Entry, len(m.order))
	for i, from := range perm {
		next[i] = m.order[from]
	}
	m.order = next
	m.state = m.restingState()
	snap := m.snapshot()
	m.mu.Unlock()

	m.emit(snap)
	return nil
}

// Move déplace une entrée, comme un glisser-déposer.
func (m *Manager) Move(from, to int) error {
	n := m.Len()
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: %d -> %d", ErrPosition, from, to)
	}
	return m.Reorder(movePermutation(n, from, to))
}

// Finalize renvoie la liste finale des URLs dans l'ordre affiché. Les fichiers
// en attente sont uploadés en parallèle ; chaque URL reprend la position de
// son fichier. Si un seul upload échoue, aucune liste n'est renvoyée et l'état
// reste intact pour une nouvelle tentative.
func (m *Manager) Finalize(ctx context.Context, up Uploader) ([]string, error) {
	m.mu.Lock()
	if m.state == StateFinalizing || m.state == StateSubmitted {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.state = StateFinalizing
	entries := m.snapshot()
	limit := m.uploadLimit
	m.mu.Unlock()

	urls := make([]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, e := range entries {
		if e.Source == SourcePersisted {
			urls[i] = e.URL
			continue
		}
		i, f := i, e.File
		g.Go(func() error {
			url, err := up.UploadImage(gctx, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}

	err := g.Wait()

	m.mu.Lock()
	m.state = m.restingState()
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return urls, nil
}

// MarkSubmitted clôt la session après un envoi réussi du formulaire.
func (m *Manager) MarkSubmitted() {
	m.mu.Lock()
	m.order = nil
	m.state = StateSubmitted
	m.mu.Unlock()
}

func (m *Manager) checkMutable() error {
	if m.state == StateFinalizing || m.state == StateSubmitted {
		return ErrBusy
	}
	return nil
}

func (m *Manager) hasStaged(f *File) bool {
	for _, e := range m.order {
		if e.Source == SourceStaged && e.File.sameAs(f) {
			return true
		}
	}
	return false
}

func (m *Manager) restingState() State {
	if len(m.order) == 0 {
		return StateIdle
	}
	return StateStaging
}

func (m *Manager) snapshot() []Entry {
	out := make([]Entry, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Manager) emit(entries []Entry) {
	if m.onChange != nil {
		m.onChange(entries)
	}
}

func isPermutation(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

func movePermutation(n, from, to int) []int {
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != from {
			idx = append(idx, i)
		}
	}
	perm := make([]int, 0, n)
	perm = append(perm, idx[:to]...)
	perm = append(perm, from)
	perm = append(perm, idx[to:]...)
	return perm
}
