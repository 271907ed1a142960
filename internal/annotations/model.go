package annotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trendgraph/internal/logger"
	"trendgraph/internal/models"
)

// GlobalScope is the storage key for annotations not bound to a dashboard item
const GlobalScope = "global"

// stagedPrefix marks ids of annotations that have not been written to a backend yet
const stagedPrefix = "staged-"

// ErrEmptyContent is returned when an annotation has no text
var ErrEmptyContent = errors.New("annotation content is empty")

// Scope selects the annotations of one dashboard item, or the global set when empty
type Scope struct {
	DashboardItem string
}

// Key returns the storage key of the scope
func (s Scope) Key() string {
	if s.DashboardItem == "" {
		return GlobalScope
	}
	return s.DashboardItem
}

// Persisted reports whether writes in this scope go straight to the backend
func (s Scope) Persisted() bool {
	return s.DashboardItem != ""
}

// Backend persists annotations
type Backend interface {
	List(ctx context.Context, scope Scope) ([]models.Annotation, error)
	Create(ctx context.Context, a models.Annotation) (models.Annotation, error)
	Close() error
}

// Collection is the annotation set a chart reads from and writes to
type Collection interface {
	Scope() Scope
	List() []models.Annotation
	CreateNow(ctx context.Context, content string, date time.Time) (models.Annotation, error)
	CreateStaged(content string, date time.Time) (models.Annotation, error)
	Subscribe(fn func([]models.Annotation)) (cancel func())
}

// IsStaged reports whether a was created with CreateStaged and not committed
func IsStaged(a models.Annotation) bool {
	return strings.HasPrefix(a.ID, stagedPrefix)
}

// Model is the in-process view of one scope's annotations. It is safe for
// concurrent use. Subscribers are called outside the data lock, one delivery
// at a time, and must not write to the model.
type Model struct {
	backend Backend
	scope   Scope
	viewer  models.Viewer
	log     *logger.Logger
	now     func() time.Time

	// notifyMu orders deliveries: each one snapshots after the previous finished
	notifyMu sync.Mutex

	mu      sync.Mutex
	items   []models.Annotation
	staged  []models.Annotation
	subs    map[int]func([]models.Annotation)
	nextSub int
}

// NewModel creates an empty model; call Load to fill it from the backend
func NewModel(backend Backend, scope Scope, viewer models.Viewer) *Model {
	return &Model{
		backend: backend,
		scope:   scope,
		viewer:  viewer,
		log:     logger.Component("annotations").With(logger.Fields{"scope": scope.Key()}),
		now:     time.Now,
		subs:    make(map[int]func([]models.Annotation)),
	}
}

// Scope returns the model's scope
func (m *Model) Scope() Scope {
	return m.scope
}

// Load replaces the persisted part of the collection with the backend's contents
func (m *Model) Load(ctx context.Context) error {
	list, err := m.backend.List(ctx, m.scope)
	if err != nil {
		return fmt.Errorf("failed to list annotations for %s: %w", m.scope.Key(), err)
	}
	m.mu.Lock()
	m.items = list
	m.mu.Unlock()
	m.log.Debug("Annotations loaded", logger.Fields{"count": len(list)})
	m.notify()
	return nil
}

// List returns persisted annotations followed by staged ones
func (m *Model) List() []models.Annotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Staged returns the annotations waiting for Commit
func (m *Model) Staged() []models.Annotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Annotation(nil), m.staged...)
}

func (m *Model) snapshotLocked() []models.Annotation {
	out := make([]models.Annotation, 0, len(m.items)+len(m.staged))
	out = append(out, m.items...)
	return append(out, m.staged...)
}

func (m *Model) draft(content string, date time.Time) (models.Annotation, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Annotation{}, ErrEmptyContent
	}
	var creator *models.Creator
	if m.viewer.Email != "" {
		creator = &models.Creator{FirstName: m.viewer.Name, Email: m.viewer.Email}
	}
	return models.Annotation{
		Content:       content,
		DateMarker:    date.UTC(),
		CreatedAt:     m.now().UTC(),
		CreatedBy:     creator,
		DashboardItem: m.scope.DashboardItem,
	}, nil
}

// CreateNow writes an annotation through to the backend and adds it to the collection
func (m *Model) CreateNow(ctx context.Context, content string, date time.Time) (models.Annotation, error) {
	a, err := m.draft(content, date)
	if err != nil {
		return models.Annotation{}, err
	}
	created, err := m.backend.Create(ctx, a)
	if err != nil {
		return models.Annotation{}, fmt.Errorf("failed to create annotation: %w", err)
	}
	m.mu.Lock()
	m.items = append(m.items, created)
	m.mu.Unlock()
	m.log.Info("Annotation created", logger.Fields{"id": created.ID, "date": models.FormatDay(created.DateMarker)})
	m.notify()
	return created, nil
}

// CreateStaged adds an annotation to the collection without writing it
func (m *Model) CreateStaged(content string, date time.Time) (models.Annotation, error) {
	a, err := m.draft(content, date)
	if err != nil {
		return models.Annotation{}, err
	}
	a.ID = stagedPrefix + uuid.NewString()
	m.mu.Lock()
	m.staged = append(m.staged, a)
	m.mu.Unlock()
	m.log.Debug("Annotation staged", logger.Fields{"id": a.ID})
	m.notify()
	return a, nil
}

// Commit writes staged annotations in order and returns how many were written.
// It stops at the first failure, leaving the rest staged.
func (m *Model) Commit(ctx context.Context) (int, error) {
	m.mu.Lock()
	pending := append([]models.Annotation(nil), m.staged...)
	m.mu.Unlock()

	written := 0
	var commitErr error
	for _, a := range pending {
		staged := a
		a.ID = ""
		created, err := m.backend.Create(ctx, a)
		if err != nil {
			commitErr = fmt.Errorf("failed to commit annotation %s: %w", staged.ID, err)
			break
		}
		m.mu.Lock()
		m.items = append(m.items, created)
		m.removeStagedLocked(staged.ID)
		m.mu.Unlock()
		written++
	}
	if written > 0 {
		m.log.Info("Staged annotations committed", logger.Fields{"count": written})
		m.notify()
	}
	return written, commitErr
}

func (m *Model) removeStagedLocked(id string) {
	for i, a := range m.staged {
		if a.ID == id {
			m.staged = append(m.staged[:i], m.staged[i+1:]...)
			return
		}
	}
}

// Subscribe registers fn to receive the collection after every change
func (m *Model) Subscribe(fn func([]models.Annotation)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Model) notify() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	list := m.snapshotLocked()
	fns := make([]func([]models.Annotation), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(list)
	}
}

// Registry hands out one loaded Model per scope
type Registry struct {
	backend Backend
	viewer  models.Viewer

	mu     sync.Mutex
	models map[string]*Model
}

// NewRegistry creates a registry over backend
func NewRegistry(backend Backend, viewer models.Viewer) *Registry {
	return &Registry{backend: backend, viewer: viewer, models: make(map[string]*Model)}
}

// For returns the model for scope, loading it on first use
func (r *Registry) For(ctx context.Context, scope Scope) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.models[scope.Key()]; ok {
		return m, nil
	}
	m := NewModel(r.backend, scope, r.viewer)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	r.models[scope.Key()] = m
	return m, nil
}

// Viewer returns the identity new annotations are attributed to
func (r *Registry) Viewer() models.Viewer {
	return r.viewer
}

// Close closes the backend
func (r *Registry) Close() error {
	return r.backend.Close()
}

// Dispatch runs a write, possibly asynchronously
type Dispatch func(func())

// GoDispatch runs each write on its own goroutine
func GoDispatch(fn func()) { go fn() }

// InlineDispatch runs writes on the caller's goroutine
func InlineDispatch(fn func()) { fn() }

// Submit creates an annotation in c, immediately for persisted scopes and
// staged otherwise
func Submit(ctx context.Context, c Collection, content string, date time.Time) (models.Annotation, error) {
	if c.Scope().Persisted() {
		return c.CreateNow(ctx, content, date)
	}
	return c.CreateStaged(content, date)
}
