package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"trendgraph/internal/charts"
	"trendgraph/internal/models"
)

// ErrUnknownPanel is returned for panel ids that are not live
var ErrUnknownPanel = errors.New("unknown panel")

// panelEntry guards one live panel. Panels are not safe for concurrent use,
// so every handler works on them under mu.
type panelEntry struct {
	mu     sync.Mutex
	id     string
	panel  *charts.Panel
	clicks []models.PointClick
}

// maxClicks bounds the click history kept per panel
const maxClicks = 32

// recordClick is installed as the panel's point click callback. Only the
// latest maxClicks clicks are kept.
func (e *panelEntry) recordClick(click models.PointClick) {
	if len(e.clicks) >= maxClicks {
		n := copy(e.clicks, e.clicks[len(e.clicks)-maxClicks+1:])
		e.clicks = e.clicks[:n]
	}
	e.clicks = append(e.clicks, click)
}

// panelStore holds live panels by id
type panelStore struct {
	mu     sync.RWMutex
	panels map[string]*panelEntry
}

func newPanelStore() *panelStore {
	return &panelStore{panels: make(map[string]*panelEntry)}
}

func newPanelEntry(panel *charts.Panel) *panelEntry {
	return &panelEntry{id: uuid.NewString(), panel: panel}
}

func (s *panelStore) add(e *panelEntry) {
	s.mu.Lock()
	s.panels[e.id] = e
	s.mu.Unlock()
}

func (s *panelStore) get(id string) (*panelEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.panels[id]
	return e, ok
}

// remove forgets id and releases its panel
func (s *panelStore) remove(id string) bool {
	s.mu.Lock()
	e, ok := s.panels[id]
	delete(s.panels, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.panel.Release()
	e.mu.Unlock()
	return true
}

func (s *panelStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.panels)
}

// releaseAll releases and forgets every panel, returning how many there were
func (s *panelStore) releaseAll() int {
	s.mu.Lock()
	entries := s.panels
	s.panels = make(map[string]*panelEntry)
	s.mu.Unlock()
	for _, e := range entries {
		e.mu.Lock()
		e.panel.Release()
		e.mu.Unlock()
	}
	return len(entries)
}
