package annotations

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"slices"
	"sync"
	"time"

	"trendgraph/internal/logger"
	"trendgraph/internal/models"
)

// ErrNoMarker is returned for a label index that has no marker
var ErrNoMarker = errors.New("no annotation marker at index")

// Entry is one annotation as listed in a marker panel
type Entry struct {
	ID        string        `json:"id"`
	Author    string        `json:"author"`
	CreatedAt time.Time     `json:"created_at"`
	Date      string        `json:"date"`
	Content   string        `json:"content"`
	HTML      template.HTML `json:"html"`
	Staged    bool          `json:"staged"`
}

// MarkerPanel is the popover opened from a marker
type MarkerPanel struct {
	Index   int     `json:"index"`
	Day     string  `json:"day"`
	Entries []Entry `json:"entries"`
	Draft   string  `json:"draft"`
}

// AuthorName picks the display name of an annotation's author, falling back to
// the viewer when the creator is unknown
func AuthorName(a models.Annotation, viewer models.Viewer) string {
	if a.CreatedBy != nil {
		if a.CreatedBy.FirstName != "" {
			return a.CreatedBy.FirstName
		}
		if a.CreatedBy.Email != "" {
			return a.CreatedBy.Email
		}
	}
	if viewer.Name != "" {
		return viewer.Name
	}
	return viewer.Email
}

// OverlayOption configures an Overlay
type OverlayOption func(*Overlay)

// WithOverlayDispatch sets how marker form writes are run
func WithOverlayDispatch(d Dispatch) OverlayOption {
	return func(o *Overlay) { o.dispatch = d }
}

// Overlay groups a collection's annotations against the chart's date labels
// and places markers along the x-axis
type Overlay struct {
	collection Collection
	viewer     models.Viewer
	dispatch   Dispatch
	log        *logger.Logger
	cancel     func()

	mu     sync.Mutex
	list   []models.Annotation
	labels []string
	groups Groups
	drafts map[int]string
}

// NewOverlay subscribes to c and regroups on every change
func NewOverlay(c Collection, viewer models.Viewer, opts ...OverlayOption) *Overlay {
	o := &Overlay{
		collection: c,
		viewer:     viewer,
		dispatch:   GoDispatch,
		log:        logger.Component("overlay"),
		drafts:     make(map[int]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.list = c.List()
	o.groups = Regroup(o.list, nil)
	o.cancel = c.Subscribe(o.onChange)
	return o
}

func (o *Overlay) onChange(list []models.Annotation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.list = list
	o.groups = Regroup(list, o.labels)
}

// SetLabels replaces the axis day labels, regrouping when they changed
func (o *Overlay) SetLabels(labeledDates []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if slices.Equal(o.labels, labeledDates) {
		return
	}
	o.labels = append([]string(nil), labeledDates...)
	o.groups = Regroup(o.list, o.labels)
	clear(o.drafts)
}

// Granularity is the bucket unit of the current label set
func (o *Overlay) Granularity() Granularity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.groups.Granularity
}

// Markers places the current buckets under geom
func (o *Overlay) Markers(geom models.AxisGeometry) []Marker {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.groups.Render(o.labels, geom)
}

func (o *Overlay) bucketLocked(index int) ([]models.Annotation, error) {
	if index < 0 || index >= len(o.labels) {
		return nil, fmt.Errorf("%w %d", ErrNoMarker, index)
	}
	bucket := o.groups.BucketForDay(o.labels[index])
	if len(bucket) == 0 {
		return nil, fmt.Errorf("%w %d", ErrNoMarker, index)
	}
	return bucket, nil
}

// Panel lists the annotations behind the marker at index
func (o *Overlay) Panel(index int) (MarkerPanel, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	bucket, err := o.bucketLocked(index)
	if err != nil {
		return MarkerPanel{}, err
	}
	entries := make([]Entry, 0, len(bucket))
	for _, a := range bucket {
		entries = append(entries, Entry{
			ID:        a.ID,
			Author:    AuthorName(a, o.viewer),
			CreatedAt: a.CreatedAt,
			Date:      models.FormatDay(a.DateMarker),
			Content:   a.Content,
			HTML:      ContentHTML(a.Content),
			Staged:    IsStaged(a),
		})
	}
	return MarkerPanel{
		Index:   index,
		Day:     o.labels[index],
		Entries: entries,
		Draft:   o.drafts[index],
	}, nil
}

// SetDraft stores the marker form text for index
func (o *Overlay) SetDraft(index int, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.bucketLocked(index); err != nil {
		return err
	}
	o.drafts[index] = text
	return nil
}

// Submit appends the marker form text as an annotation dated at label index
// and clears the form. The write is dispatched; failures are logged.
func (o *Overlay) Submit(ctx context.Context, index int) error {
	o.mu.Lock()
	if _, err := o.bucketLocked(index); err != nil {
		o.mu.Unlock()
		return err
	}
	content := o.drafts[index]
	day := o.labels[index]
	delete(o.drafts, index)
	o.mu.Unlock()

	date, err := models.ParseDay(day)
	if err != nil {
		return fmt.Errorf("marker %d has invalid day %q: %w", index, day, err)
	}
	ctx = context.WithoutCancel(ctx)
	o.dispatch(func() {
		if _, err := Submit(ctx, o.collection, content, date); err != nil {
			o.log.Error("Failed to create annotation from marker", err, logger.Fields{"index": index, "day": day})
		}
	})
	return nil
}

// Close stops following the collection
func (o *Overlay) Close() {
	if o.cancel != nil {
		o.cancel()
	}
}
