package charts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"trendgraph/internal/annotations"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
)

var (
	ErrNoInstance  = errors.New("chart has no live instance")
	ErrFormClosed  = errors.New("annotation form is not open")
	ErrNoSelection = errors.New("no label is hovered")
	ErrNoPoint     = errors.New("no such point")
)

// Cursor styles
const (
	CursorPointer = "pointer"
	CursorDefault = "default"
)

// affordanceOffset centers the add button on the hovered x
const affordanceOffset = 15

// Props are the inputs of a chart panel
type Props struct {
	Datasets        []models.Series         `json:"datasets"`
	Labels          []string                `json:"labels"`
	Color           string                  `json:"color,omitempty"`
	ChartType       models.ChartType        `json:"type,omitempty"`
	IsInProgress    bool                    `json:"isInProgress,omitempty"`
	OnPointClick    func(models.PointClick) `json:"-"`
	AnalyticsTag    string                  `json:"dataAttr,omitempty"`
	DashboardItemID string                  `json:"dashboardItemId,omitempty"`
}

// Scope is the annotation scope the panel writes to
func (p Props) Scope() annotations.Scope {
	return annotations.Scope{DashboardItem: p.DashboardItemID}
}

// LabeledDates are the day labels of the first series
func (p Props) LabeledDates() []string {
	if len(p.Datasets) == 0 {
		return nil
	}
	return p.Datasets[0].Days
}

// needsRebuild reports whether anything the chart is drawn from changed
func needsRebuild(old, next Props) bool {
	return old.Color != next.Color ||
		old.ChartType != next.ChartType ||
		old.IsInProgress != next.IsInProgress ||
		!reflect.DeepEqual(old.Labels, next.Labels) ||
		!reflect.DeepEqual(old.Datasets, next.Datasets)
}

// Event is a reason to recompute axis geometry
type Event int

const (
	DataChanged Event = iota
	InstanceReplaced
	ViewportResized
)

func (e Event) String() string {
	switch e {
	case DataChanged:
		return "data_changed"
	case InstanceReplaced:
		return "instance_replaced"
	case ViewportResized:
		return "viewport_resized"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Affordance is the floating add-annotation button
type Affordance struct {
	Visible    bool    `json:"visible"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	LabelIndex int     `json:"labelIndex"`
}

// State is a snapshot of everything the panel shows besides the chart itself
type State struct {
	Type         models.ChartType        `json:"type"`
	Canvas       Canvas                  `json:"canvas"`
	Geometry     *models.AxisGeometry    `json:"geometry"`
	Hover        models.HoverSelection   `json:"hover"`
	Draft        string                  `json:"draft"`
	Affordance   Affordance              `json:"affordance"`
	Cursor       string                  `json:"cursor"`
	Granularity  annotations.Granularity `json:"granularity"`
	Markers      []annotations.Marker    `json:"markers"`
	AnalyticsTag string                  `json:"dataAttr,omitempty"`
}

// CollectionProvider resolves the annotation collection for a scope
type CollectionProvider func(ctx context.Context, scope annotations.Scope) (annotations.Collection, error)

// RegistryProvider resolves collections through a registry
func RegistryProvider(r *annotations.Registry) CollectionProvider {
	return func(ctx context.Context, scope annotations.Scope) (annotations.Collection, error) {
		return r.For(ctx, scope)
	}
}

// PanelOption configures a Panel
type PanelOption func(*Panel)

// WithPalette sets the color resolver
func WithPalette(r palette.Resolver) PanelOption {
	return func(p *Panel) { p.colors = r }
}

// WithDispatch sets how annotation writes are run
func WithDispatch(d annotations.Dispatch) PanelOption {
	return func(p *Panel) { p.dispatch = d }
}

// WithCanvas sets the initial canvas size
func WithCanvas(c Canvas) PanelOption {
	return func(p *Panel) { p.canvas = c }
}

// Panel owns one chart instance, its pointer interaction and its annotation overlay.
// A Panel is not safe for concurrent use.
type Panel struct {
	engine      Engine
	collections CollectionProvider
	viewer      models.Viewer
	colors      palette.Resolver
	dispatch    annotations.Dispatch
	log         *logger.Logger

	props    Props
	built    bool
	canvas   Canvas
	instance Instance
	datasets []models.Dataset

	scope      annotations.Scope
	collection annotations.Collection
	overlay    *annotations.Overlay

	scale    Scale
	geometry *models.AxisGeometry

	hover models.HoverSelection
	draft string
}

// NewPanel creates an empty panel; SetProps builds the chart
func NewPanel(engine Engine, collections CollectionProvider, viewer models.Viewer, opts ...PanelOption) *Panel {
	p := &Panel{
		engine:      engine,
		collections: collections,
		viewer:      viewer,
		colors:      palette.New(),
		dispatch:    annotations.GoDispatch,
		log:         logger.Component("panel"),
		canvas:      Canvas{Width: 900, Height: 500},
		hover:       models.NoHover,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetProps replaces the panel inputs, rebuilding the chart when its data or look changed
func (p *Panel) SetProps(ctx context.Context, props Props) error {
	if err := p.bindCollection(ctx, props.Scope()); err != nil {
		return err
	}

	rebuild := !p.built || needsRebuild(p.props, props)
	p.props = props
	p.overlay.SetLabels(props.LabeledDates())
	if !rebuild {
		return nil
	}

	if err := p.build(ctx); err != nil {
		return err
	}
	p.built = true
	p.hover = models.NoHover
	p.invalidate(DataChanged)
	p.invalidate(InstanceReplaced)
	return nil
}

func (p *Panel) bindCollection(ctx context.Context, scope annotations.Scope) error {
	if p.overlay != nil && p.scope == scope {
		return nil
	}
	c, err := p.collections(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to load annotations for %s: %w", scope.Key(), err)
	}
	if p.overlay != nil {
		p.overlay.Close()
	}
	p.scope = scope
	p.collection = c
	p.overlay = annotations.NewOverlay(c, p.viewer, annotations.WithOverlayDispatch(p.dispatch))
	return nil
}

// build releases the current instance and creates the next one. Layout and
// hover of the released instance are dropped first, so a failed create
// leaves nothing to hit-test against.
func (p *Panel) build(ctx context.Context) error {
	if p.instance != nil {
		p.instance.Destroy()
		p.instance = nil
	}
	p.built = false
	p.geometry = nil
	p.scale = Scale{}
	p.hover = models.NoHover

	theme := p.props.Color
	if theme == "" {
		theme = palette.DefaultTheme
	}
	p.datasets = BuildDatasets(p.props.Datasets, p.props.ChartType, p.props.IsInProgress, p.colors.Colors(theme))
	cfg := NewConfig(p.props.ChartType, p.props.Labels, p.datasets, palette.ThemeFor(theme))

	inst, err := p.engine.Create(ctx, p.canvas, cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s chart: %w", p.engine.Name(), err)
	}
	p.instance = inst
	p.log.Debug("Chart built", logger.Fields{
		"type":     string(cfg.Type),
		"datasets": len(p.datasets),
		"labels":   len(p.props.Labels),
	})
	return nil
}

// invalidate recomputes the axis geometry. Without an instance or an x-axis
// the geometry is dropped and the cycle skipped.
func (p *Panel) invalidate(ev Event) {
	p.geometry = nil
	if p.instance == nil {
		p.log.Debug("Geometry skipped", logger.Fields{"event": ev.String(), "reason": ErrNoInstance.Error()})
		return
	}
	scale, ok := p.instance.Scale(XAxisKey)
	if !ok {
		return
	}
	geom := scale.AxisGeometry()
	p.scale = scale
	p.geometry = &geom
}

// Resize lays the chart out for a new viewport
func (p *Panel) Resize(width, height int) {
	p.canvas = Canvas{Width: width, Height: height}
	if p.instance != nil {
		p.instance.Resize(width, height)
	}
	p.invalidate(ViewportResized)
}

// Geometry is the current x-axis layout handed to the overlay
func (p *Panel) Geometry() (models.AxisGeometry, error) {
	if p.instance == nil {
		return models.AxisGeometry{}, ErrNoInstance
	}
	if p.geometry == nil {
		return models.AxisGeometry{}, fmt.Errorf("%w: %s chart has no x-axis", ErrNoInstance, p.props.ChartType)
	}
	return *p.geometry, nil
}

// Datasets are the rendered datasets of the current build
func (p *Panel) Datasets() []models.Dataset {
	return p.datasets
}

// Props are the current inputs
func (p *Panel) Props() Props {
	return p.props
}

// Overlay is the annotation overlay bound to the panel's scope
func (p *Panel) Overlay() *annotations.Overlay {
	return p.overlay
}

// Collection is the annotation collection bound to the panel's scope
func (p *Panel) Collection() annotations.Collection {
	return p.collection
}

// ContentType of Render output
func (p *Panel) ContentType() string {
	return p.engine.ContentType()
}

// Hover is the current pointer state
func (p *Panel) Hover() models.HoverSelection {
	return p.hover
}

// PointerEnter enables hover unless the form is open
func (p *Panel) PointerEnter() {
	if p.hover.PanelOpen {
		return
	}
	p.hover.Enabled = true
	p.hover.PixelX = -1
	p.hover.LabelIndex = -1
}

// PointerMove snaps the hover to the tick nearest x
func (p *Panel) PointerMove(x float64) {
	if p.hover.PanelOpen || p.geometry == nil {
		return
	}
	idx, ok := p.scale.NearestIndex(x)
	if !ok {
		return
	}
	p.hover.PixelX = p.scale.PixelAt(idx)
	p.hover.LabelIndex = idx
}

// PointerLeave hides the affordance. An open form stays open.
func (p *Panel) PointerLeave() {
	if p.hover.PanelOpen {
		p.hover.Enabled = false
		return
	}
	p.hover = models.NoHover
}

// Cursor is the pointer style over the chart
func (p *Panel) Cursor() string {
	if p.props.OnPointClick != nil && p.hover.LabelIndex >= 0 {
		return CursorPointer
	}
	return CursorDefault
}

// Tooltip returns the tooltip line for a rendered point
func (p *Panel) Tooltip(ref models.PointRef) (string, bool) {
	if ref.DatasetIndex < 0 || ref.DatasetIndex >= len(p.datasets) {
		return "", false
	}
	return TooltipLabel(p.datasets[ref.DatasetIndex], ref.Index)
}

// Click resolves a rendered point and hands it to OnPointClick
func (p *Panel) Click(ref models.PointRef) (models.PointClick, error) {
	if p.instance == nil {
		return models.PointClick{}, ErrNoInstance
	}
	if ref.DatasetIndex < 0 || ref.DatasetIndex >= len(p.datasets) || ref.Index < 0 {
		return models.PointClick{}, fmt.Errorf("%w: dataset %d index %d", ErrNoPoint, ref.DatasetIndex, ref.Index)
	}
	click := pointClick(p.datasets[ref.DatasetIndex], ref)
	if p.props.OnPointClick != nil {
		p.props.OnPointClick(click)
	}
	return click, nil
}

func pointClick(d models.Dataset, ref models.PointRef) models.PointClick {
	i := ref.Index
	click := models.PointClick{Point: ref, Dataset: d, Index: i}
	if i < len(d.Labels) {
		click.Label = d.Labels[i]
	}
	days := d.Days
	if d.Compare {
		days = d.Dates
	}
	if i < len(days) {
		click.Day = days[i]
	}
	if i < len(d.Data) && d.Data[i] != nil {
		v := *d.Data[i]
		click.Value = &v
	}
	return click
}

// Affordance is where the add button sits, if it is shown
func (p *Panel) Affordance() Affordance {
	a := Affordance{LabelIndex: p.hover.LabelIndex}
	if !p.hover.Enabled || p.hover.PixelX < 0 || p.hover.PanelOpen || p.geometry == nil {
		return a
	}
	a.Visible = true
	a.Left = p.hover.PixelX - affordanceOffset
	a.Top = p.geometry.TopOffset
	return a
}

// OpenForm opens the add-annotation form for the hovered label
func (p *Panel) OpenForm() error {
	if !p.Affordance().Visible {
		return ErrNoSelection
	}
	p.hover.PanelOpen = true
	p.hover.DayLabel = ""
	if len(p.props.Datasets) > 0 {
		labels := p.props.Datasets[0].Labels
		if p.hover.LabelIndex < len(labels) {
			p.hover.DayLabel = labels[p.hover.LabelIndex]
		}
	}
	return nil
}

// SetDraft stores the form text
func (p *Panel) SetDraft(text string) error {
	if !p.hover.PanelOpen {
		return ErrFormClosed
	}
	p.draft = text
	return nil
}

// Draft is the current form text
func (p *Panel) Draft() string {
	return p.draft
}

// Cancel closes the form
func (p *Panel) Cancel() {
	p.hover.PanelOpen = false
}

// Submit closes the form and creates an annotation on the hovered day.
// The write is dispatched and its failures are logged.
func (p *Panel) Submit(ctx context.Context) error {
	if !p.hover.PanelOpen {
		return ErrFormClosed
	}
	content := p.draft
	if strings.TrimSpace(content) == "" {
		return annotations.ErrEmptyContent
	}
	days := p.props.LabeledDates()
	idx := p.hover.LabelIndex
	if idx < 0 || idx >= len(days) {
		return fmt.Errorf("%w: label %d has no day", ErrNoSelection, idx)
	}
	date, err := models.ParseDay(days[idx])
	if err != nil {
		return fmt.Errorf("label %d has invalid day %q: %w", idx, days[idx], err)
	}

	p.hover = models.NoHover
	c := p.collection
	ctx = context.WithoutCancel(ctx)
	p.dispatch(func() {
		if _, err := annotations.Submit(ctx, c, content, date); err != nil {
			p.log.Error("Failed to create annotation", err, logger.Fields{"day": days[idx], "scope": c.Scope().Key()})
		}
	})
	return nil
}

// Markers are the overlay markers under the current geometry
func (p *Panel) Markers() []annotations.Marker {
	if p.geometry == nil || p.overlay == nil {
		return nil
	}
	return p.overlay.Markers(*p.geometry)
}

// State snapshots the panel for clients
func (p *Panel) State() State {
	s := State{
		Type:         p.props.ChartType,
		Canvas:       p.canvas,
		Hover:        p.hover,
		Draft:        p.draft,
		Affordance:   p.Affordance(),
		Cursor:       p.Cursor(),
		Markers:      p.Markers(),
		AnalyticsTag: p.props.AnalyticsTag,
	}
	if s.Type == "" {
		s.Type = models.ChartLine
	}
	if p.geometry != nil {
		g := *p.geometry
		s.Geometry = &g
	}
	if p.overlay != nil {
		s.Granularity = p.overlay.Granularity()
	}
	return s
}

// Render draws the chart with its markers
func (p *Panel) Render(w io.Writer) error {
	if p.instance == nil {
		return ErrNoInstance
	}
	if d, ok := p.instance.(MarkerDrawer); ok {
		d.SetMarkers(p.Markers())
	}
	return p.instance.Render(w)
}

// Release destroys the chart instance and detaches the overlay
func (p *Panel) Release() {
	if p.instance != nil {
		p.instance.Destroy()
		p.instance = nil
	}
	if p.overlay != nil {
		p.overlay.Close()
		p.overlay = nil
	}
	p.geometry = nil
	p.hover = models.NoHover
}
