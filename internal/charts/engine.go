package charts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"trendgraph/internal/annotations"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
)

// Engine names
const (
	EngineECharts = "echarts"
	EnginePNG     = "png"
)

var ErrUnknownEngine = errors.New("unknown chart engine")

// Config is everything an engine needs to draw one chart
type Config struct {
	Type     models.ChartType
	Labels   []string
	Datasets []models.Dataset
	Theme    palette.Theme

	// Tooltips[ds][i] is the tooltip line of a point, empty when suppressed
	Tooltips [][]string
}

// NewConfig fills the derived parts of a chart config
func NewConfig(chartType models.ChartType, labels []string, datasets []models.Dataset, theme palette.Theme) Config {
	if chartType == "" {
		chartType = models.ChartLine
	}
	return Config{
		Type:     chartType,
		Labels:   labels,
		Datasets: datasets,
		Theme:    theme,
		Tooltips: tooltipTable(datasets),
	}
}

// Engine creates chart instances
type Engine interface {
	Name() string
	ContentType() string
	Create(ctx context.Context, canvas Canvas, cfg Config) (Instance, error)
}

// Instance is a live chart owned by a single panel
type Instance interface {
	// Scale reports the laid out axis, false when the chart has no such axis
	Scale(key string) (Scale, bool)
	Resize(width, height int)
	Render(w io.Writer) error
	Destroy()
}

// MarkerDrawer is implemented by instances that can draw annotation markers themselves
type MarkerDrawer interface {
	SetMarkers(markers []annotations.Marker)
}

// NewEngine returns the engine registered under name
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", EngineECharts:
		return NewEChartsEngine(), nil
	case EnginePNG:
		return NewPNGEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}
