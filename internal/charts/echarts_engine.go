package charts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"trendgraph/internal/annotations"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
)

// Grid padding of the interactive chart, in pixels
const (
	echartsGridLeft   = 60
	echartsGridRight  = 20
	echartsGridTop    = 30
	echartsGridBottom = 40
)

// echartsNull is how ECharts spells a missing sample
const echartsNull = "-"

var errDestroyed = errors.New("chart instance destroyed")

// EChartsEngine renders interactive HTML charts
type EChartsEngine struct {
	log *logger.Logger
}

// NewEChartsEngine creates the HTML engine
func NewEChartsEngine() *EChartsEngine {
	return &EChartsEngine{log: logger.Component("echarts")}
}

func (e *EChartsEngine) Name() string        { return EngineECharts }
func (e *EChartsEngine) ContentType() string { return "text/html; charset=utf-8" }

// Create lays out a chart for the canvas
func (e *EChartsEngine) Create(ctx context.Context, canvas Canvas, cfg Config) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.log.Debug("Creating chart", logger.Fields{"type": string(cfg.Type), "datasets": len(cfg.Datasets)})
	return &echartsInstance{cfg: cfg, canvas: canvas}, nil
}

type renderer interface {
	Render(w io.Writer) error
}

type echartsInstance struct {
	cfg       Config
	canvas    Canvas
	markers   []annotations.Marker
	destroyed bool
}

func (i *echartsInstance) Scale(key string) (Scale, bool) {
	if i.destroyed || key != XAxisKey || i.cfg.Type == models.ChartDoughnut {
		return Scale{}, false
	}
	n := len(i.cfg.Labels)
	plotW := float64(i.canvas.Width - echartsGridLeft - echartsGridRight)
	s := Scale{
		Top:       float64(i.canvas.Height - echartsGridBottom),
		TickCount: n,
		Left:      echartsGridLeft,
		Right:     echartsGridLeft + plotW,
	}
	if n > 0 {
		band := plotW / float64(n)
		s.Left = echartsGridLeft + band/2
		s.Right = echartsGridLeft + plotW - band/2
	}
	return s, true
}

func (i *echartsInstance) Resize(width, height int) {
	i.canvas = Canvas{Width: width, Height: height}
}

func (i *echartsInstance) SetMarkers(markers []annotations.Marker) {
	i.markers = append([]annotations.Marker(nil), markers...)
}

func (i *echartsInstance) Destroy() {
	i.destroyed = true
	i.markers = nil
}

// Render writes a self-contained HTML page
func (i *echartsInstance) Render(w io.Writer) error {
	if i.destroyed {
		return errDestroyed
	}
	var r renderer
	switch i.cfg.Type {
	case models.ChartBar:
		r = i.bar()
	case models.ChartDoughnut:
		r = i.doughnut()
	default:
		r = i.line()
	}
	if err := r.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func (i *echartsInstance) globalOptions() []charts.GlobalOpts {
	theme := i.cfg.Theme
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:           px(i.canvas.Width),
			Height:          px(i.canvas.Height),
			BackgroundColor: theme.Background,
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   strconv.Itoa(echartsGridLeft),
			Right:  strconv.Itoa(echartsGridRight),
			Top:    strconv.Itoa(echartsGridTop),
			Bottom: strconv.Itoa(echartsGridBottom),
		}),
		charts.WithLegendOpts(opts.Legend{Show: false}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      true,
			Trigger:   "axis",
			Formatter: opts.FuncOpts(tooltipFormatter(i.cfg.Tooltips)),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Show:      true,
			AxisLabel: &opts.AxisLabel{Show: true, Color: theme.AxisLabel},
			SplitLine: &opts.SplitLine{Show: false},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Show:      true,
			Min:       0,
			AxisLabel: &opts.AxisLabel{Show: true, Color: theme.AxisLabel},
			SplitLine: &opts.SplitLine{Show: true, LineStyle: &opts.LineStyle{Color: theme.AxisLine}},
		}),
	}
}

func (i *echartsInstance) line() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(i.globalOptions()...)
	line.SetXAxis(i.cfg.Labels)

	for n, d := range i.cfg.Datasets {
		data := make([]opts.LineData, len(d.Data))
		for j, v := range d.Data {
			data[j] = opts.LineData{Value: echartsValue(v)}
		}
		style := opts.LineStyle{Color: d.BorderColor, Width: float32(d.BorderWidth)}
		if len(d.BorderDash) > 0 {
			style.Type = "dashed"
		}
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineStyleOpts(style),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: d.BorderColor}),
		}
		if n == 0 {
			seriesOpts = append(seriesOpts, i.markPoints()...)
		}
		line.AddSeries(SeriesLabel(d.Series), data, seriesOpts...)
	}
	return line
}

func (i *echartsInstance) bar() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(i.globalOptions()...)
	bar.SetXAxis(i.cfg.Labels)

	for n, d := range i.cfg.Datasets {
		data := make([]opts.BarData, len(d.Data))
		for j, v := range d.Data {
			data[j] = opts.BarData{Value: echartsValue(v)}
		}
		seriesOpts := []charts.SeriesOpts{
			charts.WithItemStyleOpts(opts.ItemStyle{Color: d.BackgroundColor, BorderColor: d.BorderColor}),
		}
		if n == 0 {
			seriesOpts = append(seriesOpts, i.markPoints()...)
		}
		bar.AddSeries(SeriesLabel(d.Series), data, seriesOpts...)
	}
	return bar
}

// doughnut draws each dataset as a ring, innermost first
func (i *echartsInstance) doughnut() *charts.Pie {
	pie := charts.NewPie()
	colors := make(opts.Colors, 0, len(i.cfg.Datasets))
	for _, d := range i.cfg.Datasets {
		colors = append(colors, d.BackgroundColor)
	}
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           px(i.canvas.Width),
			Height:          px(i.canvas.Height),
			BackgroundColor: i.cfg.Theme.Background,
		}),
		charts.WithLegendOpts(opts.Legend{Show: false}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"}),
		charts.WithColorsOpts(colors),
	)

	rings := len(i.cfg.Datasets)
	for n, d := range i.cfg.Datasets {
		data := make([]opts.PieData, 0, len(d.Data))
		for j, v := range d.Data {
			if v == nil {
				continue
			}
			name := ""
			if j < len(i.cfg.Labels) {
				name = i.cfg.Labels[j]
			}
			data = append(data, opts.PieData{Name: name, Value: *v})
		}
		inner, outer := ringRadius(n, rings)
		pie.AddSeries(SeriesLabel(d.Series), data,
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{inner, outer}}),
		)
	}
	return pie
}

func (i *echartsInstance) markPoints() []charts.SeriesOpts {
	if len(i.markers) == 0 {
		return nil
	}
	items := make([]opts.MarkPointNameCoordItem, 0, len(i.markers))
	for _, m := range i.markers {
		if m.Index >= len(i.cfg.Labels) {
			continue
		}
		items = append(items, opts.MarkPointNameCoordItem{
			Name:       m.Day,
			Coordinate: []interface{}{i.cfg.Labels[m.Index], 0},
			Value:      strconv.Itoa(m.Count),
		})
	}
	return []charts.SeriesOpts{charts.WithMarkPointNameCoordItemOpts(items...)}
}

func echartsValue(v *float64) interface{} {
	if v == nil {
		return echartsNull
	}
	return *v
}

// ringRadius splits the 40%..75% band evenly between rings
func ringRadius(n, rings int) (string, string) {
	const inner, outer = 40.0, 75.0
	step := (outer - inner) / float64(rings)
	lo := inner + float64(n)*step
	return fmt.Sprintf("%.1f%%", lo), fmt.Sprintf("%.1f%%", lo+step)
}

func px(v int) string {
	return strconv.Itoa(v) + "px"
}

// tooltipFormatter builds the JS callback that looks lines up in the precomputed table.
// Option JSON escapes double quotes and backslashes, so the table travels percent-encoded
// in single-quoted literals.
func tooltipFormatter(table [][]string) string {
	var b strings.Builder
	b.WriteString("[")
	for i, row := range table {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("[")
		for j, line := range row {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString("'" + url.PathEscape(line) + "'")
		}
		b.WriteString("]")
	}
	b.WriteString("]")

	return `function (params) {
	var table = ` + b.String() + `;
	if (!Array.isArray(params)) { params = [params]; }
	var lines = [params.length ? params[0].name : ''];
	params.forEach(function (p) {
		var row = table[p.seriesIndex] || [];
		if (row[p.dataIndex]) { lines.push(decodeURIComponent(row[p.dataIndex])); }
	});
	return lines.join('<br/>');
}`
}
