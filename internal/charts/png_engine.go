package charts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"trendgraph/internal/annotations"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
)

// Plot padding of the static chart. Axes are drawn inside the padding
// so the plot box always matches it exactly.
const (
	pngPadLeft   = 60
	pngPadRight  = 20
	pngPadTop    = 30
	pngPadBottom = 40

	pngYTicks       = 4
	pngYHeadroom    = 1.1
	pngAxisFontSize = 9.0
	pngBarFill      = 0.8
)

// PNGEngine renders static PNG images
type PNGEngine struct {
	log *logger.Logger
}

// NewPNGEngine creates the image engine
func NewPNGEngine() *PNGEngine {
	return &PNGEngine{log: logger.Component("png")}
}

func (e *PNGEngine) Name() string        { return EnginePNG }
func (e *PNGEngine) ContentType() string { return "image/png" }

// Create lays out a chart for the canvas
func (e *PNGEngine) Create(ctx context.Context, canvas Canvas, cfg Config) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.log.Debug("Creating chart", logger.Fields{"type": string(cfg.Type), "datasets": len(cfg.Datasets)})
	return &pngInstance{cfg: cfg, canvas: canvas, log: e.log}, nil
}

type pngInstance struct {
	cfg       Config
	canvas    Canvas
	markers   []annotations.Marker
	destroyed bool
	log       *logger.Logger
}

func (i *pngInstance) Scale(key string) (Scale, bool) {
	if i.destroyed || key != XAxisKey || i.cfg.Type == models.ChartDoughnut {
		return Scale{}, false
	}
	return Scale{
		Left:      pngPadLeft,
		Right:     float64(i.canvas.Width - pngPadRight),
		Top:       float64(i.canvas.Height - pngPadBottom),
		TickCount: len(i.cfg.Labels),
	}, true
}

func (i *pngInstance) Resize(width, height int) {
	i.canvas = Canvas{Width: width, Height: height}
}

func (i *pngInstance) SetMarkers(markers []annotations.Marker) {
	i.markers = append([]annotations.Marker(nil), markers...)
}

func (i *pngInstance) Destroy() {
	i.destroyed = true
	i.markers = nil
}

// Render writes the chart as PNG, with annotation markers on top
func (i *pngInstance) Render(w io.Writer) error {
	if i.destroyed {
		return errDestroyed
	}

	var buf bytes.Buffer
	var err error
	if i.cfg.Type == models.ChartDoughnut {
		err = i.renderDoughnut(&buf)
	} else {
		err = i.renderXY(&buf)
	}
	if err != nil {
		return err
	}

	if len(i.markers) == 0 {
		_, err = buf.WriteTo(w)
		return err
	}
	return drawMarkers(w, buf.Bytes(), i.markers, i.cfg.Theme)
}

func (i *pngInstance) renderXY(w io.Writer) error {
	n := len(i.cfg.Labels)
	xMax := float64(n - 1)
	if xMax < 1 {
		xMax = 1
	}
	yMax := i.maxValue() * pngYHeadroom
	if yMax <= 0 {
		yMax = 1
	}

	bg := parseColor(i.cfg.Theme.Background)
	graph := chart.Chart{
		Width:  i.canvas.Width,
		Height: i.canvas.Height,
		Background: chart.Style{
			FillColor: bg,
			Padding: chart.Box{
				Top:    pngPadTop,
				Left:   pngPadLeft,
				Right:  pngPadRight,
				Bottom: pngPadBottom,
			},
		},
		Canvas: chart.Style{FillColor: bg},
		XAxis: chart.XAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		// keeps both ranges alive when every dataset is empty
		Series: []chart.Series{chart.ContinuousSeries{
			Style:   chart.Style{Hidden: true},
			XValues: []float64{0, xMax},
			YValues: []float64{0, 0},
		}},
	}
	graph.Elements = append(graph.Elements, i.drawGrid(yMax), i.drawXLabels(xMax))

	if i.cfg.Type == models.ChartBar {
		graph.Elements = append(graph.Elements, i.drawBars(xMax, yMax))
	} else {
		for _, d := range i.cfg.Datasets {
			graph.Series = append(graph.Series, lineSegments(d)...)
		}
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func (i *pngInstance) maxValue() float64 {
	top := 0.0
	for _, d := range i.cfg.Datasets {
		for _, v := range d.Data {
			if v != nil && *v > top {
				top = *v
			}
		}
	}
	return top
}

// lineSegments splits a dataset at null samples
func lineSegments(d models.Dataset) []chart.Series {
	style := chart.Style{
		StrokeColor: parseColor(d.BorderColor),
		StrokeWidth: float64(d.BorderWidth),
		DotColor:    parseColor(d.BorderColor),
		DotWidth:    2,
	}
	for _, dash := range d.BorderDash {
		style.StrokeDashArray = append(style.StrokeDashArray, float64(dash))
	}

	var out []chart.Series
	var xs, ys []float64
	flush := func() {
		if len(xs) > 0 {
			out = append(out, chart.ContinuousSeries{Name: d.Label, Style: style, XValues: xs, YValues: ys})
		}
		xs, ys = nil, nil
	}
	for j, v := range d.Data {
		if v == nil {
			flush()
			continue
		}
		xs = append(xs, float64(j))
		ys = append(ys, *v)
	}
	flush()
	return out
}

func (i *pngInstance) drawGrid(yMax float64) chart.Renderable {
	theme := i.cfg.Theme
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		if font, err := chart.GetDefaultFont(); err == nil {
			r.SetFont(font)
		}
		r.SetFontSize(pngAxisFontSize)
		r.SetFontColor(parseColor(theme.AxisLabel))
		r.SetStrokeColor(parseColor(theme.AxisLine))
		r.SetStrokeWidth(1)
		for k := 0; k <= pngYTicks; k++ {
			v := yMax * float64(k) / pngYTicks
			y := box.Bottom - int(math.Round(float64(box.Height())*float64(k)/pngYTicks))
			r.MoveTo(box.Left, y)
			r.LineTo(box.Right, y)
			r.Stroke()

			text := FormatValue(math.Round(v))
			tb := r.MeasureText(text)
			r.Text(text, box.Left-tb.Width()-6, y+tb.Height()/2)
		}
	}
}

func (i *pngInstance) drawXLabels(xMax float64) chart.Renderable {
	labels := i.cfg.Labels
	theme := i.cfg.Theme
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		if len(labels) == 0 {
			return
		}
		if font, err := chart.GetDefaultFont(); err == nil {
			r.SetFont(font)
		}
		r.SetFontSize(pngAxisFontSize)
		r.SetFontColor(parseColor(theme.AxisLabel))

		widest := 0
		for _, l := range labels {
			if w := r.MeasureText(l).Width(); w > widest {
				widest = w
			}
		}
		step := 1
		if slots := box.Width() / (widest + 8); slots > 0 && len(labels) > slots {
			step = int(math.Ceil(float64(len(labels)) / float64(slots)))
		}
		for j := 0; j < len(labels); j += step {
			x := box.Left + int(math.Round(float64(box.Width())*float64(j)/xMax))
			tb := r.MeasureText(labels[j])
			r.Text(labels[j], x-tb.Width()/2, box.Bottom+tb.Height()+8)
		}
	}
}

func (i *pngInstance) drawBars(xMax, yMax float64) chart.Renderable {
	datasets := i.cfg.Datasets
	n := len(i.cfg.Labels)
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		if n == 0 || len(datasets) == 0 {
			return
		}
		slot := float64(box.Width()) / float64(n)
		if n > 1 {
			slot = float64(box.Width()) / xMax
		}
		width := slot * pngBarFill / float64(len(datasets))
		for k, d := range datasets {
			r.SetFillColor(parseColor(d.BackgroundColor))
			r.SetStrokeColor(parseColor(d.BorderColor))
			r.SetStrokeWidth(float64(d.BorderWidth))
			for j, v := range d.Data {
				if v == nil || j >= n {
					continue
				}
				center := float64(box.Left) + float64(box.Width())*float64(j)/xMax
				left := center - slot*pngBarFill/2 + float64(k)*width
				top := float64(box.Bottom) - float64(box.Height())*(*v/yMax)
				x0, x1 := int(math.Round(left)), int(math.Round(left+width))
				y0 := int(math.Round(top))
				r.MoveTo(x0, box.Bottom)
				r.LineTo(x0, y0)
				r.LineTo(x1, y0)
				r.LineTo(x1, box.Bottom)
				r.Close()
				r.FillStroke()
			}
		}
	}
}

// renderDoughnut draws the first dataset as a pie
func (i *pngInstance) renderDoughnut(w io.Writer) error {
	bg := parseColor(i.cfg.Theme.Background)
	var values []chart.Value
	if datasets := i.cfg.Datasets; len(datasets) > 0 {
		for j, v := range datasets[0].Data {
			if v == nil || *v <= 0 {
				continue
			}
			label := ""
			if j < len(i.cfg.Labels) {
				label = i.cfg.Labels[j]
			}
			values = append(values, chart.Value{
				Label: label,
				Value: *v,
				Style: chart.Style{
					FillColor:   parseColor(datasets[j%len(datasets)].BackgroundColor),
					StrokeColor: bg,
					StrokeWidth: 1,
				},
			})
		}
	}
	if len(values) == 0 {
		return blankImage(w, i.canvas, i.cfg.Theme)
	}

	pie := chart.PieChart{
		Width:      i.canvas.Width,
		Height:     i.canvas.Height,
		Background: chart.Style{FillColor: bg},
		Values:     values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
