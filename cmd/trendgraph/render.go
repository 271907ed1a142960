package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trendgraph/internal/annotations"
	"trendgraph/internal/charts"
	"trendgraph/internal/export"
	"trendgraph/internal/fetchers"
	"trendgraph/internal/models"
	"trendgraph/internal/reports"
)

var errNoSeries = errors.New("no series to render")

func newRenderCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [series.json]",
		Short: "Render series JSON to an HTML or PNG chart",
		Long: `Render reads series from a JSON file, or from trends APIs with --source, and
writes the chart with the annotation markers of --dashboard-item drawn on it.
The output is HTML for the echarts engine and PNG for the png engine.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runRender,
	}

	flags := cmd.Flags()
	flags.StringSlice("source", nil, "Trends API URL to fetch series from; repeat to merge several")
	flags.StringP("output", "o", "", "Output file (default chart.html or chart.png)")
	flags.String("xlsx", "", "Also write the plotted data to this workbook")
	flags.String("type", string(models.ChartLine), "Chart type: line, bar or doughnut")
	flags.Bool("in-progress", false, "Draw the last point as an in-progress segment")
	flags.String("dashboard-item", "", "Dashboard item whose annotations are drawn")

	// resolved through viper together with the persistent flags
	flags.String("engine", charts.EngineECharts, "Chart engine: echarts or png")
	flags.String("theme", "", "Color theme")
	flags.String("palette", "", "YAML palette file")
	flags.Int("width", 0, "Canvas width in pixels")
	flags.Int("height", 0, "Canvas height in pixels")
	for _, name := range []string{"engine", "theme", "palette", "width", "height"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	return cmd
}

func (c *cli) runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	sources, _ := flags.GetStringSlice("source")
	series, err := loadSeries(ctx, args, sources)
	if err != nil {
		return err
	}

	chartType, _ := flags.GetString("type")
	inProgress, _ := flags.GetBool("in-progress")
	item, _ := flags.GetString("dashboard-item")
	props := charts.Props{
		Datasets:        series,
		Labels:          series[0].Labels,
		Color:           c.cfg.DefaultTheme,
		ChartType:       models.ChartType(chartType),
		IsInProgress:    inProgress,
		DashboardItemID: item,
	}

	engine, err := charts.NewEngine(c.cfg.ChartEngine)
	if err != nil {
		return err
	}
	colors, err := c.palettes()
	if err != nil {
		return err
	}
	registry, err := c.registry(ctx)
	if err != nil {
		return err
	}
	defer registry.Close()

	panel := charts.NewPanel(engine, charts.RegistryProvider(registry), registry.Viewer(),
		charts.WithPalette(colors),
		charts.WithDispatch(annotations.InlineDispatch),
		charts.WithCanvas(charts.Canvas{Width: c.cfg.ChartWidth, Height: c.cfg.ChartHeight}),
	)
	defer panel.Release()
	if err := panel.SetProps(ctx, props); err != nil {
		return err
	}

	output, _ := flags.GetString("output")
	if output == "" {
		output = reports.ChartFileName(panel.ContentType())
	}
	if err := writeFile(output, panel.Render); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	if workbook, _ := flags.GetString("xlsx"); workbook != "" {
		err := writeFile(workbook, func(w io.Writer) error {
			return export.WriteXLSX(w, reports.ExportLabels(props), props.Datasets)
		})
		if err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d series, %d markers)\n", output, len(series), len(panel.Markers()))
	return nil
}

// loadSeries fetches the series of every source URL in order, or reads the
// file in args when there are none
func loadSeries(ctx context.Context, args []string, sources []string) ([]models.Series, error) {
	var series []models.Series
	switch {
	case len(sources) > 0:
		data, err := fetchers.NewDataFetcher().FetchAll(ctx, sources...)
		if err != nil {
			return nil, err
		}
		series = data.Series
	case len(args) == 1:
		body, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read series: %w", err)
		}
		decoded, err := fetchers.DecodeSeries(body)
		if err != nil {
			return nil, err
		}
		normalized, err := fetchers.NewSeriesNormalizer().Normalize(decoded)
		if err != nil {
			return nil, err
		}
		series = normalized
	default:
		return nil, fmt.Errorf("pass a series file or --source")
	}
	if len(series) == 0 {
		return nil, errNoSeries
	}
	return series, nil
}

// writeFile creates path and hands it to write, closing it afterwards
func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
