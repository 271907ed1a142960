package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"trendgraph/internal/annotations"
	"trendgraph/internal/charts"
	"trendgraph/internal/export"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
	"trendgraph/internal/storage"
)

// PanelSource is the part of a chart panel a snapshot is taken from
type PanelSource interface {
	Props() charts.Props
	State() charts.State
	ContentType() string
	Render(w io.Writer) error
	Collection() annotations.Collection
}

// FileGenerator handles generation of all snapshot files
type FileGenerator struct {
	htmlBuilder *HTMLBuilder
	viewer      models.Viewer
	theme       palette.Theme
	log         *logger.Logger
}

// GeneratedFiles contains all files generated for a snapshot, keyed by file name
type GeneratedFiles struct {
	FolderPath  string
	CreatedAt   time.Time
	ContentType string
	Files       map[string][]byte
}

// panelFile is the JSON written to panel.json
type panelFile struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Props       charts.Props        `json:"props"`
	State       charts.State        `json:"state"`
	Annotations []models.Annotation `json:"annotations"`
}

// NewFileGenerator creates a new file generator
func NewFileGenerator(viewer models.Viewer, theme palette.Theme) *FileGenerator {
	return &FileGenerator{
		htmlBuilder: NewHTMLBuilder(),
		viewer:      viewer,
		theme:       theme,
		log:         logger.Component("snapshots"),
	}
}

// GenerateAllFiles renders the chart, the workbook, the panel state and the
// index page of one snapshot
func (fg *FileGenerator) GenerateAllFiles(ctx context.Context, src PanelSource, title string, timestamp time.Time) (*GeneratedFiles, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files := &GeneratedFiles{
		FolderPath:  storage.GenerateSnapshotFolderPath(timestamp),
		CreatedAt:   timestamp,
		ContentType: src.ContentType(),
		Files:       make(map[string][]byte),
	}

	var list []models.Annotation
	if c := src.Collection(); c != nil {
		list = c.List()
	}
	props := src.Props()
	state := src.State()

	// 1. Chart
	chartFile := ChartFileName(files.ContentType)
	var chart bytes.Buffer
	if err := src.Render(&chart); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	files.Files[chartFile] = chart.Bytes()

	// 2. Data export
	if err := fg.generateExport(props, list, files); err != nil {
		return nil, err
	}

	// 3. Panel state
	state.Hover = models.NoHover
	stateJSON, err := json.MarshalIndent(panelFile{
		GeneratedAt: timestamp,
		Props:       props,
		State:       state,
		Annotations: list,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal panel state: %w", err)
	}
	files.Files[StateFile] = stateJSON

	// 4. Index page
	if title == "" {
		title = defaultTitle(props)
	}
	page, err := fg.htmlBuilder.BuildSnapshotHTML(TemplateData{
		Title:       title,
		ChartType:   ToTitleCase(string(state.Type)),
		Granularity: string(state.Granularity),
		GeneratedAt: timestamp.UTC().Format("2006-01-02 15:04:05 UTC"),
		Theme:       fg.theme,
		Width:       state.Canvas.Width,
		Height:      state.Canvas.Height,
		ChartFile:   chartFile,
		ChartImage:  chartFile == chartPNGFile,
		ExportFile:  ExportFile,
		StateFile:   StateFile,
		Annotations: AnnotationRows(list, fg.viewer),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot page: %w", err)
	}
	files.Files[IndexFile] = []byte(page)

	fg.log.Debug("Generated snapshot files", logger.Fields{
		"folder":      files.FolderPath,
		"files":       len(files.Files),
		"annotations": len(list),
	})
	return files, nil
}

// generateExport writes the series and annotations workbook
func (fg *FileGenerator) generateExport(props charts.Props, list []models.Annotation, files *GeneratedFiles) error {
	wb, err := export.NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.AddSeries(ExportLabels(props), props.Datasets); err != nil {
		return err
	}
	if err := wb.AddAnnotations(list, fg.viewer); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return err
	}
	files.Files[ExportFile] = buf.Bytes()
	return nil
}

// ExportLabels are the panel labels, or the first series' labels when the
// panel has none
func ExportLabels(props charts.Props) []string {
	if len(props.Labels) > 0 || len(props.Datasets) == 0 {
		return props.Labels
	}
	return props.Datasets[0].Labels
}

func defaultTitle(props charts.Props) string {
	if len(props.Datasets) == 0 {
		return "Trends"
	}
	return charts.SeriesLabel(props.Datasets[0])
}
