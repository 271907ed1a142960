package reports

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"trendgraph/internal/annotations"
	"trendgraph/internal/config"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
)

// HTMLBuilder renders the snapshot index page
type HTMLBuilder struct {
	templateLoader *TemplateLoader
}

// NewHTMLBuilder creates an HTML builder
func NewHTMLBuilder() *HTMLBuilder {
	return &HTMLBuilder{templateLoader: NewTemplateLoader()}
}

// AnnotationRow is one annotation as listed on the snapshot page
type AnnotationRow struct {
	Date    string
	Author  string
	HTML    template.HTML
	Staged  bool
	Created time.Time
}

// TemplateData represents the data structure for the snapshot template
type TemplateData struct {
	Title       string
	ChartType   string
	Granularity string
	GeneratedAt string
	Version     string
	Theme       palette.Theme
	Width       int
	Height      int
	ChartFile   string
	ChartImage  bool
	ExportFile  string
	StateFile   string
	Annotations []AnnotationRow
}

// AnnotationRows converts annotations for display, oldest date first
func AnnotationRows(list []models.Annotation, viewer models.Viewer) []AnnotationRow {
	rows := make([]AnnotationRow, 0, len(list))
	for _, a := range list {
		rows = append(rows, AnnotationRow{
			Date:    models.FormatDay(a.DateMarker),
			Author:  annotations.AuthorName(a, viewer),
			HTML:    annotations.ContentHTML(a.Content),
			Staged:  annotations.IsStaged(a),
			Created: a.CreatedAt,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].Created.Before(rows[j].Created)
	})
	return rows
}

// BuildSnapshotHTML executes the snapshot template
func (h *HTMLBuilder) BuildSnapshotHTML(data TemplateData) (string, error) {
	tmpl, err := h.templateLoader.LoadSnapshotTemplate()
	if err != nil {
		return "", err
	}
	if data.Version == "" {
		data.Version = config.GetVersion()
	}
	if data.ChartType == "" {
		data.ChartType = ToTitleCase(string(models.ChartLine))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
