// Package export writes panel data to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"trendgraph/internal/annotations"
	"trendgraph/internal/charts"
	"trendgraph/internal/models"
)

// Sheet names
const (
	TrendsSheet      = "Trends"
	AnnotationsSheet = "Annotations"
)

// Workbook accumulates sheets before writing them out
type Workbook struct {
	f *excelize.File
}

// NewWorkbook starts an empty workbook whose first sheet is the trends sheet
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", TrendsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name trends sheet: %w", err)
	}
	return &Workbook{f: f}, nil
}

// AddSeries fills the trends sheet: labels in the first column, one column per series
func (b *Workbook) AddSeries(labels []string, series []models.Series) error {
	header := make([]interface{}, 0, len(series)+1)
	header = append(header, "Date")
	for _, s := range series {
		header = append(header, charts.SeriesLabel(s))
	}
	if err := b.f.SetSheetRow(TrendsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, label := range labels {
		row := make([]interface{}, 0, len(series)+1)
		row = append(row, label)
		for _, s := range series {
			if i < len(s.Data) && s.Data[i] != nil {
				row = append(row, *s.Data[i])
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(TrendsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return b.f.SetColWidth(TrendsSheet, "A", "A", 16)
}

// AddAnnotations writes a second sheet listing annotations
func (b *Workbook) AddAnnotations(list []models.Annotation, viewer models.Viewer) error {
	if _, err := b.f.NewSheet(AnnotationsSheet); err != nil {
		return fmt.Errorf("failed to add annotations sheet: %w", err)
	}
	header := []interface{}{"Date", "Content", "Author", "Created", "Staged"}
	if err := b.f.SetSheetRow(AnnotationsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, a := range list {
		row := []interface{}{
			models.FormatDay(a.DateMarker),
			a.Content,
			annotations.AuthorName(a, viewer),
			a.CreatedAt.UTC().Format(time.RFC3339),
			annotations.IsStaged(a),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(AnnotationsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write annotation row %d: %w", i+2, err)
		}
	}
	return b.f.SetColWidth(AnnotationsSheet, "B", "B", 48)
}

// Write serialises the workbook
func (b *Workbook) Write(w io.Writer) error {
	if err := b.f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Close releases the workbook
func (b *Workbook) Close() error {
	return b.f.Close()
}

// WriteXLSX writes a single-sheet workbook with the series values per label
func WriteXLSX(w io.Writer, labels []string, series []models.Series) error {
	b, err := NewWorkbook()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.AddSeries(labels, series); err != nil {
		return err
	}
	return b.Write(w)
}
