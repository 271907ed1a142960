package reports

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

const snapshotTemplate = "templates/snapshot.html"

// TemplateLoader handles loading HTML templates
type TemplateLoader struct {
	funcs template.FuncMap
}

// NewTemplateLoader creates a new template loader
func NewTemplateLoader() *TemplateLoader {
	return &TemplateLoader{funcs: template.FuncMap{
		"safeCSS": func(s string) template.CSS {
			return template.CSS(s)
		},
	}}
}

// LoadSnapshotTemplate parses the snapshot page template
func (t *TemplateLoader) LoadSnapshotTemplate() (*template.Template, error) {
	tmpl, err := template.New("snapshot.html").Funcs(t.funcs).ParseFS(templatesFS, snapshotTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot template: %w", err)
	}
	return tmpl, nil
}
