package palette

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTheme is used when a panel has no color theme
const DefaultTheme = "white"

// lightColors are the series colors on a white background
var lightColors = []string{
	"#1f2f62", // navy
	"#3e7fd6", // blue
	"#35c0d1", // cyan
	"#f7a501", // orange
	"#f2d82a", // yellow
	"#8b9733", // olive
	"#28a745", // green
	"#9ccc3d", // lime
	"#67d4b3", // mint
	"#8f1d3d", // maroon
	"#a0522d", // brown
	"#f5b68a", // apricot
	"#f46ba1", // pink
	"#fa8072", // salmon
	"#4b0082", // indigo
	"#8e44ad", // purple
	"#b49ddb", // lavender
	"#d63aa9", // magenta
	"#838a92", // grey
	"#000000", // black
}

// darkWhites are used on colored card backgrounds
var darkWhites = []string{
	"rgba(255,255,255,0.6)",
	"rgba(255,255,255,0.3)",
	"rgba(255,255,255,0.8)",
	"rgba(255,255,255,0.45)",
	"rgba(255,255,255,0.2)",
}

// Resolver maps a theme name to an ordered list of series colors
type Resolver interface {
	Colors(theme string) []string
}

// Palettes is the built-in resolver, optionally extended from a YAML file
type Palettes struct {
	themes map[string][]string
}

// New returns the built-in palettes
func New() *Palettes {
	return &Palettes{themes: map[string][]string{
		"white": lightColors,
		"black": blackColors(len(lightColors)),
	}}
}

// Load reads extra themes from a YAML file of the form `theme: [color, ...]`.
// An empty path returns the built-in palettes.
func Load(path string) (*Palettes, error) {
	p := New()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette file %s: %w", path, err)
	}
	var themes map[string][]string
	if err := yaml.Unmarshal(raw, &themes); err != nil {
		return nil, fmt.Errorf("failed to parse palette file %s: %w", path, err)
	}
	for name, colors := range themes {
		if len(colors) == 0 {
			return nil, fmt.Errorf("theme %q has no colors", name)
		}
		p.themes[strings.ToLower(name)] = colors
	}
	return p, nil
}

// Colors returns the palette for theme. Unknown themes get the translucent whites.
func (p *Palettes) Colors(theme string) []string {
	if theme == "" {
		theme = DefaultTheme
	}
	if colors, ok := p.themes[strings.ToLower(theme)]; ok {
		return colors
	}
	return darkWhites
}

// Pick returns the color for dataset index i, cycling through the palette
func Pick(colors []string, i int) string {
	if len(colors) == 0 {
		return ""
	}
	return colors[i%len(colors)]
}

// blackColors spreads hues evenly around the wheel for dark backgrounds
func blackColors(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		hue := math.Mod(float64(i)*360/float64(n)+200, 360)
		colors[i] = fmt.Sprintf("hsl(%d, 70%%, 60%%)", int(hue))
	}
	return colors
}

// Theme carries the axis colors that depend on the panel background
type Theme struct {
	Name       string `json:"name"`
	AxisLabel  string `json:"axisLabel"`
	AxisLine   string `json:"axisLine"`
	Axis       string `json:"axis"`
	Background string `json:"background"`
}

// ThemeFor returns axis colors for a theme name
func ThemeFor(name string) Theme {
	if name == "" {
		name = DefaultTheme
	}
	if name == DefaultTheme {
		return Theme{Name: name, AxisLabel: "#333", AxisLine: "#ddd", Axis: "#999", Background: "#ffffff"}
	}
	return Theme{
		Name:       name,
		AxisLabel:  "rgba(255,255,255,0.8)",
		AxisLine:   "rgba(255,255,255,0.2)",
		Axis:       "rgba(255,255,255,0.6)",
		Background: backgroundFor(name),
	}
}

func backgroundFor(name string) string {
	switch name {
	case "black":
		return "#1f1f1f"
	case "blue":
		return "#3e7fd6"
	case "purple":
		return "#8e44ad"
	case "green":
		return "#28a745"
	default:
		return "#333333"
	}
}
