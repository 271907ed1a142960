package reports

import (
	"strings"
	"unicode"
)

// Files written into every snapshot folder
const (
	IndexFile     = "index.html"
	ExportFile    = "export.xlsx"
	StateFile     = "panel.json"
	chartHTMLFile = "chart.html"
	chartPNGFile  = "chart.png"
)

// ToTitleCase converts a string to title case (first letter of each word capitalized)
func ToTitleCase(s string) string {
	if s == "" {
		return s
	}

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			for j := 1; j < len(runes); j++ {
				runes[j] = unicode.ToLower(runes[j])
			}
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}

// ChartFileName picks the chart file name for a rendered content type
func ChartFileName(contentType string) string {
	if strings.HasPrefix(contentType, "image/png") {
		return chartPNGFile
	}
	return chartHTMLFile
}
