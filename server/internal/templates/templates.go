package templates

import (
	"embed"
	"html/template"
	"io/fs"
	"strconv"
)

//go:embed *.html static
var FS embed.FS

// Parse returns the parsed templates with custom functions
func Parse() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatRate": formatRate,
	}

	return template.New("").Funcs(funcMap).ParseFS(FS, "*.html")
}

// Static returns the embedded static assets rooted at static/
func Static() (fs.FS, error) {
	return fs.Sub(FS, "static")
}

// formatRate prints a per-million rate without trailing zeros
func formatRate(rate float64) string {
	return "$" + strconv.FormatFloat(rate, 'f', -1, 64)
}
