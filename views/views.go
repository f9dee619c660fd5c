package views

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// Funcs are available to every page.
var Funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
	// content is sanitized with bluemonday before it is stored
	"safeHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// Templates parses the embedded pages. Each page is addressed by its file name.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(Funcs).ParseFS(files, "templates/*.html"))
}
