// Package web embeds the server-rendered templates, static assets and
// fallback content, and renders pages from them.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
)

//go:embed templates static content
var files embed.FS

// StaticHandler serves the embedded static/ directory. Mount it under /static/.
func StaticHandler() http.Handler {
	subFS, err := fs.Sub(files, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(subFS)))
}

// Content returns an embedded file under content/.
func Content(name string) ([]byte, error) {
	data, err := files.ReadFile(path.Join("content", name))
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", name, err)
	}
	return data, nil
}

// Renderer executes the page templates of one template directory.
// Every page is parsed together with the directory's layout.html and the
// shared partials, and rendered through the "layout" template.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses templates/<dir>/*.html.
func NewRenderer(dir string) (*Renderer, error) {
	names, err := fs.Glob(files, path.Join("templates", dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	layout := path.Join("templates", dir, "layout.html")
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		if name == layout {
			continue
		}
		page := path.Base(name)
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(files, "templates/partials.html", layout, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	if len(r.pages) == 0 {
		return nil, fmt.Errorf("no templates in %s", dir)
	}
	return r, nil
}

// Render writes page with the given status. Output is buffered so a template
// error never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := r.pages[page]
	if !ok {
		slog.Error("Unknown template", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("Failed to render template", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Failed to write page", "page", page, "error", err)
	}
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"year": func() int { return time.Now().Year() },
	"stars": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"money": func(price float64, currency string) string {
		symbol := currency + " "
		switch currency {
		case "USD":
			symbol = "$"
		case "EUR":
			symbol = "€"
		case "GBP":
			symbol = "£"
		}
		if price == float64(int64(price)) {
			return fmt.Sprintf("%s%d", symbol, int64(price))
		}
		return fmt.Sprintf("%s%.2f", symbol, price)
	},
	"percent": func(n int) string { return fmt.Sprintf("%d%%", n) },
}
