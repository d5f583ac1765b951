// Package web renders the dashboard's HTML pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/healthcare/admin-dashboard/internal/platform/notify"
	"github.com/healthcare/admin-dashboard/internal/platform/session"
)

//go:embed templates/*.html static/*
var content embed.FS

// Renderer is an echo.Renderer over the embedded page templates. Each page
// is parsed together with the layout and the shared partials.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	shared := []string{"templates/layout.html"}
	partials, err := fs.Glob(content, "templates/_*.html")
	if err != nil {
		return nil, err
	}
	shared = append(shared, partials...)

	files, err := fs.Glob(content, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		base := path.Base(f)
		if base == "layout.html" || strings.HasPrefix(base, "_") {
			continue
		}
		name := strings.TrimSuffix(base, ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(content, append(shared, f)...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// StaticFS serves the embedded stylesheet and images.
func StaticFS() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page is the data passed to every template.
type Page struct {
	Title         string
	Section       string
	Flash         *notify.Message
	Authenticated bool
	RequestID     string
	Data          any
}

// Render draws a full page with the layout, pending notification and
// session state filled in.
func Render(c echo.Context, status int, name, title string, data any) error {
	rid, _ := c.Get("request_id").(string)
	p := Page{
		Title:         title,
		Section:       sectionOf(c.Request().URL.Path),
		Flash:         notify.Pop(c),
		Authenticated: session.FromContext(c.Request().Context()).Authenticated(),
		RequestID:     rid,
		Data:          data,
	}
	return c.Render(status, name, p)
}

func sectionOf(p string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	if seg == "" {
		return "dashboard"
	}
	return seg
}
