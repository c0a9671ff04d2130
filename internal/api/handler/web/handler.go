// internal/api/handler/web/handler.go
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// Options tune page rendering.
type Options struct {
	// Location is the zone "Last Updated" is shown in. Nil means UTC.
	Location *time.Location
	// ChartWait bounds how long a full page render waits for a chart probe
	// before falling back to the skeleton.
	ChartWait time.Duration
	Logger    *zap.Logger
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds separate template instances for each page.
	// Each instance contains layout.html, partials.html and the page template.
	pageTemplates map[string]*template.Template
	loc           *time.Location
	chartWait     time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

var pages = []string{"dashboard.html"}

var funcs = template.FuncMap{
	"trendClass": trendClass,
}

// NewHandler creates a new web handler with templates loaded from the given directory.
// If templatesDir is empty, it falls back to embedded templates.
func NewHandler(templatesDir string, opts Options) (*Handler, error) {
	if templatesDir == "" {
		return NewHandlerWithFS(TemplateFS(), opts)
	}

	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFiles(
			filepath.Join(templatesDir, "layout.html"),
			filepath.Join(templatesDir, "partials.html"),
			filepath.Join(templatesDir, page),
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return newHandler(pageTemplates, opts), nil
}

// NewHandlerWithFS creates a new web handler using a custom filesystem.
// This is useful for testing or custom template sources.
func NewHandlerWithFS(fsys fs.FS, opts Options) (*Handler, error) {
	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys, "layout.html", "partials.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s from fs: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return newHandler(pageTemplates, opts), nil
}

func newHandler(pageTemplates map[string]*template.Template, opts Options) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		pageTemplates: pageTemplates,
		loc:           loc,
		chartWait:     opts.ChartWait,
		logger:        log,
		now:           time.Now,
	}
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	h.execute(w, page, "layout.html", data)
}

// renderFragment executes one named partial of the dashboard page.
func (h *Handler) renderFragment(w http.ResponseWriter, name string, data any) {
	h.execute(w, "dashboard.html", name, data)
}

func (h *Handler) execute(w http.ResponseWriter, page, name string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// This should never happen with valid embed directive
		return templateFS
	}
	return subFS
}

func trendClass(d core.Direction) string {
	switch d {
	case core.DirectionBullish:
		return "text-green-600 dark:text-green-400"
	case core.DirectionBearish:
		return "text-red-600 dark:text-red-400"
	default:
		return "text-gray-500"
	}
}
