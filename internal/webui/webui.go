// SPDX-License-Identifier: MIT

// Package webui serves the server-rendered analytics views: interactive
// story and author tables, the author-by-year pivot, and the publication
// charts, over the same store the JSON API reads.
package webui

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/asfstats/internal/log"
	"github.com/ManuGH/asfstats/internal/store"
)

// Default selections for the chart views when the visitor has not picked
// anything yet. Heinlein and Asimov are the worked examples because both
// debuted in the magazine within weeks of the era's start.
const (
	defaultStackedAuthors = 5
	defaultTopAuthors     = 20
	exampleAuthor         = "Heinlein, Robert A."
)

var exampleCompareAuthors = []string{"Heinlein, Robert A.", "Asimov, Isaac"}

// Options configures the view handler.
type Options struct {
	Store   *store.Store
	Version string
}

// Handler renders the HTML views. Templates are parsed once at
// construction; every request only executes them.
type Handler struct {
	store     *store.Store
	version   string
	templates map[string]*template.Template
}

// New parses the view templates and returns the handler.
func New(opts Options) (*Handler, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:     opts.Store,
		version:   opts.Version,
		templates: templates,
	}, nil
}

// Routes returns the view router. Mounted at the server root; the API,
// export and file routes are registered before it and win on prefix.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.handleAbout)
	r.Get("/about", h.handleAbout)
	r.Get("/stories", h.handleStories)
	r.Get("/authors", h.handleAuthorTotals)
	r.Get("/pivot", h.handlePivot)
	r.Get("/charts/stacked", h.handleStackedBar)
	r.Get("/charts/author", h.handleAuthorSeries)
	r.Get("/charts/compare", h.handleCompare)
	r.Get("/charts/top", h.handleTopAuthors)

	return r
}

// navEntry is one sidebar menu item. Labels follow the original menu.
type navEntry struct {
	Path  string
	Label string
}

var navEntries = []navEntry{
	{"/stories", "All stories"},
	{"/authors", "Author totals"},
	{"/pivot", "Author by year"},
	{"/charts/stacked", "Bar chart: Top authors"},
	{"/charts/author", "Plot: One author"},
	{"/charts/compare", "Plot: Multiple authors"},
	{"/charts/top", "Plot: Top N authors"},
	{"/about", "About this site"},
}

// basePage carries what the layout template needs. View pages embed it.
type basePage struct {
	Title       string
	Active      string
	Nav         []navEntry
	CSVHref     string
	Version     string
	NeedsTables bool
	NeedsCharts bool
}

func (h *Handler) newBasePage(title, active string) basePage {
	return basePage{
		Title:   title,
		Active:  active,
		Nav:     navEntries,
		Version: h.version,
	}
}

// render executes the named view into a buffer first so a template error
// becomes a clean 500 instead of half a page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := h.templates[name]
	if !ok {
		logger := log.WithComponentFromContext(r.Context(), "webui")
		logger.Error().
			Str("view", name).
			Msg("unknown view template")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "webui")
		logger.Error().
			Err(err).
			Str("view", name).
			Msg("template execution failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "webui")
	logger.Error().
		Err(err).
		Str("path", r.URL.Path).
		Msg("view query failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// intParam reads a positive integer query parameter, falling back to def
// on anything absent or unusable. The views forgive bad input rather
// than erroring the page.
func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
