// SPDX-License-Identifier: MIT

package webui

import (
	"net/http"

	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/stats"
	"github.com/ManuGH/asfstats/internal/store"
)

// storyRow adds the 1-based listing sequence the stories table shows as
// its first column.
type storyRow struct {
	Seq int
	catalog.Story
}

type storiesPage struct {
	basePage
	Rows []storyRow
}

func (h *Handler) handleStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.store.Stories(r.Context(), store.Filter{})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	rows := make([]storyRow, len(stories))
	for i, s := range stories {
		rows[i] = storyRow{Seq: i + 1, Story: s}
	}

	page := storiesPage{basePage: h.newBasePage("All stories", "/stories"), Rows: rows}
	page.NeedsTables = true
	page.CSVHref = "/export/stories.csv"
	h.render(w, r, "stories", page)
}

type authorTotalsPage struct {
	basePage
	Totals []store.AuthorCount
}

func (h *Handler) handleAuthorTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.store.AuthorTotals(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := authorTotalsPage{basePage: h.newBasePage("Author totals", "/authors"), Totals: totals}
	page.NeedsTables = true
	page.CSVHref = "/export/totals.csv"
	h.render(w, r, "authors", page)
}

type pivotPage struct {
	basePage
	Pivot stats.Pivot
}

func (h *Handler) handlePivot(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.store.YearMatrix(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := pivotPage{basePage: h.newBasePage("Author by year", "/pivot"), Pivot: stats.BuildPivot(matrix)}
	page.NeedsTables = true
	page.CSVHref = "/export/pivot.csv"
	h.render(w, r, "pivot", page)
}

type aboutPage struct {
	basePage
	Stats store.Stats
}

func (h *Handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Stats(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := aboutPage{basePage: h.newBasePage("About this site", "/about"), Stats: st}
	h.render(w, r, "about", page)
}
