// SPDX-License-Identifier: MIT

package webui

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"

	"github.com/ManuGH/asfstats/internal/stats"
)

// chartBase is the option set every chart shares: sizing, title, axis
// tooltips and the save-as-image toolbox that replaces the original
// PDF download buttons.
func chartBase(title, width, height string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: opts.Bool(true),
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{
					Show:  opts.Bool(true),
					Title: "save as image",
				},
			},
		}),
	}
}

func yearLabels(years []int) []string {
	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = strconv.Itoa(y)
	}
	return labels
}

func barValues(counts []int) []opts.BarData {
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}
	return data
}

func lineValues(counts []int) []opts.LineData {
	data := make([]opts.LineData, len(counts))
	for i, c := range counts {
		data[i] = opts.LineData{Value: c}
	}
	return data
}

func snippetParts(s render.ChartSnippet) (template.HTML, template.HTML) {
	return template.HTML(s.Element), template.HTML(s.Script)
}

type stackedPage struct {
	basePage
	N       int
	Element template.HTML
	Script  template.HTML
}

func (h *Handler) handleStackedBar(w http.ResponseWriter, r *http.Request) {
	n := intParam(r, "n", defaultStackedAuthors)

	matrix, err := h.store.YearMatrix(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	pivot := stats.BuildPivot(matrix).Top(n)

	bar := charts.NewBar()
	bar.SetGlobalOptions(chartBase(
		fmt.Sprintf("Number of Stories Published Each Year by the Top %d Authors", n),
		"1100px", "560px")...)
	bar.SetGlobalOptions(charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}))
	bar.SetXAxis(yearLabels(pivot.Years))
	for _, row := range pivot.Rows {
		bar.AddSeries(row.Author, barValues(row.Counts))
	}
	bar.SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "authors"}))

	page := stackedPage{basePage: h.newBasePage("Bar chart: Top authors", "/charts/stacked"), N: n}
	page.NeedsCharts = true
	page.Element, page.Script = snippetParts(bar.RenderSnippet())
	h.render(w, r, "stacked", page)
}

type authorSeriesPage struct {
	basePage
	Authors  []string
	Selected string
	Example  bool
	Element  template.HTML
	Script   template.HTML
}

func (h *Handler) handleAuthorSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authors, err := h.store.Authors(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("author"))
	example := name == ""
	if example {
		name = exampleAuthor
	}

	byYear, err := h.store.AuthorYearCounts(ctx, name)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	series := stats.BuildSeries(name, byYear)

	total := 0
	for _, c := range series.Counts {
		total += c
	}

	line := charts.NewLine()
	line.SetGlobalOptions(chartBase(
		fmt.Sprintf("%s Published %d Stories", name, total),
		"1000px", "520px")...)
	line.SetGlobalOptions(charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}))
	line.SetXAxis(yearLabels(series.Years))
	line.AddSeries(series.Author, lineValues(series.Counts))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	page := authorSeriesPage{
		basePage: h.newBasePage("Plot: One author", "/charts/author"),
		Authors:  authors,
		Example:  example,
	}
	if !example {
		page.Selected = name
	}
	page.NeedsCharts = true
	page.Element, page.Script = snippetParts(line.RenderSnippet())
	h.render(w, r, "author", page)
}

type comparePage struct {
	basePage
	Authors     []string
	SelectedSet map[string]bool
	Example     bool
	Element     template.HTML
	Script      template.HTML
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authors, err := h.store.Authors(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var selected []string
	for _, name := range r.URL.Query()["authors"] {
		if name = strings.TrimSpace(name); name != "" {
			selected = append(selected, name)
		}
	}
	example := len(selected) == 0
	if example {
		selected = exampleCompareAuthors
	}

	perAuthor := make([]stats.Series, 0, len(selected))
	for _, name := range selected {
		byYear, err := h.store.AuthorYearCounts(ctx, name)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		perAuthor = append(perAuthor, stats.BuildSeries(name, byYear))
	}
	ms := stats.BuildMultiSeries(perAuthor...)

	line := charts.NewLine()
	line.SetGlobalOptions(chartBase(
		fmt.Sprintf("%d authors: number of stories each year", len(ms.Series)),
		"1000px", "520px")...)
	line.SetGlobalOptions(charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}))
	line.SetXAxis(yearLabels(ms.Years))
	for _, s := range ms.Series {
		line.AddSeries(s.Author, lineValues(s.Counts))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	page := comparePage{
		basePage:    h.newBasePage("Plot: Multiple authors", "/charts/compare"),
		Authors:     authors,
		SelectedSet: make(map[string]bool, len(selected)),
		Example:     example,
	}
	if !example {
		for _, name := range selected {
			page.SelectedSet[name] = true
		}
	}
	page.NeedsCharts = true
	page.Element, page.Script = snippetParts(line.RenderSnippet())
	h.render(w, r, "compare", page)
}

type topAuthorsPage struct {
	basePage
	N       int
	Element template.HTML
	Script  template.HTML
}

func (h *Handler) handleTopAuthors(w http.ResponseWriter, r *http.Request) {
	n := intParam(r, "n", defaultTopAuthors)

	totals, err := h.store.TopAuthors(r.Context(), n)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	// XYReversal draws the first category at the bottom, so feed the
	// authors in ascending order to put the most prolific on top.
	names := make([]string, len(totals))
	counts := make([]int, len(totals))
	for i, t := range totals {
		j := len(totals) - 1 - i
		names[j] = t.Author
		counts[j] = t.Stories
	}

	// Grow with the row count so long author lists stay readable.
	height := 120 + 28*len(totals)
	if height < 420 {
		height = 420
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(chartBase(
		fmt.Sprintf("Number of Stories by the Top %d Authors", n),
		"1000px", fmt.Sprintf("%dpx", height))...)
	bar.SetXAxis(names)
	bar.AddSeries("Stories", barValues(counts))
	bar.XYReversal()

	page := topAuthorsPage{basePage: h.newBasePage("Plot: Top N authors", "/charts/top"), N: n}
	page.NeedsCharts = true
	page.Element, page.Script = snippetParts(bar.RenderSnippet())
	h.render(w, r, "top", page)
}
