// SPDX-License-Identifier: MIT

package webui

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

// comma formats an integer with thousands separators for the narrative
// text ("3,235 stories").
func comma(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// parseTemplates builds one template per view, each a fresh parse of the
// layout plus the view's content block.
func parseTemplates() (map[string]*template.Template, error) {
	views := map[string]string{
		"stories": storiesTmpl,
		"authors": authorTotalsTmpl,
		"pivot":   pivotTmpl,
		"stacked": stackedTmpl,
		"author":  authorSeriesTmpl,
		"compare": compareTmpl,
		"top":     topTmpl,
		"about":   aboutTmpl,
	}

	funcs := template.FuncMap{"comma": comma}

	out := make(map[string]*template.Template, len(views))
	for name, content := range views {
		t, err := template.New("layout").Funcs(funcs).Parse(layoutTmpl)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.Parse(content); err != nil {
			return nil, fmt.Errorf("parse view %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

const layoutTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} &middot; ASF Statistics</title>
{{- if .NeedsTables}}
<link rel="stylesheet" type="text/css" href="https://cdn.datatables.net/2.3.5/css/dataTables.dataTables.css">
<script type="text/javascript" src="https://code.jquery.com/jquery-3.7.1.js"></script>
<script type="text/javascript" src="https://cdn.datatables.net/2.3.5/js/dataTables.js"></script>
{{- end}}
{{- if .NeedsCharts}}
<script src="https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"></script>
{{- end}}
<style>
* { box-sizing: border-box; }
body {
    margin: 0;
    font-family: Arial, Helvetica, sans-serif;
    color: #333;
    background: #fafafa;
}
.wrap { display: flex; min-height: 100vh; }
aside {
    width: 240px;
    flex-shrink: 0;
    padding: 20px 16px;
    background: #f0f0f0;
    border-right: 1px solid #ddd;
}
aside h1 { font-size: 1.15rem; margin: 0 0 16px; }
aside nav ul { list-style: none; margin: 0; padding: 0; }
aside nav li { margin: 2px 0; }
aside nav a {
    display: block;
    padding: 6px 10px;
    border-radius: 6px;
    color: #333;
    text-decoration: none;
}
aside nav a:hover { background: #e2e2e2; }
aside nav li.active a { background: #d9d9d9; font-weight: bold; }
aside form { margin-top: 18px; font-size: 0.9rem; }
aside form label { display: block; margin-bottom: 6px; }
aside input[type=number] { width: 70px; }
aside input[list] { width: 100%; }
aside select[multiple] { width: 100%; }
aside button { margin-top: 8px; }
a.download {
    display: inline-block;
    margin-top: 18px;
    font-size: 0.9rem;
}
aside footer {
    margin-top: 24px;
    font-size: 0.75rem;
    color: #888;
}
main { flex-grow: 1; padding: 24px 28px; overflow-x: auto; }
main h2 { font-size: 1.25rem; margin-top: 0; }
table.display { font-size: 0.92rem; }
.note {
    max-width: 48rem;
    font-size: 1.02rem;
    line-height: 1.45;
    margin-bottom: 8px;
}
.note-title { font-size: 1.2rem; font-weight: bold; margin: 16px 0 6px; }
</style>
</head>
<body>
<div class="wrap">
<aside>
<h1>ASF Statistics</h1>
<nav>
<ul>
{{- range .Nav}}
<li{{if eq .Path $.Active}} class="active"{{end}}><a href="{{.Path}}">{{.Label}}</a></li>
{{- end}}
</ul>
</nav>
{{block "sidebar" .}}{{end}}
{{- if .CSVHref}}
<a class="download" href="{{.CSVHref}}">Download as CSV</a>
{{- end}}
<footer>asfstats {{.Version}}</footer>
</aside>
<main>
{{template "content" .}}
</main>
</div>
</body>
</html>
`

const storiesTmpl = `{{define "content"}}
<h2>Stories Published in Astounding Science Fiction: July 1939 to September 1960</h2>
<table id="interact" class="display" style="width:100%">
<thead>
<tr><th>Seq</th><th>Year</th><th>Month</th><th>Title</th><th>Pub As</th><th>Author</th></tr>
</thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Seq}}</td><td>{{.Year}}</td><td>{{.Month}}</td><td>{{.Title}}</td><td>{{.PublishedAs}}</td><td>{{.Author}}</td></tr>
{{- end}}
</tbody>
</table>
<script>
new DataTable('#interact', {
    autoWidth: false,
    order: [],
    columnDefs: [{ targets: 1, width: '25px' }]
});
</script>
{{end}}`

const authorTotalsTmpl = `{{define "content"}}
<h2>Total Number of Stories Published by Each Author</h2>
<table id="interact" class="display" style="width:100%">
<thead>
<tr><th>Author</th><th>Story Count</th></tr>
</thead>
<tbody>
{{- range .Totals}}
<tr><td>{{.Author}}</td><td>{{.Stories}}</td></tr>
{{- end}}
</tbody>
</table>
<script>
new DataTable('#interact', {
    autoWidth: false,
    order: [],
    columnDefs: [{ targets: 0, width: '25%' }]
});
</script>
{{end}}`

const pivotTmpl = `{{define "content"}}
<h2>Number of Stories Published by Each Author By Year</h2>
<table id="interact" class="display" style="width:100%">
<thead>
<tr><th>Author</th><th>Total</th>{{range .Pivot.Years}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- range .Pivot.Rows}}
<tr><td>{{.Author}}</td><td>{{.Total}}</td>{{range .Counts}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
<script>
new DataTable('#interact', {
    autoWidth: false,
    order: [],
    columnDefs: [{ targets: 1, width: '100px' }]
});
</script>
{{end}}`

const stackedTmpl = `{{define "sidebar"}}
<form method="get" action="/charts/stacked">
<label>number of authors:
<input type="number" name="n" min="1" value="{{.N}}">
</label>
<button type="submit">Update</button>
</form>
{{end}}
{{define "content"}}
{{.Element}}
{{.Script}}
{{end}}`

const authorSeriesTmpl = `{{define "sidebar"}}
<form method="get" action="/charts/author">
<label>pick an author:
<input list="author-list" name="author" placeholder="Author..." value="{{.Selected}}">
</label>
<datalist id="author-list">
{{- range .Authors}}
<option value="{{.}}">
{{- end}}
</datalist>
<button type="submit">Plot</button>
</form>
{{end}}
{{define "content"}}
{{- if .Example}}
<h2>Stories per Year by One Author</h2>
<p class="note">Pick an author from the menu on the left, or click the field and
start typing a last name to find the author in the list. The output will look
like the example below: the number of stories Robert Heinlein published each
year, including those that appeared under his pen names Anson MacDonald and
Caleb Saunders. Each installment of a serial counts as one story.</p>
{{- end}}
{{.Element}}
{{.Script}}
{{end}}`

const compareTmpl = `{{define "sidebar"}}
<form method="get" action="/charts/compare">
<label>select one or more authors:
<select name="authors" multiple size="14">
{{- range .Authors}}
<option value="{{.}}"{{if index $.SelectedSet .}} selected{{end}}>{{.}}</option>
{{- end}}
</select>
</label>
<button type="submit">Plot selected authors</button>
</form>
{{end}}
{{define "content"}}
{{- if .Example}}
<h2>Stories per Year by Multiple Authors</h2>
<p class="note">Pick several authors from the menu on the left. The output
will look like the example below: the number of stories Robert Heinlein and
Isaac Asimov each published per year, pen names included. Each installment of
a serial counts as one story.</p>
{{- end}}
{{.Element}}
{{.Script}}
{{end}}`

const topTmpl = `{{define "sidebar"}}
<form method="get" action="/charts/top">
<label>number of authors:
<input type="number" name="n" min="1" value="{{.N}}">
</label>
<button type="submit">Update</button>
</form>
{{end}}
{{define "content"}}
{{.Element}}
{{.Script}}
{{end}}`

const aboutTmpl = `{{define "content"}}
<div class="note-title">Science Fiction: The Golden Age</div>
<p class="note">The golden age of pulp science fiction is generally agreed to
have started in the late 1930s, when John W. Campbell became editor of
Astounding Science Fiction. There is less agreement on when the era ended;
this site uses the July 1939 and September 1960 issues of Astounding as the
bookends.</p>
<p class="note">The July 1939 issue carried both the first published story by
A. E. van Vogt, &quot;Black Destroyer&quot;, and Isaac Asimov&#39;s first
appearance in Astounding with &quot;Trends&quot;. Robert Heinlein&#39;s first
story, &quot;Life-Line&quot;, followed in August, and September brought
Theodore Sturgeon&#39;s first science fiction story, &quot;Ether
Breather&quot;.</p>
<p class="note">The data here covers {{comma .Stats.Stories}} stories by
{{.Stats.Authors}} authors in {{.Stats.Issues}} issues over {{.Stats.Years}}
years. The menu on the left offers tables and charts for exploring it. Tables
sort by clicking a column heading, and the search field above a table filters
rows; searching for &quot;jenkins&quot;, for example, finds the single story
credited to Will F. Jenkins rather than his usual pen name Murray Leinster.</p>
<div class="note-title">About This Data</div>
<p class="note">The story listing comes from
<a href="https://www.andrew-may.com/asf/list.htm" target="_blank" rel="noopener">a page
compiled by Andrew May</a> covering everything Astounding published during the
golden age (<a href="https://www.andrew-may.com/bio.htm" target="_blank" rel="noopener">about
Andrew</a>). This service fetches that listing, normalizes author names and
pen names, and serves the result as the tables, charts, and downloads here.</p>
<div class="note-title">Downloads</div>
<ul class="note">
<li><a href="/export/stories.csv">All stories (CSV)</a></li>
<li><a href="/export/pivot.csv">Stories by author and year (CSV)</a></li>
<li><a href="/export/totals.csv">Author totals (CSV)</a></li>
<li><a href="/files/goldenstories.csv">Published artifact: goldenstories.csv</a></li>
</ul>
{{end}}`
