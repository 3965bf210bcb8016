// Package stats turns store query results into the table and chart
// shapes the analytics views serve: the author-by-year pivot, zero-filled
// per-author series and top-N slices.
package stats

import (
	"sort"

	"github.com/ManuGH/asfstats/internal/catalog"
)

// PivotRow is one author's row in the author-by-year pivot. Counts align
// with the pivot's Years slice.
type PivotRow struct {
	Author string `json:"author"`
	Total  int    `json:"total"`
	Counts []int  `json:"counts"`
}

// Pivot is the author-by-year story count table, most prolific author
// first. Total sits before the per-year columns, the way the original
// spreadsheet view orders them.
type Pivot struct {
	Years []int      `json:"years"`
	Rows  []PivotRow `json:"rows"`
}

// BuildPivot shapes the store's author-by-year matrix into the pivot
// table: every era year as a column, zero-filled, sorted by total
// descending with alphabetical tie-break.
func BuildPivot(matrix map[string]map[int]int) Pivot {
	years := catalog.Years()
	rows := make([]PivotRow, 0, len(matrix))

	for author, byYear := range matrix {
		row := PivotRow{Author: author, Counts: make([]int, len(years))}
		for i, year := range years {
			row.Counts[i] = byYear[year]
			row.Total += byYear[year]
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Author < rows[j].Author
	})

	return Pivot{Years: years, Rows: rows}
}

// Top returns the pivot limited to its first n rows. n larger than the
// row count returns the pivot unchanged.
func (p Pivot) Top(n int) Pivot {
	if n < 0 {
		n = 0
	}
	if n > len(p.Rows) {
		n = len(p.Rows)
	}
	return Pivot{Years: p.Years, Rows: p.Rows[:n]}
}

// Series is one author's story count per era year, zero-filled.
type Series struct {
	Author string `json:"author"`
	Years  []int  `json:"years"`
	Counts []int  `json:"counts"`
}

// BuildSeries zero-fills an author's per-year counts over the era.
func BuildSeries(author string, byYear map[int]int) Series {
	years := catalog.Years()
	counts := make([]int, len(years))
	for i, year := range years {
		counts[i] = byYear[year]
	}
	return Series{Author: author, Years: years, Counts: counts}
}

// MultiSeries groups several author series over the shared era axis, the
// shape the comparison chart consumes.
type MultiSeries struct {
	Years  []int    `json:"years"`
	Series []Series `json:"series"`
}

// BuildMultiSeries combines per-author series in the order given.
func BuildMultiSeries(series ...Series) MultiSeries {
	return MultiSeries{Years: catalog.Years(), Series: series}
}
