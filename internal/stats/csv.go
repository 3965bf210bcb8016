package stats

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ManuGH/asfstats/internal/store"
)

// WritePivotCSV writes the pivot as CSV with an Author column, the
// Total column and one column per era year.
func WritePivotCSV(w io.Writer, p Pivot) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(p.Years)+2)
	header = append(header, "Author", "Total")
	for _, year := range p.Years {
		header = append(header, fmt.Sprintf("%d", year))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write pivot header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range p.Rows {
		record[0] = row.Author
		record[1] = fmt.Sprintf("%d", row.Total)
		for i, count := range row.Counts {
			record[i+2] = fmt.Sprintf("%d", count)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write pivot row %q: %w", row.Author, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTotalsCSV writes per-author story totals as CSV.
func WriteTotalsCSV(w io.Writer, totals []store.AuthorCount) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Author", "Stories"}); err != nil {
		return fmt.Errorf("write totals header: %w", err)
	}
	for _, t := range totals {
		if err := cw.Write([]string{t.Author, fmt.Sprintf("%d", t.Stories)}); err != nil {
			return fmt.Errorf("write totals row %q: %w", t.Author, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
