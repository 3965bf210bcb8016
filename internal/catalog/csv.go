// SPDX-License-Identifier: MIT

package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ArtifactName is the file name of the published CSV artifact.
const ArtifactName = "goldenstories.csv"

// CSVHeader is the column header of the goldenstories.csv artifact.
var CSVHeader = []string{"Year", "Month", "Title", "Published As", "Author"}

// WriteCSV writes stories in the goldenstories.csv format, header first.
func WriteCSV(w io.Writer, stories []Story) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range stories {
		record := []string{
			strconv.Itoa(s.Year),
			s.Month,
			s.Title,
			s.PublishedAs,
			s.Author,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write story %q: %w", s.Title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a goldenstories.csv document. The header row is required
// and validated by column count only, so older artifacts with renamed
// columns still load.
func ReadCSV(r io.Reader) ([]Story, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	if _, err := cr.Read(); err == io.EOF {
		return nil, fmt.Errorf("read header: empty document")
	} else if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var stories []Story
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		year, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: year %q: %w", line, record[0], err)
		}
		if _, ok := MonthIndex(record[1]); !ok {
			return nil, fmt.Errorf("line %d: unknown month %q", line, record[1])
		}
		stories = append(stories, Story{
			Year:        year,
			Month:       record[1],
			Title:       record[2],
			PublishedAs: record[3],
			Author:      record[4],
		})
	}
	return stories, nil
}
