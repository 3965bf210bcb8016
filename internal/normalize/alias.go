package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// AliasMap maps alternate forms of a name (misspellings or pen names) to
// the real name to use instead. Entries keep file order because matching
// is first hit wins.
type AliasMap struct {
	entries []aliasEntry
}

type aliasEntry struct {
	real    string
	aliases []string // lowercased at load time
}

// ParseAliasMap reads alias CSV data: a header row, then one row per real
// name with column 0 the real name and column 1 a pipe-separated list of
// aliases. Extra columns are ignored.
func ParseAliasMap(r io.Reader) (*AliasMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err == io.EOF {
		return nil, fmt.Errorf("read header: empty document")
	} else if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	m := &AliasMap{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: want real name and aliases, got %d column(s)", line, len(record))
		}
		real := clean(record[0])
		if real == "" {
			return nil, fmt.Errorf("line %d: empty real name", line)
		}
		var aliases []string
		for _, alias := range strings.Split(record[1], "|") {
			alias = clean(alias)
			if alias == "" {
				continue
			}
			aliases = append(aliases, strings.ToLower(alias))
		}
		m.entries = append(m.entries, aliasEntry{real: real, aliases: aliases})
	}
	return m, nil
}

// LoadAliasMap reads an alias CSV file from disk.
func LoadAliasMap(path string) (*AliasMap, error) {
	f, err := os.Open(path) // #nosec G304 -- alias file paths are provided by the operator
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ParseAliasMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Apply returns the real name for the first entry with an alias that is a
// case-insensitive substring of name, or name itself when nothing matches.
func (m *AliasMap) Apply(name string) string {
	lower := strings.ToLower(name)
	for _, e := range m.entries {
		for _, alias := range e.aliases {
			if strings.Contains(lower, alias) {
				return e.real
			}
		}
	}
	return name
}

// Len returns the number of real names in the map.
func (m *AliasMap) Len() int {
	return len(m.entries)
}

// Aliases returns the alias count across all entries.
func (m *AliasMap) Aliases() int {
	total := 0
	for _, e := range m.entries {
		total += len(e.aliases)
	}
	return total
}
