// SPDX-License-Identifier: MIT

package catalog

import "testing"

func TestMonthIndex(t *testing.T) {
	tests := []struct {
		name  string
		month string
		want  int
		ok    bool
	}{
		{"january", "January", 1, true},
		{"december", "December", 12, true},
		{"september", "September", 9, true},
		{"lowercase is not a month", "july", 0, false},
		{"abbreviation is not a month", "Jul", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MonthIndex(tt.month)
			if ok != tt.ok || got != tt.want {
				t.Errorf("MonthIndex(%q) = (%d, %v), want (%d, %v)", tt.month, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestYears(t *testing.T) {
	years := Years()
	if len(years) != 22 {
		t.Fatalf("Years() length = %d, want 22", len(years))
	}
	if years[0] != 1939 || years[len(years)-1] != 1960 {
		t.Errorf("Years() bounds = %d..%d, want 1939..1960", years[0], years[len(years)-1])
	}
}

func TestInEra(t *testing.T) {
	tests := []struct {
		name  string
		issue Issue
		want  bool
	}{
		{"first issue", Issue{1939, "July"}, true},
		{"last issue", Issue{1960, "September"}, true},
		{"month before era", Issue{1939, "June"}, false},
		{"month after era", Issue{1960, "October"}, false},
		{"middle of era", Issue{1950, "January"}, true},
		{"year before era", Issue{1938, "December"}, false},
		{"year after era", Issue{1961, "January"}, false},
		{"bad month name", Issue{1950, "Smarch"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InEra(tt.issue); got != tt.want {
				t.Errorf("InEra(%v) = %v, want %v", tt.issue, got, tt.want)
			}
		})
	}
}

func TestIssueString(t *testing.T) {
	got := Issue{Year: 1939, Month: "July"}.String()
	if got != "July 1939" {
		t.Errorf("Issue.String() = %q, want %q", got, "July 1939")
	}
}
