// SPDX-License-Identifier: MIT

// Package catalog defines the domain model for the Astounding Science
// Fiction story dataset: the stories themselves, the issues they appeared
// in, and the July 1939 to September 1960 era the dataset covers.
package catalog

import "fmt"

// Story is one story as listed in a magazine issue.
type Story struct {
	Year        int    `json:"year"`
	Month       string `json:"month"`
	Title       string `json:"title"`
	PublishedAs string `json:"published_as"`
	Author      string `json:"author"`
}

// Issue identifies a single magazine issue by cover date.
type Issue struct {
	Year  int    `json:"year"`
	Month string `json:"month"`
}

// Era bounds: the dataset runs from the July 1939 issue through the
// September 1960 issue, inclusive.
var (
	EraStart = Issue{Year: 1939, Month: "July"}
	EraEnd   = Issue{Year: 1960, Month: "September"}
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var monthIndex = func() map[string]int {
	m := make(map[string]int, len(monthNames))
	for i, name := range monthNames {
		m[name] = i + 1
	}
	return m
}()

// Months returns the twelve month names in calendar order.
func Months() []string {
	return monthNames[:]
}

// MonthIndex returns the 1-based calendar index of a month name, or false
// if the name is not a month.
func MonthIndex(name string) (int, bool) {
	i, ok := monthIndex[name]
	return i, ok
}

// Years returns every year of the era in ascending order.
func Years() []int {
	years := make([]int, 0, EraEnd.Year-EraStart.Year+1)
	for y := EraStart.Year; y <= EraEnd.Year; y++ {
		years = append(years, y)
	}
	return years
}

// InEra reports whether an issue falls inside the era bounds.
func InEra(issue Issue) bool {
	m, ok := MonthIndex(issue.Month)
	if !ok {
		return false
	}
	start, _ := MonthIndex(EraStart.Month)
	end, _ := MonthIndex(EraEnd.Month)
	switch {
	case issue.Year < EraStart.Year || issue.Year > EraEnd.Year:
		return false
	case issue.Year == EraStart.Year:
		return m >= start
	case issue.Year == EraEnd.Year:
		return m <= end
	default:
		return true
	}
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %d", i.Month, i.Year)
}

// Issue returns the issue a story appeared in.
func (s Story) Issue() Issue {
	return Issue{Year: s.Year, Month: s.Month}
}
