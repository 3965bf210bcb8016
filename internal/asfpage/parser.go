// Package asfpage fetches and parses the Astounding Science Fiction
// issue listing page: one HTML document with a heading line per issue
// ("July 1939") followed by one line per story ("Title (Author)").
package asfpage

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/log"
)

// RawStory is one story line attributed to the issue heading above it.
// The byline is the author text exactly as printed, before normalization.
type RawStory struct {
	Year   int    `json:"year"`
	Month  string `json:"month"`
	Title  string `json:"title"`
	Byline string `json:"byline"`
}

// Listing is the parsed page.
type Listing struct {
	Stories []RawStory `json:"stories"`
	Issues  int        `json:"issues"`
	Skipped int        `json:"skipped"`
}

var (
	storyLineRe = regexp.MustCompile(`^(.*)\(([^()]*)\)$`)
	yearRe      = regexp.MustCompile(`^\d{4}`)
)

// ParseListing extracts the story listing from the page HTML. Lines that
// are neither an issue heading nor a "Title (Author)" story line are
// counted and skipped, as are story lines appearing before the first
// issue heading. A page without a single issue heading returns ErrNoIssues.
func ParseListing(r io.Reader) (*Listing, error) {
	logger := log.WithComponent("asfpage")

	text, err := flattenHTML(r)
	if err != nil {
		return nil, &PageError{Sentinel: ErrUnavailable, Operation: "parse", Err: err}
	}

	listing := &Listing{}
	var current *catalog.Issue

	for lineNum, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if issue, ok := parseIssueLine(line); ok {
			current = &issue
			listing.Issues++
			continue
		}

		m := storyLineRe.FindStringSubmatch(line)
		if m == nil {
			listing.Skipped++
			logger.Debug().
				Int("line", lineNum+1).
				Str("text", line).
				Msg("line is not an issue heading or Title (Author)")
			continue
		}
		if current == nil {
			listing.Skipped++
			logger.Debug().
				Int("line", lineNum+1).
				Str("text", line).
				Msg("story line before first issue heading")
			continue
		}

		listing.Stories = append(listing.Stories, RawStory{
			Year:   current.Year,
			Month:  current.Month,
			Title:  strings.TrimSpace(m[1]),
			Byline: strings.TrimSpace(m[2]),
		})
	}

	if listing.Issues == 0 {
		return nil, &PageError{Sentinel: ErrNoIssues, Operation: "parse"}
	}
	return listing, nil
}

// parseIssueLine recognizes issue headings: exactly two fields, a month
// name followed by a word starting with four digits.
func parseIssueLine(line string) (catalog.Issue, bool) {
	words := strings.Fields(line)
	if len(words) != 2 {
		return catalog.Issue{}, false
	}
	if _, ok := catalog.MonthIndex(words[0]); !ok {
		return catalog.Issue{}, false
	}
	digits := yearRe.FindString(words[1])
	if digits == "" {
		return catalog.Issue{}, false
	}
	year, err := strconv.Atoi(digits)
	if err != nil {
		return catalog.Issue{}, false
	}
	return catalog.Issue{Year: year, Month: words[0]}, true
}

// flattenHTML renders the document as plain text with <br> and block
// element boundaries turned into newlines, close to what a browser's
// visual line breaks would be for this page.
func flattenHTML(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var b strings.Builder
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return b.String(), nil
			}
			return "", z.Err()

		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br":
				b.WriteByte('\n')
			case "script", "style":
				if tt == html.StartTagToken {
					skipDepth++
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skipDepth > 0 {
					skipDepth--
				}
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "td", "th":
				b.WriteByte('\n')
			}
		}
	}
}
