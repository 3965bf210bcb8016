// Package normalize converts printed author bylines into canonical
// "Last, First" names, folds alternate spellings into a single form and
// attributes pen names to real authors.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var suffixRe = regexp.MustCompile(`(?i)(?:,\s*|\s+)(Jr\.?|Sr\.?|II|III|IV|V)$`)

// Surname particles that belong to the last name rather than the given
// names. Checked against the token before the surname, and against the
// two tokens before it for the multi-word entries.
var particles = map[string]bool{
	"van": true, "von": true, "de": true, "del": true, "di": true,
	"da": true, "la": true, "le": true, "du": true, "dos": true,
	"st": true, "st.": true, "ter": true,
	"van der": true, "van den": true, "de la": true,
}

// clean normalizes scraped text for name processing: NFC composition,
// invisible characters stripped, outer whitespace trimmed. Listing pages
// saved from old word processors tend to carry zero-width junk.
func clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}
		return r
	}, s)
	return strings.TrimFunc(s, unicode.IsSpace)
}

// LastFirst converts a name in "First Last" order to "Last, First" form.
// Suffixes (Jr., Sr., II..V) are kept at the end, surname particles stay
// attached to the surname ("A. E. van Vogt" becomes "van Vogt, A. E.").
// Names already containing a comma pass through with normalized spacing.
func LastFirst(name string) string {
	name = clean(name)
	if name == "" {
		return name
	}

	suffix := ""
	if loc := suffixRe.FindStringSubmatchIndex(name); loc != nil {
		suffix = strings.TrimSpace(name[loc[2]:loc[3]])
		name = strings.TrimRight(strings.TrimSpace(name[:loc[0]]), ",")
	}

	var result string
	if before, after, found := strings.Cut(name, ","); found {
		last := strings.TrimSpace(before)
		rest := strings.TrimSpace(after)
		if rest != "" {
			result = last + ", " + rest
		} else {
			result = last
		}
	} else {
		tokens := strings.Fields(name)
		if len(tokens) == 1 {
			result = tokens[0]
		} else {
			n := len(tokens)
			var last, first string
			switch {
			case n >= 3 && particles[strings.ToLower(tokens[n-3]+" "+tokens[n-2])]:
				last = strings.Join(tokens[n-3:], " ")
				first = strings.Join(tokens[:n-3], " ")
			case particles[strings.ToLower(tokens[n-2])]:
				last = tokens[n-2] + " " + tokens[n-1]
				first = strings.Join(tokens[:n-2], " ")
			default:
				last = tokens[n-1]
				first = strings.Join(tokens[:n-1], " ")
			}
			if first != "" {
				result = last + ", " + first
			} else {
				result = last
			}
		}
	}

	if suffix != "" {
		result = result + " " + suffix
	}
	return strings.Join(strings.Fields(result), " ")
}

// Normalizer applies the full byline cleanup chain. Nil maps act as
// identity, so a service configured without alias data still works.
type Normalizer struct {
	Spellings *AliasMap
	PenNames  *AliasMap
}

// Normalize converts a printed byline into its two canonical forms: the
// byline in "Last, First" order with spelling variants folded, and the
// real author after pen name attribution.
func (n Normalizer) Normalize(byline string) (publishedAs, author string) {
	publishedAs = LastFirst(byline)
	if n.Spellings != nil {
		publishedAs = n.Spellings.Apply(publishedAs)
	}
	author = publishedAs
	if n.PenNames != nil {
		author = n.PenNames.Apply(author)
	}
	return publishedAs, author
}
