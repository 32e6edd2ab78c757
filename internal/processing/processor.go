package processing

import (
	"cmp"
	"html"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
)

var (
	linkPattern   = regexp.MustCompile(`https?://\S+`)
	markerPattern = regexp.MustCompile(`\[\d+\]`)
)

// Function words plus the filler verbs and adverbs of wire copy. Words
// shorter than the keyword minimum never reach the set lookup, so the list
// only needs the longer ones to matter.
const englishStopwords = `
a about above after again against all also amid among an and any are around
as at be been before being below between both but by can could did does
doing down during each even few for from further had has have having he her
here hers him his how however i if in into is it its itself just last like
made make many may me might more most much must my new now of off on once
one only or other our ours out over own per said same says she should since
so some still such than that the their theirs them then there these they
this those through to too two under until up upon very was we were what
when where which while who whom why will with within without would year
years yet you your
`

var stopwords = wordSet(englishStopwords)

func wordSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(list) {
		set[w] = true
	}
	return set
}

// prepare unescapes HTML and blanks out links and citation markers.
func prepare(text string) string {
	text = html.UnescapeString(text)
	text = markerPattern.ReplaceAllString(text, " ")
	return linkPattern.ReplaceAllString(text, " ")
}

// words splits text on every rune that is neither a letter nor a digit.
func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// PlainText reduces text to its words separated by single spaces. HTML
// entities are decoded first; links, citation markers and punctuation go.
func PlainText(text string) string {
	return strings.Join(words(prepare(text)), " ")
}

// Keywords returns up to limit terms of text ranked by frequency, ties in
// alphabetical order. Terms are lowercased; stopwords and terms shorter than
// minLen runes are skipped. A non-positive limit returns every term.
func Keywords(text string, limit, minLen int) []string {
	counts := make(map[string]int)
	for _, w := range words(prepare(text)) {
		term := strings.ToLower(w)
		if len([]rune(term)) < minLen || stopwords[term] {
			continue
		}
		counts[term]++
	}
	if len(counts) == 0 {
		return nil
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	slices.SortFunc(terms, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	if limit > 0 && limit < len(terms) {
		terms = terms[:limit]
	}
	return terms
}

// Headline derives a title from the opening sentence of text, capped at
// maxWords words with a trailing ellipsis. A non-positive maxWords keeps the
// whole sentence.
func Headline(text string, maxWords int) string {
	body := linkPattern.ReplaceAllString(text, " ")
	body = markerPattern.ReplaceAllString(body, "")

	if end := strings.IndexAny(body, ".!?"); end > 0 {
		body = body[:end]
	}
	fields := strings.Fields(body)
	if maxWords > 0 && len(fields) > maxWords {
		return strings.Join(fields[:maxWords], " ") + "..."
	}
	return strings.Join(fields, " ")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339 variants and the legacy "2006-01-02 15:04:05"
// layout. It returns the zero time when nothing matches.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
