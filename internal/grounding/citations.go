package grounding

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var markerPattern = regexp.MustCompile(`\[\d+\]`)

type insertion struct {
	offset int
	marker string
}

// Annotate inserts "[n]" markers after every supported span of text, where n
// is the chunk index plus one. Offsets are byte offsets into text; one that
// lands inside a multi-byte rune moves forward to the next rune boundary, one
// past the end clamps to the end.
//
// Insertions run from the highest offset down so that every offset still to
// be processed refers to text that has not moved. If the metadata cannot be
// applied the original text is returned as a degraded outcome.
func Annotate(text string, resp *Response) Outcome[string] {
	md, ok := resp.metadata()
	if !ok || len(md.GroundingSupports) == 0 {
		return Outcome[string]{Value: text}
	}

	inserts := make([]insertion, 0, len(md.GroundingSupports))
	for i, support := range md.GroundingSupports {
		if support.Segment == nil || support.Segment.EndIndex == nil {
			continue
		}
		end := *support.Segment.EndIndex
		if end < 0 {
			return Outcome[string]{
				Value:    text,
				Degraded: fmt.Errorf("annotate support %d: negative end index %d", i, end),
			}
		}

		marker, err := citationMarker(support.GroundingChunkIndices)
		if err != nil {
			return Outcome[string]{
				Value:    text,
				Degraded: fmt.Errorf("annotate support %d: %w", i, err),
			}
		}

		inserts = append(inserts, insertion{offset: runeBoundary(text, end), marker: marker})
	}

	sort.SliceStable(inserts, func(i, j int) bool {
		return inserts[i].offset > inserts[j].offset
	})

	out := text
	for _, ins := range inserts {
		if ins.marker == "" {
			continue
		}
		out = out[:ins.offset] + ins.marker + out[ins.offset:]
	}

	return Outcome[string]{Value: out}
}

// StripMarkers removes every "[n]" citation marker from text.
func StripMarkers(text string) string {
	return markerPattern.ReplaceAllString(text, "")
}

func citationMarker(indices []int) (string, error) {
	var b strings.Builder
	for _, idx := range indices {
		if idx < 0 {
			return "", fmt.Errorf("negative chunk index %d", idx)
		}
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(idx + 1))
		b.WriteByte(']')
	}
	return b.String(), nil
}

func runeBoundary(text string, offset int) int {
	if offset >= len(text) {
		return len(text)
	}
	for offset < len(text) && !utf8.RuneStart(text[offset]) {
		offset++
	}
	return offset
}
