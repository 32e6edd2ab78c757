package grounding

import (
	"fmt"
	"strings"

	"github.com/DeafMist/trend-radar/internal/models"
)

// ExtractSources lists the cited web pages of the first candidate. Source IDs
// are the chunk position plus one, so they line up with citation markers even
// when chunks without a URI are skipped.
//
// Missing metadata yields an empty list. If a title has to be derived from a
// URL that has no host segment, extraction stops and the sources collected so
// far are returned as a degraded outcome.
func ExtractSources(resp *Response) Outcome[[]models.Source] {
	sources := make([]models.Source, 0)

	md, ok := resp.metadata()
	if !ok || len(md.GroundingChunks) == 0 {
		return Outcome[[]models.Source]{Value: sources}
	}

	for idx, chunk := range md.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}

		name := strings.TrimSpace(chunk.Web.Title)
		if name == "" {
			host, err := hostSegment(chunk.Web.URI)
			if err != nil {
				return Outcome[[]models.Source]{
					Value:    sources,
					Degraded: fmt.Errorf("extract source %d: %w", idx+1, err),
				}
			}
			name = host
		}

		sources = append(sources, models.Source{
			ID:   idx + 1,
			Name: name,
			URL:  chunk.Web.URI,
		})
	}

	return Outcome[[]models.Source]{Value: sources}
}

// hostSegment returns the third slash-delimited segment, the host of
// scheme://host/... URLs.
func hostSegment(uri string) (string, error) {
	parts := strings.SplitN(uri, "/", 4)
	if len(parts) < 3 {
		return "", fmt.Errorf("no host segment in %q", uri)
	}
	return parts[2], nil
}
