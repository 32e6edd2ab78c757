// Package recovery extracts article records from free-form model output.
package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/DeafMist/trend-radar/internal/models"
)

// MaxRecords caps the number of records a single response can contribute.
const MaxRecords = 10

// ErrMalformedResponse means no JSON array of records could be recovered.
var ErrMalformedResponse = errors.New("malformed response")

// Recover finds, sanitizes and decodes the record array in raw using
// DefaultStrategies. At most MaxRecords records are returned, in order.
func Recover(raw string) ([]models.ArticleRecord, error) {
	return RecoverWith(raw, DefaultStrategies)
}

// RecoverWith is Recover with an explicit strategy list.
func RecoverWith(raw string, strategies []Strategy) ([]models.ArticleRecord, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}

	name, candidate := "", ""
	for _, s := range strategies {
		if out, ok := s.Extract(text); ok {
			name, candidate = s.Name, strings.TrimSpace(out)
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no candidate found", ErrMalformedResponse)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(Sanitize(candidate)), &items); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s candidate is %s, not a list", ErrMalformedResponse, name, typeErr.Value)
		}
		return nil, fmt.Errorf("%w: decode %s candidate: %v", ErrMalformedResponse, name, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: %s candidate is null, not a list", ErrMalformedResponse, name)
	}

	if len(items) > MaxRecords {
		items = items[:MaxRecords]
	}

	records := make([]models.ArticleRecord, 0, len(items))
	for i, item := range items {
		var rec models.ArticleRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode record %d: %v", ErrMalformedResponse, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Preview flattens whitespace and truncates text to width display columns
// for logging.
func Preview(text string, width int) string {
	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return "<empty>"
	}
	return runewidth.Truncate(clean, width, "...")
}
