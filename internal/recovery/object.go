package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var fencedObjectPattern = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// ObjectStrategies locate a single JSON object: a fenced object first, then
// the span from the first "{" to the last "}".
var ObjectStrategies = []Strategy{
	{Name: "object-fence", Extract: fencedObject},
	{Name: "object", Extract: objectSpan},
}

func fencedObject(text string) (string, bool) {
	m := fencedObjectPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func objectSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// RecoverObject finds, sanitizes and decodes one JSON object of raw into out.
func RecoverObject(raw string, out any) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}

	for _, s := range ObjectStrategies {
		candidate, ok := s.Extract(text)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(Sanitize(candidate)), out); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return fmt.Errorf("%w: %s candidate field %q is %s", ErrMalformedResponse, s.Name, typeErr.Field, typeErr.Value)
			}
			return fmt.Errorf("%w: decode %s candidate: %v", ErrMalformedResponse, s.Name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: no object found", ErrMalformedResponse)
}
