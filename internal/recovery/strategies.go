package recovery

import "strings"

const (
	fence     = "```"
	jsonFence = "```json"
)

// Strategy picks a candidate JSON payload out of model output.
type Strategy struct {
	Name    string
	Extract func(text string) (string, bool)
}

// DefaultStrategies are tried in order; the first one that yields a
// candidate wins.
var DefaultStrategies = []Strategy{
	{Name: "json-fence", Extract: taggedFence},
	{Name: "fence", Extract: anyFence},
	{Name: "array", Extract: arraySpan},
	{Name: "verbatim", Extract: verbatim},
}

func taggedFence(text string) (string, bool) {
	return between(text, jsonFence)
}

func anyFence(text string) (string, bool) {
	return between(text, fence)
}

// between returns the text after the first opener up to the next fence.
func between(text, opener string) (string, bool) {
	i := strings.Index(text, opener)
	if i < 0 {
		return "", false
	}
	start := i + len(opener)
	end := strings.Index(text[start:], fence)
	if end <= 0 {
		return "", false
	}
	return strings.TrimSpace(text[start : start+end]), true
}

func arraySpan(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func verbatim(text string) (string, bool) {
	return text, true
}
