package recovery_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/trend-radar/internal/recovery"
)

type topic struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func TestRecoverObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		title string
	}{
		{name: "json fence", input: "```json\n{\"title\":\"A\"}\n```", title: "A"},
		{name: "untagged fence with prose", input: "Result:\n```\n{\"title\":\"B\"}\n```\nDone.", title: "B"},
		{name: "bare object", input: "Sure. {\"title\":\"C\",\"summary\":\"x\"} Hope it helps.", title: "C"},
		{name: "markdown escape", input: `{"title":"D \[1\]"}`, title: `D \[1\]`},
		{name: "citation after object", input: "{\"title\":\"E\"}[1]", title: "E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got topic
			require.NoError(t, recovery.RecoverObject(tt.input, &got))
			require.Equal(t, tt.title, got.Title)
		})
	}
}

func TestRecoverObjectFailures(t *testing.T) {
	for _, input := range []string{"", "no json here", "} reversed {", `{"title": }`, `{"title": 5}`} {
		var got topic
		err := recovery.RecoverObject(input, &got)
		require.ErrorIs(t, err, recovery.ErrMalformedResponse, input)
	}
}
