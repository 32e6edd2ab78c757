package processing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/trend-radar/internal/models"
	"github.com/DeafMist/trend-radar/internal/processing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "punctuation", input: "Hello!!!   world", want: "Hello world"},
		{name: "collapse whitespace", input: "foo\n\nbar\t baz", want: "foo bar baz"},
		{name: "remove urls", input: "Check https://example.com for info", want: "Check for info"},
		{name: "remove citations", input: "Rates held[1][2] steady", want: "Rates held steady"},
		{name: "html entities", input: "Q&amp;A session", want: "Q A session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.PlainText(tt.input))
		})
	}
}

func TestKeywords(t *testing.T) {
	text := "Election election results results results turnout and the of"
	got := processing.Keywords(text, 3, 3)
	require.Equal(t, []string{"results", "election", "turnout"}, got)

	require.Nil(t, processing.Keywords("", 5, 3))
}

func TestKeywordsIgnoreLinkWords(t *testing.T) {
	text := "Budget vote vote https://example.com/budget-deals senate"
	got := processing.Keywords(text, 3, 3)
	require.ElementsMatch(t, []string{"vote", "budget", "senate"}, got)
}

func TestKeywordsSkipStopwordsAndRankTies(t *testing.T) {
	text := "They said the port strike would continue; union says port talks stall, strike looms."
	require.Equal(t, []string{"port", "strike", "continue", "looms"}, processing.Keywords(text, 4, 4))
	require.Equal(t, []string{"port", "strike", "continue", "looms", "stall", "talks", "union"}, processing.Keywords(text, 0, 4))
	require.Nil(t, processing.Keywords("the and of it", 5, 1))
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     string
	}{
		{name: "empty", text: "", maxWords: 10, want: ""},
		{name: "single sentence", text: "Central bank holds rates.", maxWords: 10, want: "Central bank holds rates"},
		{name: "multiple sentences", text: "Storm hits coast! Thousands evacuated. More rain due.", maxWords: 10, want: "Storm hits coast"},
		{name: "long text truncated", text: "A very long headline that keeps going well past the limit", maxWords: 5, want: "A very long headline that..."},
		{name: "citation markers dropped", text: "Talks resume[1][3] in Geneva.", maxWords: 10, want: "Talks resume in Geneva"},
		{name: "unlimited words", text: "Quiet day on markets", maxWords: 0, want: "Quiet day on markets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.Headline(tt.text, tt.maxWords))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts := processing.ParseTimestamp("2024-02-03T04:05:06Z")
	require.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), ts)

	legacy := processing.ParseTimestamp("2024-02-03 04:05:06")
	require.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), legacy)

	require.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), processing.ParseTimestamp("2024-02-03"))
	require.True(t, processing.ParseTimestamp("invalid").IsZero())
	require.True(t, processing.ParseTimestamp("").IsZero())
}

func TestNormalize(t *testing.T) {
	fallback := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)

	rec := models.ArticleRecord{
		Title:           "  ",
		Summary:         " Parliament passes climate bill. Opposition vows appeal. ",
		PublishedAt:     "2025-10-05T10:30:00+02:00",
		EngagementScore: -4,
	}
	processing.Normalize(&rec, fallback)

	require.Equal(t, "Parliament passes climate bill", rec.Title)
	require.Equal(t, "Parliament passes climate bill. Opposition vows appeal.", rec.Summary)
	require.Equal(t, "2025-10-05T08:30:00Z", rec.PublishedAt)
	require.Equal(t, "unknown", rec.Source)
	require.Equal(t, models.Score(0), rec.EngagementScore)

	bad := models.ArticleRecord{Title: "T", Source: "Wire", PublishedAt: "yesterday", EngagementScore: 7}
	processing.Normalize(&bad, fallback)
	require.Equal(t, "2025-10-05T12:00:00Z", bad.PublishedAt)
	require.Equal(t, "Wire", bad.Source)
	require.Equal(t, models.Score(7), bad.EngagementScore)
}

func TestToIndexed(t *testing.T) {
	audio := "https://cdn.example/a.mp3"
	rec := models.ArticleRecord{
		Title:           "Senate budget vote",
		Summary:         "Budget passes senate.",
		Content:         "The budget vote[1] passed the senate.",
		Source:          "Wire",
		PublishedAt:     "2025-10-05T10:30:00Z",
		EngagementScore: 150,
		Sources: []models.Source{
			{ID: 1, Name: "a", URL: "https://a.example/1"},
			{ID: 3, Name: "b", URL: "https://b.example/2"},
		},
		AudioURL: &audio,
	}

	doc := processing.ToIndexed(models.Article{ID: "5b0c3f7e-2f51-4a55-9d3e-0c6f1e2a9b11", ArticleRecord: rec}, 3, 4)
	require.Equal(t, "5b0c3f7e-2f51-4a55-9d3e-0c6f1e2a9b11", doc.ID)
	require.Equal(t, time.Date(2025, 10, 5, 10, 30, 0, 0, time.UTC), doc.PublishedAt)
	require.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, doc.URLs)
	require.Equal(t, 150, doc.EngagementScore)
	require.Equal(t, audio, doc.AudioURL)
	require.Equal(t, []string{"budget", "senate", "vote"}, doc.Keywords)
}
