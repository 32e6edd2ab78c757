package grounding_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/trend-radar/internal/grounding"
	"github.com/DeafMist/trend-radar/internal/models"
)

func intPtr(v int) *int { return &v }

func withMetadata(md *grounding.Metadata) *grounding.Response {
	return &grounding.Response{Candidates: []grounding.Candidate{{GroundingMetadata: md}}}
}

func support(end int, chunks ...int) grounding.Support {
	return grounding.Support{
		Segment:               &grounding.Segment{EndIndex: intPtr(end)},
		GroundingChunkIndices: chunks,
	}
}

func TestExtractSourcesWithoutMetadata(t *testing.T) {
	tests := []struct {
		name string
		resp *grounding.Response
	}{
		{name: "nil response", resp: nil},
		{name: "no candidates", resp: &grounding.Response{}},
		{name: "no metadata", resp: &grounding.Response{Candidates: []grounding.Candidate{{}}}},
		{name: "no chunks", resp: withMetadata(&grounding.Metadata{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := grounding.ExtractSources(tt.resp)
			require.True(t, out.OK())
			require.NotNil(t, out.Value)
			require.Empty(t, out.Value)
		})
	}
}

func TestExtractSourcesKeepsChunkNumbering(t *testing.T) {
	resp := withMetadata(&grounding.Metadata{
		GroundingChunks: []grounding.Chunk{
			{Web: &grounding.WebChunk{URI: "https://a.example/one", Title: "A"}},
			{},
			{Web: &grounding.WebChunk{URI: ""}},
			{Web: &grounding.WebChunk{URI: "https://news.example.org/story"}},
		},
	})

	out := grounding.ExtractSources(resp)
	require.True(t, out.OK())
	require.Equal(t, []models.Source{
		{ID: 1, Name: "A", URL: "https://a.example/one"},
		{ID: 4, Name: "news.example.org", URL: "https://news.example.org/story"},
	}, out.Value)
}

func TestExtractSourcesDegradesOnHostlessURL(t *testing.T) {
	resp := withMetadata(&grounding.Metadata{
		GroundingChunks: []grounding.Chunk{
			{Web: &grounding.WebChunk{URI: "https://ok.example/x", Title: "OK"}},
			{Web: &grounding.WebChunk{URI: "not-a-url"}},
			{Web: &grounding.WebChunk{URI: "https://late.example/x", Title: "Late"}},
		},
	})

	out := grounding.ExtractSources(resp)
	require.Error(t, out.Degraded)
	require.Len(t, out.Value, 1)
	require.Equal(t, "OK", out.Value[0].Name)

	first := withMetadata(&grounding.Metadata{
		GroundingChunks: []grounding.Chunk{{Web: &grounding.WebChunk{URI: "bare"}}},
	})
	out = grounding.ExtractSources(first)
	require.Error(t, out.Degraded)
	require.Empty(t, out.Value)
}

func TestExtractSourcesEncodesEmptyList(t *testing.T) {
	data, err := json.Marshal(grounding.ExtractSources(nil).Value)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestAnnotateDescendingInsertion(t *testing.T) {
	resp := withMetadata(&grounding.Metadata{
		GroundingSupports: []grounding.Support{support(5, 0), support(2, 1)},
	})

	out := grounding.Annotate("Hello world", resp)
	require.True(t, out.OK())
	require.Equal(t, "He[2]llo[1] world", out.Value)
}

func TestAnnotateIsPureInsertion(t *testing.T) {
	text := "Markets rallied. Rates held steady. Analysts disagree."
	resp := withMetadata(&grounding.Metadata{
		GroundingSupports: []grounding.Support{
			support(16, 0, 2),
			support(35, 1),
			support(16, 3),
			support(len(text), 0),
			support(200, 4),
		},
	})

	out := grounding.Annotate(text, resp)
	require.True(t, out.OK())
	require.GreaterOrEqual(t, len(out.Value), len(text))
	require.Equal(t, text, grounding.StripMarkers(out.Value))
	require.Contains(t, out.Value, "rallied.[4][1][3]")
	require.Contains(t, out.Value, "steady.[2]")
	require.Contains(t, out.Value, "disagree.[5][1]")
}

func TestAnnotateSkipsEmptyAndInvalidSegments(t *testing.T) {
	resp := withMetadata(&grounding.Metadata{
		GroundingSupports: []grounding.Support{
			support(3),
			{GroundingChunkIndices: []int{0}},
			{Segment: &grounding.Segment{}, GroundingChunkIndices: []int{0}},
			support(1, 0),
		},
	})

	out := grounding.Annotate("abcdef", resp)
	require.True(t, out.OK())
	require.Equal(t, "a[1]bcdef", out.Value)
}

func TestAnnotateReturnsOriginalOnBadMetadata(t *testing.T) {
	tests := []struct {
		name     string
		supports []grounding.Support
	}{
		{name: "negative offset", supports: []grounding.Support{support(4, 0), support(-1, 0)}},
		{name: "negative chunk", supports: []grounding.Support{support(2, 0), support(4, -3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := grounding.Annotate("original", withMetadata(&grounding.Metadata{GroundingSupports: tt.supports}))
			require.Error(t, out.Degraded)
			require.Equal(t, "original", out.Value)
		})
	}
}

func TestAnnotateRespectsRuneBoundaries(t *testing.T) {
	text := "héllo"
	// byte 2 is the continuation byte of "é"
	out := grounding.Annotate(text, withMetadata(&grounding.Metadata{
		GroundingSupports: []grounding.Support{support(2, 0)},
	}))
	require.True(t, out.OK())
	require.Equal(t, "hé[1]llo", out.Value)
}

func TestAnnotateWithoutMetadata(t *testing.T) {
	out := grounding.Annotate("plain", &grounding.Response{})
	require.True(t, out.OK())
	require.Equal(t, "plain", out.Value)
}

func TestResponseText(t *testing.T) {
	resp := &grounding.Response{Candidates: []grounding.Candidate{{
		Content: &grounding.Content{Parts: []grounding.Part{{Text: "one "}, {Text: "two"}}},
	}}}
	require.Equal(t, "one two", resp.Text())

	var empty *grounding.Response
	require.Equal(t, "", empty.Text())
}

func TestResponseDecodesProviderJSON(t *testing.T) {
	payload := `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": "Hello world"}]},
			"groundingMetadata": {
				"webSearchQueries": ["hello"],
				"groundingChunks": [{"web": {"uri": "https://a.example/x", "title": "a.example"}}],
				"groundingSupports": [{"segment": {"endIndex": 5, "text": "Hello"}, "groundingChunkIndices": [0]}]
			}
		}]
	}`

	var resp grounding.Response
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))

	out := grounding.Annotate(resp.Text(), &resp)
	require.Equal(t, "Hello[1] world", out.Value)
	require.Len(t, grounding.ExtractSources(&resp).Value, 1)
}
