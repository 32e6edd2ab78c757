package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/DeafMist/trend-radar/internal/gemini"
	"github.com/DeafMist/trend-radar/internal/grounding"
)

func newClient(t *testing.T, handler http.HandlerFunc) *gemini.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := gemini.NewClient(context.Background(), gemini.Config{
		APIKey:  "secret",
		BaseURL: server.URL,
		Model:   "demo-model",
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := gemini.NewClient(context.Background(), gemini.Config{APIKey: "  "})
	require.Error(t, err)
}

func TestGenerateSendsGroundedRequest(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1beta/models/demo-model:generateContent", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		tools := body["tools"].([]any)
		require.Len(t, tools, 1)
		require.Contains(t, tools[0].(map[string]any), "googleSearch")
		contents := body["contents"].([]any)
		parts := contents[0].(map[string]any)["parts"].([]any)
		require.Equal(t, "find news", parts[0].(map[string]any)["text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Hello"}, {"text": " world"}]},
				"finishReason": "STOP",
				"groundingMetadata": {
					"webSearchQueries": ["news"],
					"groundingChunks": [{"web": {"uri": "https://a.example/x", "title": "A"}}],
					"groundingSupports": [{"segment": {"endIndex": 5}, "groundingChunkIndices": [0]}]
				}
			}]
		}`))
	})

	resp, err := client.Generate(context.Background(), "find news")
	require.NoError(t, err)
	require.Equal(t, "Hello world", resp.Text())
	require.Equal(t, "STOP", resp.Candidates[0].FinishReason)
	require.Equal(t, "Hello[1] world", grounding.Annotate(resp.Text(), resp).Value)

	sources := grounding.ExtractSources(resp).Value
	require.Len(t, sources, 1)
	require.Equal(t, "https://a.example/x", sources[0].URL)
}

func TestGenerateKeepsChunkPositionsAndSkipsOpenSegments(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "ab cd"}]},
				"groundingMetadata": {
					"groundingChunks": [{}, {"web": {"uri": "https://b.example", "title": "B"}}],
					"groundingSupports": [
						{"segment": {"startIndex": 0}, "groundingChunkIndices": [0]},
						{"segment": {"startIndex": 3, "endIndex": 5}, "groundingChunkIndices": [1]}
					]
				}
			}]
		}`))
	})

	resp, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	md := resp.Candidates[0].GroundingMetadata
	require.Len(t, md.GroundingChunks, 2)
	require.Nil(t, md.GroundingChunks[0].Web)
	require.Nil(t, md.GroundingSupports[0].Segment.EndIndex)
	require.Equal(t, "ab cd[2]", grounding.Annotate(resp.Text(), resp).Value)
}

func TestGenerateAPIError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	var apiErr genai.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.Code)
	require.Equal(t, "quota exceeded", apiErr.Message)
}

func TestGenerateRejectsEmptyCandidates(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)

	_, err = client.Generate(context.Background(), " ")
	require.Error(t, err)
}
