package elevenlabs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/trend-radar/internal/elevenlabs"
)

func TestSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/text-to-speech/voice-1", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("xi-api-key"))
		require.Equal(t, "audio/mpeg", r.Header.Get("Accept"))

		var body struct {
			Text          string `json:"text"`
			ModelID       string `json:"model_id"`
			VoiceSettings struct {
				Stability       float64 `json:"stability"`
				SimilarityBoost float64 `json:"similarity_boost"`
			} `json:"voice_settings"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Title. Body", body.Text)
		require.Equal(t, "model-x", body.ModelID)
		require.Equal(t, 0.5, body.VoiceSettings.Stability)
		require.Equal(t, 0.5, body.VoiceSettings.SimilarityBoost)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	client, err := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:  "key",
		BaseURL: server.URL,
		VoiceID: "voice-1",
		ModelID: "model-x",
	})
	require.NoError(t, err)

	audio, err := client.Synthesize(context.Background(), "Title. Body")
	require.NoError(t, err)
	require.Equal(t, []byte("ID3-audio"), audio)
}

func TestSynthesizeFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer server.Close()

	client, err := elevenlabs.NewClient(elevenlabs.Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "text")
	var statusErr *elevenlabs.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestSynthesizeValidation(t *testing.T) {
	_, err := elevenlabs.NewClient(elevenlabs.Config{})
	require.Error(t, err)

	client, err := elevenlabs.NewClient(elevenlabs.Config{APIKey: "k"})
	require.NoError(t, err)
	_, err = client.Synthesize(context.Background(), "   ")
	require.Error(t, err)
}
