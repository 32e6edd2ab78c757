package prompts_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/trend-radar/internal/prompts"
)

func TestDefault(t *testing.T) {
	set, err := prompts.Default()
	require.NoError(t, err)
	require.Contains(t, set.Generation, "JSON array")
	require.Equal(t, "Headline. Body", set.Narrate("Headline", "Body"))
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	set, err := prompts.Load("")
	require.NoError(t, err)

	def, err := prompts.Default()
	require.NoError(t, err)
	require.Equal(t, def, set)
}

func TestLoadOverridesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation: |\n  Only science news.\n"), 0o600))

	set, err := prompts.Load(path)
	require.NoError(t, err)
	require.Equal(t, "Only science news.\n", set.Generation)
	require.Equal(t, "A. B", set.Narrate("A", "B"))
}

func TestLoadRejectsBlankPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation: \"  \"\n"), 0o600))

	_, err := prompts.Load(path)
	require.ErrorIs(t, err, prompts.ErrMissingGeneration)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := prompts.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestAnalyzeFillsQuery(t *testing.T) {
	set, err := prompts.Default()
	require.NoError(t, err)

	prompt := set.Analyze("rail strike")
	require.Contains(t, prompt, `current information about "rail strike"`)
	require.Contains(t, prompt, "TOPIC: rail strike")
	require.NotContains(t, prompt, "{{query}}")
}

func TestLoadRejectsBlankAnalysis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: \"\"\n"), 0o600))

	_, err := prompts.Load(path)
	require.ErrorIs(t, err, prompts.ErrMissingAnalysis)
}
