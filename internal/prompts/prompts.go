// Package prompts loads the generation prompt, the narration template and
// the topic analysis template.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

var (
	ErrMissingGeneration = errors.New("generation prompt is required")
	ErrMissingNarration  = errors.New("narration template is required")
	ErrMissingAnalysis   = errors.New("analysis template is required")
)

// Set holds the prompts used by a refresh run.
type Set struct {
	Generation string `yaml:"generation"`
	// Narration is the text sent to speech synthesis; {{title}} and
	// {{content}} are replaced with the article fields.
	Narration string `yaml:"narration"`
	// Analysis asks for a perspective breakdown of one topic; {{query}} is
	// replaced with the topic.
	Analysis string `yaml:"analysis"`
}

// Default returns the embedded prompt set.
func Default() (*Set, error) {
	return parse(defaultPrompts)
}

// Load reads a prompt file. An empty path selects the embedded defaults;
// fields missing from the file keep their default values.
func Load(path string) (*Set, error) {
	set, err := Default()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate checks that every prompt is present.
func (s *Set) Validate() error {
	if strings.TrimSpace(s.Generation) == "" {
		return ErrMissingGeneration
	}
	if strings.TrimSpace(s.Narration) == "" {
		return ErrMissingNarration
	}
	if strings.TrimSpace(s.Analysis) == "" {
		return ErrMissingAnalysis
	}
	return nil
}

// Narrate renders the narration template for an article.
func (s *Set) Narrate(title, content string) string {
	r := strings.NewReplacer("{{title}}", title, "{{content}}", content)
	return strings.TrimSpace(r.Replace(s.Narration))
}

// Analyze renders the analysis template for a topic.
func (s *Set) Analyze(query string) string {
	return strings.TrimSpace(strings.ReplaceAll(s.Analysis, "{{query}}", query))
}

func parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}
