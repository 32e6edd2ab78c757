package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DeafMist/trend-radar/internal/config"
	"github.com/DeafMist/trend-radar/internal/elasticsearch"
	"github.com/DeafMist/trend-radar/internal/elevenlabs"
	"github.com/DeafMist/trend-radar/internal/gemini"
	"github.com/DeafMist/trend-radar/internal/prompts"
	"github.com/DeafMist/trend-radar/internal/supabase"
)

// FreshnessChecker reports whether the corpus gained rows since a moment.
type FreshnessChecker interface {
	HasSince(ctx context.Context, since time.Time) (bool, error)
}

// NeedsRefresh reports whether no article was created within window of now.
func NeedsRefresh(ctx context.Context, corpus FreshnessChecker, window time.Duration, now time.Time) (bool, error) {
	fresh, err := corpus.HasSince(ctx, now.Add(-window))
	if err != nil {
		return false, fmt.Errorf("check freshness: %w", err)
	}
	return !fresh, nil
}

// Components are the live clients behind a pipeline, exposed so binaries
// can reuse them.
type Components struct {
	Articles *supabase.Articles
	Search   *elasticsearch.Client
}

// Build constructs a pipeline from configuration. Missing provider
// secrets fail here.
func Build(ctx context.Context, cfg *config.Refresh, log *slog.Logger) (*Pipeline, *Components, error) {
	set, err := prompts.Load(cfg.PromptFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load prompts: %w", err)
	}

	gen, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init gemini: %w", err)
	}

	tts, err := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:  cfg.ElevenLabsAPIKey,
		VoiceID: cfg.ElevenLabsVoiceID,
		ModelID: cfg.ElevenLabsModelID,
		Timeout: cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init elevenlabs: %w", err)
	}

	db, err := supabase.NewClient(supabase.Config{
		URL:     cfg.SupabaseURL,
		Key:     cfg.SupabaseKey,
		Timeout: cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init supabase: %w", err)
	}

	comps := &Components{Articles: db.Articles(cfg.ArticlesTable)}
	opts := []Option{WithLogger(log)}

	if cfg.SearchMirror {
		es, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init elasticsearch: %w", err)
		}
		comps.Search = es
		opts = append(opts, WithMirror(es, cfg.KeywordLimit, cfg.KeywordMinLength))
	}

	p := New(set, gen, tts, db.Storage(cfg.AudioBucket), comps.Articles, opts...)
	return p, comps, nil
}
