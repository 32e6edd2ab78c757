// Package refresh runs one corpus refresh: grounded generation, record
// recovery, narration audio and the corpus swap.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/trend-radar/internal/grounding"
	"github.com/DeafMist/trend-radar/internal/logger"
	"github.com/DeafMist/trend-radar/internal/models"
	"github.com/DeafMist/trend-radar/internal/processing"
	"github.com/DeafMist/trend-radar/internal/prompts"
	"github.com/DeafMist/trend-radar/internal/recovery"
)

const (
	audioContentType = "audio/mpeg"
	previewWidth     = 500
)

// Generator issues the grounded generation request.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*grounding.Response, error)
}

// Synthesizer turns narration text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore keeps narration files and hands out their public URLs.
type AudioStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Repository is the corpus table. InsertMany returns the stored rows in input
// order, carrying the IDs the table assigned.
type Repository interface {
	DeleteAll(ctx context.Context) error
	InsertMany(ctx context.Context, records []models.ArticleRecord) ([]models.Article, error)
}

// Mirror receives a copy of every inserted corpus for search.
type Mirror interface {
	ReplaceAll(ctx context.Context, docs []models.IndexedArticle) error
}

// Report summarises a finished run.
type Report struct {
	Articles      int  `json:"articles"`
	Sources       int  `json:"sources"`
	WithAudio     int  `json:"with_audio"`
	AudioFailures int  `json:"audio_failures"`
	DeleteFailed  bool `json:"delete_failed"`
	MirrorFailed  bool `json:"mirror_failed"`
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the run logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMirror enables the search mirror. Keyword extraction for mirrored
// documents uses limit and minLen.
func WithMirror(m Mirror, limit, minLen int) Option {
	return func(p *Pipeline) {
		p.mirror = m
		p.keywordLimit = limit
		p.keywordMinLen = minLen
	}
}

// WithClock replaces the wall clock used as the fallback publish time.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithKeyFunc replaces the audio object key generator.
func WithKeyFunc(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.audioKey = fn
		}
	}
}

// Pipeline is the refresh orchestrator. Run is strictly sequential and
// not safe for concurrent use.
type Pipeline struct {
	prompts *prompts.Set
	gen     Generator
	synth   Synthesizer
	store   AudioStore
	repo    Repository
	mirror  Mirror

	keywordLimit  int
	keywordMinLen int

	log      *slog.Logger
	now      func() time.Time
	audioKey func() string
}

// New assembles a pipeline from its collaborators.
func New(set *prompts.Set, gen Generator, synth Synthesizer, store AudioStore, repo Repository, opts ...Option) *Pipeline {
	p := &Pipeline{
		prompts:       set,
		gen:           gen,
		synth:         synth,
		store:         store,
		repo:          repo,
		keywordLimit:  8,
		keywordMinLen: 4,
		log:           logger.Discard(),
		now:           time.Now,
		audioKey:      func() string { return "temp-" + uuid.NewString() + ".mp3" },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one refresh. Only generation, record recovery and the
// corpus insert abort the run; everything else degrades and is counted
// in the report.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	var report Report
	started := p.now().UTC()

	resp, err := p.gen.Generate(ctx, p.prompts.Generation)
	if err != nil {
		return report, fmt.Errorf("generate articles: %w", err)
	}
	text := resp.Text()
	p.log.Info("generation finished", slog.Int("text_bytes", len(text)))

	sources := grounding.ExtractSources(resp)
	if !sources.OK() {
		p.log.Warn("source extraction degraded", slog.Any("err", sources.Degraded), slog.Int("kept", len(sources.Value)))
	}
	report.Sources = len(sources.Value)

	annotated := grounding.Annotate(text, resp)
	if !annotated.OK() {
		p.log.Warn("citation annotation skipped", slog.Any("err", annotated.Degraded))
	}

	records, err := p.recover(annotated.Value, text)
	if err != nil {
		p.log.Error("recover articles",
			slog.Any("err", err),
			slog.String("raw", recovery.Preview(annotated.Value, previewWidth)),
		)
		return report, fmt.Errorf("recover articles: %w", err)
	}

	for i := range records {
		processing.Normalize(&records[i], started)
		records[i].Sources = sources.Value
	}
	report.Articles = len(records)
	p.log.Info("articles recovered", slog.Int("articles", len(records)), slog.Int("sources", report.Sources))

	if err := p.repo.DeleteAll(ctx); err != nil {
		report.DeleteFailed = true
		p.log.Error("delete previous corpus", slog.Any("err", err))
	}

	for i := range records {
		url, err := p.narrate(ctx, records[i])
		if err != nil {
			report.AudioFailures++
			p.log.Warn("narration audio failed",
				slog.Int("article", i),
				slog.String("title", records[i].Title),
				slog.Any("err", err),
			)
			continue
		}
		records[i].AudioURL = &url
		report.WithAudio++
	}

	stored, err := p.repo.InsertMany(ctx, records)
	if err != nil {
		return report, fmt.Errorf("insert articles: %w", err)
	}

	if p.mirror != nil {
		docs := make([]models.IndexedArticle, 0, len(stored))
		for _, article := range stored {
			docs = append(docs, processing.ToIndexed(article, p.keywordLimit, p.keywordMinLen))
		}
		if err := p.mirror.ReplaceAll(ctx, docs); err != nil {
			report.MirrorFailed = true
			p.log.Warn("search mirror failed", slog.Any("err", err))
		}
	}

	p.log.Info("refresh finished",
		slog.Int("articles", report.Articles),
		slog.Int("with_audio", report.WithAudio),
		slog.Int("audio_failures", report.AudioFailures),
		slog.Duration("took", p.now().UTC().Sub(started)),
	)
	return report, nil
}

// recover parses the annotated text and falls back to the raw text, since
// a marker spliced in front of the array can hide it from the recoverer.
func (p *Pipeline) recover(annotated, raw string) ([]models.ArticleRecord, error) {
	records, err := recovery.Recover(annotated)
	if err == nil || annotated == raw {
		return records, err
	}
	p.log.Warn("annotated text unparseable, retrying without citations", slog.Any("err", err))
	return recovery.Recover(raw)
}

func (p *Pipeline) narrate(ctx context.Context, rec models.ArticleRecord) (string, error) {
	text := grounding.StripMarkers(p.prompts.Narrate(rec.Title, rec.Content))
	audio, err := p.synth.Synthesize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}

	key := p.audioKey()
	if err := p.store.Upload(ctx, key, audio, audioContentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	url := p.store.PublicURL(key)
	if url == "" {
		return "", errors.New("empty public url for " + key)
	}
	return url, nil
}
