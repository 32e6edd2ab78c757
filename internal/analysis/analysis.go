// Package analysis answers on-demand topic searches with a grounded
// perspective breakdown.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/DeafMist/trend-radar/internal/grounding"
	"github.com/DeafMist/trend-radar/internal/logger"
	"github.com/DeafMist/trend-radar/internal/models"
	"github.com/DeafMist/trend-radar/internal/prompts"
	"github.com/DeafMist/trend-radar/internal/recovery"
)

const (
	previewWidth = 500
	excerptRunes = 100
)

var (
	// ErrEmptyQuery is returned for a blank topic.
	ErrEmptyQuery = errors.New("search query is required")
	// ErrNoText means the model answered without any text.
	ErrNoText = errors.New("no text in model response")
)

// Generator issues the grounded generation request.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*grounding.Response, error)
}

// Perspectives groups the points found for each side of a topic.
type Perspectives struct {
	For     []string `json:"for"`
	Against []string `json:"against"`
	Neutral []string `json:"neutral"`
}

// Article is the analysis of one topic.
type Article struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Summary      string          `json:"summary"`
	Perspectives Perspectives    `json:"perspectives"`
	Sources      []models.Source `json:"sources"`
}

// Result is an analysis together with the query that produced it.
type Result struct {
	Article Article `json:"article"`
	Query   string  `json:"query"`
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// WithClock replaces the clock used for generated IDs.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// Analyzer runs topic analyses.
type Analyzer struct {
	prompts *prompts.Set
	gen     Generator
	log     *slog.Logger
	now     func() time.Time
}

// New assembles an analyzer.
func New(set *prompts.Set, gen Generator, opts ...Option) *Analyzer {
	a := &Analyzer{prompts: set, gen: gen, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze asks the model about query with search grounding and recovers the
// perspective breakdown from its answer. Grounding sources replace the
// model's own list when there are any. An answer that cannot be parsed
// still yields an article that says so; only a failed call or an empty
// answer is an error.
func (a *Analyzer) Analyze(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}

	resp, err := a.gen.Generate(ctx, a.prompts.Analyze(query))
	if err != nil {
		return Result{}, fmt.Errorf("analyze %q: %w", query, err)
	}

	sources := grounding.ExtractSources(resp)
	if !sources.OK() {
		a.log.Warn("source extraction degraded", slog.Any("err", sources.Degraded))
	}
	annotated := grounding.Annotate(resp.Text(), resp)
	if !annotated.OK() {
		a.log.Warn("citation annotation skipped", slog.Any("err", annotated.Degraded))
	}
	text := annotated.Value
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("analyze %q: %w", query, ErrNoText)
	}

	article, err := parse(text)
	if err != nil {
		a.log.Error("analysis unparseable",
			slog.String("query", query),
			slog.Any("err", err),
			slog.String("raw", recovery.Preview(text, previewWidth)),
		)
		return Result{Article: a.fallback(query, text, sources.Value), Query: query}, nil
	}

	if article.ID == "" {
		article.ID = "search-" + a.stamp()
	}
	if len(sources.Value) > 0 || article.Sources == nil {
		article.Sources = sources.Value
	}
	a.log.Info("analysis finished", slog.String("query", query), slog.Int("sources", len(article.Sources)))
	return Result{Article: article, Query: query}, nil
}

func (a *Analyzer) fallback(query, text string, sources []models.Source) Article {
	return Article{
		ID:      a.stamp(),
		Title:   fmt.Sprintf("Analysis of %q", query),
		Summary: "Unable to parse AI response. Please try again.",
		Perspectives: Perspectives{
			For:     []string{"Error: " + excerpt(text, excerptRunes) + "..."},
			Against: []string{},
			Neutral: []string{},
		},
		Sources: sources,
	}
}

func (a *Analyzer) stamp() string {
	return strconv.FormatInt(a.now().UnixMilli(), 10)
}

func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

type wireArticle struct {
	ID           string                     `json:"id"`
	Title        string                     `json:"title"`
	Summary      string                     `json:"summary"`
	Perspectives map[string]json.RawMessage `json:"perspectives"`
	Sources      []models.Source            `json:"sources"`
}

// parse recovers the analysis object. Every side of the perspectives must be
// present; a side given as a single string becomes a one-point list.
func parse(text string) (Article, error) {
	var wire wireArticle
	if err := recovery.RecoverObject(text, &wire); err != nil {
		return Article{}, err
	}

	var out Article
	var err error
	if out.Perspectives.For, err = points(wire.Perspectives, "for"); err != nil {
		return Article{}, err
	}
	if out.Perspectives.Against, err = points(wire.Perspectives, "against"); err != nil {
		return Article{}, err
	}
	if out.Perspectives.Neutral, err = points(wire.Perspectives, "neutral"); err != nil {
		return Article{}, err
	}

	out.ID = wire.ID
	out.Title = wire.Title
	out.Summary = wire.Summary
	out.Sources = wire.Sources
	return out, nil
}

func points(sides map[string]json.RawMessage, side string) ([]string, error) {
	raw, ok := sides[side]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: perspective %q missing", recovery.ErrMalformedResponse, side)
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil, fmt.Errorf("%w: perspective %q empty", recovery.ErrMalformedResponse, side)
		}
		return []string{one}, nil
	}

	list := make([]string, 0)
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: perspective %q: %v", recovery.ErrMalformedResponse, side, err)
	}
	return list, nil
}
