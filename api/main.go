package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/trend-radar/internal/analysis"
	"github.com/DeafMist/trend-radar/internal/config"
	"github.com/DeafMist/trend-radar/internal/elasticsearch"
	"github.com/DeafMist/trend-radar/internal/gemini"
	"github.com/DeafMist/trend-radar/internal/logger"
	"github.com/DeafMist/trend-radar/internal/models"
	"github.com/DeafMist/trend-radar/internal/prompts"
	"github.com/DeafMist/trend-radar/internal/refresh"
	"github.com/DeafMist/trend-radar/internal/supabase"
	"github.com/DeafMist/trend-radar/internal/trigger"
)

type corpusReader interface {
	refresh.FreshnessChecker
	ListSince(ctx context.Context, since time.Time, limit int) ([]models.Article, error)
	Get(ctx context.Context, id string) (*models.Article, error)
}

type searcher interface {
	SearchArticles(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
	Health(ctx context.Context) error
}

type triggerPublisher interface {
	Publish(ctx context.Context, t trigger.Trigger) error
}

type topicAnalyzer interface {
	Analyze(ctx context.Context, query string) (analysis.Result, error)
}

type commentStore interface {
	List(ctx context.Context, articleID string) ([]models.Comment, error)
	Count(ctx context.Context, articleID string) (int64, error)
	Add(ctx context.Context, articleID, author, content string) (*models.Comment, error)
}

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := supabase.NewClient(supabase.Config{URL: cfg.SupabaseURL, Key: cfg.SupabaseKey})
	if err != nil {
		log.Error("init supabase", slog.Any("err", err))
		os.Exit(1)
	}

	analyzer, err := newAnalyzer(ctx, cfg, log)
	if err != nil {
		log.Error("init analysis", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	publisher := trigger.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	srv := &server{
		log:      log,
		cfg:      cfg,
		corpus:   db.Articles(cfg.ArticlesTable),
		comments: db.Comments(cfg.CommentsTable),
		search:   esClient,
		pub:      publisher,
		now:      time.Now,
	}
	if analyzer != nil {
		srv.analyzer = analyzer
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Topic analysis waits on a grounded generation call.
		WriteTimeout:      cfg.AnalysisTimeout + 15*time.Second,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

// newAnalyzer returns nil when no Gemini key is configured.
func newAnalyzer(ctx context.Context, cfg *config.API, log *slog.Logger) (*analysis.Analyzer, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		log.Warn("GEMINI_API_KEY not set, topic analysis disabled")
		return nil, nil
	}
	set, err := prompts.Load(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	gen, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.AnalysisModel,
		Timeout: cfg.AnalysisTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	return analysis.New(set, gen, analysis.WithLogger(log)), nil
}

type server struct {
	log      *slog.Logger
	cfg      *config.API
	corpus   corpusReader
	comments commentStore
	search   searcher
	pub      triggerPublisher
	analyzer topicAnalyzer
	now      func() time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

type articlesResponse struct {
	Articles []models.Article `json:"articles"`
	Count    int              `json:"count"`
}

type articleResponse struct {
	Article *models.Article `json:"article"`
}

type analyzeRequest struct {
	Query string `json:"query"`
}

type commentsResponse struct {
	Comments []models.Comment `json:"comments"`
	Count    int              `json:"count"`
}

type commentCountResponse struct {
	Count int64 `json:"count"`
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type commentResponse struct {
	Comment *models.Comment `json:"comment"`
}

type refreshResponse struct {
	Message   string `json:"message"`
	Refreshed bool   `json:"refreshed"`
	TriggerID string `json:"trigger_id,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/search", s.handleAnalyze)
	r.Route("/articles", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/search", s.handleSearch)
		r.Post("/refresh", s.handleRefresh)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Get("/comments", s.handleListComments)
			r.Get("/comments/count", s.handleCountComments)
			r.Post("/comments", s.handleAddComment)
		})
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.search.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultPage, s.cfg.MaxPage)
	since := s.now().Add(-s.cfg.FreshnessWindow)

	articles, err := s.corpus.ListSince(ctx, since, limit)
	if err != nil {
		s.log.Error("list articles", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch articles"})
		return
	}

	writeJSON(w, http.StatusOK, articlesResponse{Articles: articles, Count: len(articles)})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	article, err := s.corpus.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, supabase.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "article not found"})
		return
	}
	if err != nil {
		s.log.Error("get article", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch article"})
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Keywords: parseCSV(q.Get("keywords")),
		Source:   strings.TrimSpace(q.Get("source")),
		From:     clampInt(q.Get("from"), 0, 10_000),
		Size:     clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:     strings.TrimSpace(q.Get("sort")),
		Start:    parseTime(q.Get("start")),
		End:      parseTime(q.Get("end")),
	}

	result, err := s.search.SearchArticles(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if !force {
		stale, err := refresh.NeedsRefresh(ctx, s.corpus, s.cfg.FreshnessWindow, s.now())
		if err != nil {
			s.log.Error("check freshness", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to check freshness"})
			return
		}
		if !stale {
			writeJSON(w, http.StatusOK, refreshResponse{Message: "articles are still fresh, no refresh needed"})
			return
		}
	}

	t := trigger.New(trigger.ReasonAPI, force)
	if err := s.pub.Publish(ctx, t); err != nil {
		s.log.Error("publish trigger", slog.Any("err", err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "failed to queue refresh"})
		return
	}

	s.log.Info("refresh queued", slog.String("id", t.ID), slog.Bool("force", force))
	writeJSON(w, http.StatusAccepted, refreshResponse{Message: "refresh queued", Refreshed: true, TriggerID: t.ID})
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "search query is required"})
		return
	}
	if s.analyzer == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "gemini api key not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AnalysisTimeout)
	defer cancel()

	started := s.now()
	result, err := s.analyzer.Analyze(ctx, req.Query)
	if errors.Is(err, analysis.ErrNoText) {
		s.log.Error("analyze topic", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "no results from gemini"})
		return
	}
	if err != nil {
		s.log.Error("analyze topic", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to search news articles"})
		return
	}

	s.log.Info("topic analyzed",
		slog.String("query", result.Query),
		slog.Int("sources", len(result.Article.Sources)),
		slog.Duration("took", s.now().Sub(started)),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleListComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	comments, err := s.comments.List(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error("list comments", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch comments"})
		return
	}

	writeJSON(w, http.StatusOK, commentsResponse{Comments: comments, Count: len(comments)})
}

func (s *server) handleCountComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := s.comments.Count(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error("count comments", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to count comments"})
		return
	}

	writeJSON(w, http.StatusOK, commentCountResponse{Count: count})
}

func (s *server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid comment body"})
		return
	}
	if strings.TrimSpace(req.Author) == "" || strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "author and content are required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	comment, err := s.comments.Add(ctx, chi.URLParam(r, "id"), req.Author, req.Content)
	if err != nil {
		s.log.Error("add comment", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to add comment"})
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{Comment: comment})
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func parseCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
