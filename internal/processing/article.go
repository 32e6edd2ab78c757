package processing

import (
	"strings"
	"time"

	"github.com/DeafMist/trend-radar/internal/models"
)

const titleWords = 12

// Normalize tidies a recovered record in place. Missing titles are derived
// from the summary or content, published_at is re-emitted as RFC3339 UTC
// (fallback when it cannot be parsed), and the outlet defaults to "unknown".
func Normalize(rec *models.ArticleRecord, fallback time.Time) {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Summary = strings.TrimSpace(rec.Summary)
	rec.Content = strings.TrimSpace(rec.Content)
	rec.Source = strings.TrimSpace(rec.Source)
	rec.PerspectiveFor = strings.TrimSpace(rec.PerspectiveFor)
	rec.PerspectiveAgainst = strings.TrimSpace(rec.PerspectiveAgainst)
	rec.PerspectiveNeutral = strings.TrimSpace(rec.PerspectiveNeutral)

	if rec.Title == "" {
		rec.Title = Headline(rec.Summary, titleWords)
	}
	if rec.Title == "" {
		rec.Title = Headline(rec.Content, titleWords)
	}

	ts := ParseTimestamp(rec.PublishedAt)
	if ts.IsZero() {
		ts = fallback
	}
	rec.PublishedAt = ts.UTC().Format(time.RFC3339)

	if rec.Source == "" {
		rec.Source = "unknown"
	}
	if rec.EngagementScore < 0 {
		rec.EngagementScore = 0
	}
}

// ToIndexed builds the search-mirror document for a stored article. The
// document shares the row's ID so search hits resolve against the table.
func ToIndexed(article models.Article, keywordLimit, keywordMinLen int) models.IndexedArticle {
	rec := article.ArticleRecord
	ts := ParseTimestamp(rec.PublishedAt)

	urls := make([]string, 0, len(rec.Sources))
	for _, src := range rec.Sources {
		urls = append(urls, src.URL)
	}

	doc := models.IndexedArticle{
		ID:              article.ID,
		Title:           rec.Title,
		Summary:         rec.Summary,
		Content:         rec.Content,
		Source:          rec.Source,
		PublishedAt:     ts,
		EngagementScore: int(rec.EngagementScore),
		Keywords:        Keywords(rec.Title+" "+rec.Summary+" "+rec.Content, keywordLimit, keywordMinLen),
		URLs:            urls,
	}
	if rec.AudioURL != nil {
		doc.AudioURL = *rec.AudioURL
	}
	return doc
}
