package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Source is a cited web page attached to every article of a run.
type Source struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"publishedAt"`
}

// ArticleRecord is one recovered article as written to the corpus table.
type ArticleRecord struct {
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	Content            string   `json:"content"`
	Source             string   `json:"source"`
	PublishedAt        string   `json:"published_at"`
	EngagementScore    Score    `json:"engagement_score"`
	PerspectiveFor     string   `json:"perspective_for"`
	PerspectiveAgainst string   `json:"perspective_against"`
	PerspectiveNeutral string   `json:"perspective_neutral"`
	Sources            []Source `json:"sources"`
	AudioURL           *string  `json:"audio_url"`
}

// ArticleRow holds the columns of the articles table. Sources are not a
// column; they only live in memory and in the search mirror.
type ArticleRow struct {
	Title              string  `json:"title"`
	Summary            string  `json:"summary"`
	Content            string  `json:"content"`
	Source             string  `json:"source"`
	PublishedAt        string  `json:"published_at"`
	EngagementScore    Score   `json:"engagement_score"`
	PerspectiveFor     string  `json:"perspective_for"`
	PerspectiveAgainst string  `json:"perspective_against"`
	PerspectiveNeutral string  `json:"perspective_neutral"`
	AudioURL           *string `json:"audio_url"`
}

// Row projects the record onto the table columns.
func (r ArticleRecord) Row() ArticleRow {
	return ArticleRow{
		Title:              r.Title,
		Summary:            r.Summary,
		Content:            r.Content,
		Source:             r.Source,
		PublishedAt:        r.PublishedAt,
		EngagementScore:    r.EngagementScore,
		PerspectiveFor:     r.PerspectiveFor,
		PerspectiveAgainst: r.PerspectiveAgainst,
		PerspectiveNeutral: r.PerspectiveNeutral,
		AudioURL:           r.AudioURL,
	}
}

// Article is a stored corpus row.
type Article struct {
	ID string `json:"id"`
	ArticleRecord
	CreatedAt time.Time `json:"created_at"`
}

// IndexedArticle is the search-mirror representation of an article.
type IndexedArticle struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Content         string    `json:"content"`
	Source          string    `json:"source"`
	PublishedAt     time.Time `json:"published_at"`
	EngagementScore int       `json:"engagement_score"`
	Keywords        []string  `json:"keywords"`
	URLs            []string  `json:"urls"`
	AudioURL        string    `json:"audio_url,omitempty"`
}

// Score is an engagement score. Models emit it as a number or a numeric string.
type Score int

// UnmarshalJSON accepts integers, floats (rounded), numeric strings and null.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("decode score: %w", err)
		}
		raw = strings.TrimSpace(text)
		if raw == "" {
			*s = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("decode score %q: %w", raw, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("decode score %q: not a finite number", raw)
	}
	r := math.Round(f)
	// -MinInt is a power of two and exact as a float64, unlike MaxInt.
	if r < float64(math.MinInt) || r >= -float64(math.MinInt) {
		return fmt.Errorf("decode score %q: out of range", raw)
	}
	*s = Score(r)
	return nil
}
