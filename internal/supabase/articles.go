package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/DeafMist/trend-radar/internal/models"
)

// reservedID never names a real row; "id not equal to it" matches every row.
const reservedID = "00000000-0000-0000-0000-000000000000"

var byEngagement = &postgrest.OrderOpts{Ascending: false}

// Articles is the corpus table.
type Articles struct {
	c     *Client
	table string
}

// Articles returns a handle on table.
func (c *Client) Articles(table string) *Articles {
	return &Articles{c: c, table: table}
}

// DeleteAll removes every row of the table.
func (a *Articles) DeleteAll(ctx context.Context) error {
	return a.c.await(ctx, "delete articles", func() error {
		_, _, err := a.c.rest.From(a.table).
			Delete("minimal", "").
			Neq("id", reservedID).
			Execute()
		return err
	})
}

// InsertMany bulk-inserts records in one request and returns the stored rows
// in input order. Sources are not persisted; they are copied from the input
// onto the returned rows.
func (a *Articles) InsertMany(ctx context.Context, records []models.ArticleRecord) ([]models.Article, error) {
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]models.ArticleRow, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
	}

	var stored []models.Article
	err := a.c.await(ctx, "insert articles", func() error {
		_, err := a.c.rest.From(a.table).
			Insert(rows, false, "", "representation", "").
			ExecuteTo(&stored)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(stored) != len(records) {
		return nil, fmt.Errorf("insert articles: stored %d of %d rows", len(stored), len(records))
	}
	for i := range stored {
		stored[i].Sources = records[i].Sources
	}
	return stored, nil
}

// ListSince returns up to limit articles created at or after since, highest
// engagement first.
func (a *Articles) ListSince(ctx context.Context, since time.Time, limit int) ([]models.Article, error) {
	articles := make([]models.Article, 0)
	err := a.c.await(ctx, "list articles", func() error {
		_, err := a.c.rest.From(a.table).
			Select("*", "", false).
			Gte("created_at", since.UTC().Format(time.RFC3339)).
			Order("engagement_score", byEngagement).
			Limit(limit, "").
			ExecuteTo(&articles)
		return err
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// Get returns one article by ID.
func (a *Articles) Get(ctx context.Context, id string) (*models.Article, error) {
	var rows []models.Article
	err := a.c.await(ctx, "get article", func() error {
		_, err := a.c.rest.From(a.table).
			Select("*", "", false).
			Eq("id", id).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return &rows[0], nil
}

// HasSince reports whether any article was created at or after since.
func (a *Articles) HasSince(ctx context.Context, since time.Time) (bool, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	err := a.c.await(ctx, "check freshness", func() error {
		_, err := a.c.rest.From(a.table).
			Select("id", "", false).
			Gte("created_at", since.UTC().Format(time.RFC3339)).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
