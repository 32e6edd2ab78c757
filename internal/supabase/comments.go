package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/DeafMist/trend-radar/internal/models"
)

var oldestFirst = &postgrest.OrderOpts{Ascending: true}

// Comments is the reader comments table.
type Comments struct {
	c     *Client
	table string
}

// Comments returns a handle on table.
func (c *Client) Comments(table string) *Comments {
	return &Comments{c: c, table: table}
}

// List returns the comments of an article, oldest first.
func (cm *Comments) List(ctx context.Context, articleID string) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := cm.c.await(ctx, "list comments", func() error {
		_, err := cm.c.rest.From(cm.table).
			Select("*", "", false).
			Eq("article_id", articleID).
			Order("created_at", oldestFirst).
			ExecuteTo(&comments)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Count returns how many comments an article has.
func (cm *Comments) Count(ctx context.Context, articleID string) (int64, error) {
	var count int64
	err := cm.c.await(ctx, "count comments", func() error {
		var err error
		_, count, err = cm.c.rest.From(cm.table).
			Select("*", "exact", true).
			Eq("article_id", articleID).
			Execute()
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Add stores a comment and returns the stored row.
func (cm *Comments) Add(ctx context.Context, articleID, author, content string) (*models.Comment, error) {
	in := models.NewComment{
		ArticleID: strings.TrimSpace(articleID),
		Author:    strings.TrimSpace(author),
		Content:   strings.TrimSpace(content),
	}
	if in.ArticleID == "" || in.Author == "" || in.Content == "" {
		return nil, errors.New("add comment: article id, author and content required")
	}

	var rows []models.Comment
	err := cm.c.await(ctx, "add comment", func() error {
		_, err := cm.c.rest.From(cm.table).
			Insert(in, false, "", "representation", "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("add comment: no row returned")
	}
	return &rows[0], nil
}
