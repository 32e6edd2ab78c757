package models

import "time"

// Comment is a reader comment on a stored article.
type Comment struct {
	ID        string    `json:"id"`
	ArticleID string    `json:"article_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment is the insert payload of a comment; the table assigns the rest.
type NewComment struct {
	ArticleID string `json:"article_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
}
