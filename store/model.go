package store

import (
	"encoding/json"
	"time"
)

// Table names shared by the backend and the visitor client.
const (
	TablePosts        = "logs"
	TableComments     = "messages"
	TablePostComments = "post_comments"
)

// Post is a row of the logs table.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"` // markdown
	Date      string    `json:"date"`    // YYYY-MM-DD
	Tags      []string  `json:"tags"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTag reports whether tag is one of the post's tags.
func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PostInput carries the writable fields of a post. CreatedAt is only honoured
// on insert; Views is only honoured on insert.
type PostInput struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Date      string     `json:"date"`
	Tags      []string   `json:"tags"`
	Views     int64      `json:"views"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Comment is a guestbook row of the messages table.
type Comment struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Website   *string   `json:"website"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentInput is the body of a guestbook insert.
type CommentInput struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Website *string `json:"website"`
	Content string  `json:"content"`
}

// PostComment is a row of the post_comments table.
type PostComment struct {
	ID        int64     `json:"id"`
	LogID     int64     `json:"log_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostCommentInput is the body of a discussion insert.
type PostCommentInput struct {
	LogID   int64  `json:"log_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

// IncrementViewsRequest is the body of the increment_views procedure.
type IncrementViewsRequest struct {
	LogID int64 `json:"log_id"`
}

// InsertEvent is the payload of a change-feed INSERT frame.
type InsertEvent struct {
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}
