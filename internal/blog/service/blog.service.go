package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"homesite/internal/blog/repository"
	"homesite/socket"
	"homesite/store"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const dateLayout = "2006-01-02"

type BlogService struct {
	Repo *repository.BlogRepository
	Hub  *socket.Hub
}

func NewBlogService(repo *repository.BlogRepository, hub *socket.Hub) *BlogService {
	return &BlogService{Repo: repo, Hub: hub}
}

func (s *BlogService) ListPosts(ctx context.Context) ([]store.Post, error) {
	return s.Repo.ListPosts(ctx)
}

func (s *BlogService) CreatePost(ctx context.Context, in store.PostInput) (*store.Post, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}
	if in.Views < 0 {
		return nil, fmt.Errorf("%w: views cannot be negative", ErrInvalidInput)
	}
	return s.Repo.CreatePost(ctx, in)
}

func (s *BlogService) UpdatePost(ctx context.Context, id int64, in store.PostInput) (*store.Post, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}
	p, err := s.Repo.UpdatePost(ctx, id, in)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *BlogService) DeletePost(ctx context.Context, id int64) error {
	n, err := s.Repo.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *BlogService) IncrementViews(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: log_id is required", ErrInvalidInput)
	}
	return s.Repo.IncrementViews(ctx, id)
}

func (s *BlogService) ListComments(ctx context.Context) ([]store.Comment, error) {
	return s.Repo.ListComments(ctx)
}

// CreateComment stores a guestbook comment and pushes it to every subscriber
// of the messages feed.
func (s *BlogService) CreateComment(ctx context.Context, in store.CommentInput) (*store.Comment, error) {
	if blank(in.Name) || blank(in.Email) || blank(in.Content) {
		return nil, fmt.Errorf("%w: name, email and content are required", ErrInvalidInput)
	}
	if in.Website != nil && blank(*in.Website) {
		in.Website = nil
	}

	c, err := s.Repo.CreateComment(ctx, in)
	if err != nil {
		return nil, err
	}

	record, _ := json.Marshal(c)
	payload, _ := json.Marshal(store.InsertEvent{Table: store.TableComments, Record: record})
	s.Hub.Publish(socket.TopicMessages, socket.InsertType, payload)
	return c, nil
}

func (s *BlogService) ListPostComments(ctx context.Context, logID int64) ([]store.PostComment, error) {
	if logID <= 0 {
		return nil, fmt.Errorf("%w: log_id is required", ErrInvalidInput)
	}
	return s.Repo.ListPostComments(ctx, logID)
}

func (s *BlogService) CreatePostComment(ctx context.Context, in store.PostCommentInput) (*store.PostComment, error) {
	if in.LogID <= 0 {
		return nil, fmt.Errorf("%w: log_id is required", ErrInvalidInput)
	}
	if blank(in.Name) || blank(in.Email) || blank(in.Content) {
		return nil, fmt.Errorf("%w: name, email and content are required", ErrInvalidInput)
	}
	return s.Repo.CreatePostComment(ctx, in)
}

func validatePost(in store.PostInput) error {
	if blank(in.Title) || blank(in.Content) || blank(in.Date) {
		return fmt.Errorf("%w: title, content and date are required", ErrInvalidInput)
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
