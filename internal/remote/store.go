// Package remote reaches the homesite backend: the row API over HTTP and the
// realtime channels over websockets. Every request carries the public store
// key.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"homesite/store"
)

// APIError is a non-2xx answer from the row API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store returned %d", e.Status)
	}
	return fmt.Sprintf("store returned %d: %s", e.Status, e.Message)
}

type StoreClient struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewStoreClient talks to the row API under baseURL/rest/v1. A nil hc gets a
// client with a 15s timeout.
func NewStoreClient(baseURL, key string, hc *http.Client) *StoreClient {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &StoreClient{baseURL: strings.TrimRight(baseURL, "/"), key: key, http: hc}
}

func (c *StoreClient) ListPosts(ctx context.Context) ([]store.Post, error) {
	var posts []store.Post
	err := c.do(ctx, http.MethodGet, "/logs", nil, &posts)
	return posts, err
}

func (c *StoreClient) CreatePost(ctx context.Context, in store.PostInput) (*store.Post, error) {
	var p store.Post
	if err := c.do(ctx, http.MethodPost, "/logs", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *StoreClient) UpdatePost(ctx context.Context, id int64, in store.PostInput) (*store.Post, error) {
	var p store.Post
	if err := c.do(ctx, http.MethodPatch, "/logs/"+strconv.FormatInt(id, 10), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *StoreClient) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/logs/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *StoreClient) IncrementViews(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, "/rpc/increment_views", store.IncrementViewsRequest{LogID: id}, nil)
}

func (c *StoreClient) ListComments(ctx context.Context) ([]store.Comment, error) {
	var comments []store.Comment
	err := c.do(ctx, http.MethodGet, "/messages", nil, &comments)
	return comments, err
}

func (c *StoreClient) CreateComment(ctx context.Context, in store.CommentInput) (*store.Comment, error) {
	var cm store.Comment
	if err := c.do(ctx, http.MethodPost, "/messages", in, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *StoreClient) ListPostComments(ctx context.Context, logID int64) ([]store.PostComment, error) {
	var comments []store.PostComment
	q := url.Values{"log_id": {strconv.FormatInt(logID, 10)}}
	err := c.do(ctx, http.MethodGet, "/post_comments?"+q.Encode(), nil, &comments)
	return comments, err
}

func (c *StoreClient) CreatePostComment(ctx context.Context, in store.PostCommentInput) (*store.PostComment, error) {
	var cm store.PostComment
	if err := c.do(ctx, http.MethodPost, "/post_comments", in, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *StoreClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/rest/v1"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
