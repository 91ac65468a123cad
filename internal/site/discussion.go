package site

import (
	"context"
	"fmt"
	"strings"

	"homesite/pkg/logger"
	"homesite/store"
)

// discussion is the comment thread of the open post.
type discussion struct {
	logID    int64
	comments []store.PostComment
	content  string
	gen      int
}

func (d *discussion) open(logID int64) int {
	d.gen++
	d.logID = logID
	d.comments = nil
	return d.gen
}

func (d *discussion) reset() {
	d.gen++
	d.logID = 0
	d.comments = nil
}

// loadDiscussion replaces the thread of logID, oldest first, unless the
// visitor has moved on since gen.
func (c *Controller) loadDiscussion(ctx context.Context, logID int64, gen int) {
	comments, err := c.store.ListPostComments(ctx, logID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discussion.gen != gen {
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load comments for post %d: %v", logID, err)
		return
	}
	c.discussion.comments = comments
}

// PostComments returns the open post's thread.
func (c *Controller) PostComments() []store.PostComment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]store.PostComment{}, c.discussion.comments...)
}

// SetCommentContent replaces the post comment being typed.
func (c *Controller) SetCommentContent(content string) {
	c.mu.Lock()
	c.discussion.content = content
	c.mu.Unlock()
}

// SubmitPostComment adds the typed comment to the open post's thread and
// appends the stored row. The thread is not refetched.
func (c *Controller) SubmitPostComment(ctx context.Context) error {
	c.mu.Lock()
	if c.detail == nil {
		c.mu.Unlock()
		return ErrNoPostOpen
	}
	logID := c.detail.ID
	ident := c.identity.trimmed()
	content := strings.TrimSpace(c.discussion.content)
	c.mu.Unlock()

	if ident.Name == "" || ident.Email == "" || content == "" {
		return fmt.Errorf("comment needs a name, email and message: %w", ErrMissingFields)
	}

	saved, err := c.store.CreatePostComment(ctx, store.PostCommentInput{
		LogID:   logID,
		Name:    ident.Name,
		Email:   ident.Email,
		Content: content,
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to comment on post %d: %v", logID, err)
		return ErrSubmitFailed
	}

	c.mu.Lock()
	if c.discussion.logID == logID {
		c.discussion.comments = append(c.discussion.comments, *saved)
	}
	c.discussion.content = ""
	c.mu.Unlock()

	if ident.Remember {
		c.rememberIdentity(ctx, ident)
	}
	return nil
}
