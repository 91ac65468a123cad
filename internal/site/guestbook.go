package site

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"homesite/pkg/logger"
	"homesite/store"
)

// board is the guestbook while its tab is active. held and cursor track the
// comments already on the board so a pushed insert that the initial fetch
// also returned shows up once.
type board struct {
	comments []store.Comment
	held     map[int64]bool
	cursor   int64 // highest comment id held
	loading  bool
	content  string
	sub      Subscription
	gen      int
}

func (b *board) has(id int64) bool {
	return id <= b.cursor && b.held[id]
}

func (b *board) hold(id int64) {
	if b.held == nil {
		b.held = map[int64]bool{}
	}
	b.held[id] = true
	if id > b.cursor {
		b.cursor = id
	}
}

func (b *board) push(cm store.Comment) bool {
	if b.has(cm.ID) {
		return false
	}
	b.comments = append([]store.Comment{cm}, b.comments...)
	b.hold(cm.ID)
	return true
}

// merge folds a fetched newest-first list under the pushes that arrived while
// it was in flight.
func (b *board) merge(fetched []store.Comment) {
	inFetch := make(map[int64]bool, len(fetched))
	for _, cm := range fetched {
		inFetch[cm.ID] = true
	}
	merged := make([]store.Comment, 0, len(b.comments)+len(fetched))
	for _, cm := range b.comments {
		if !inFetch[cm.ID] {
			merged = append(merged, cm)
		}
	}
	merged = append(merged, fetched...)

	b.comments = merged
	for _, cm := range fetched {
		b.hold(cm.ID)
	}
}

// deactivate clears the board and returns the subscription to close. Pushes
// still in flight for the old generation are dropped.
func (b *board) deactivate() Subscription {
	sub := b.sub
	*b = board{gen: b.gen + 1, content: b.content}
	return sub
}

func (c *Controller) activateGuestbook(ctx context.Context) error {
	c.mu.Lock()
	c.board.gen++
	gen := c.board.gen
	c.board.loading = true
	c.mu.Unlock()

	sub, err := c.realtime.WatchInserts(ctx, store.TableComments, func(record json.RawMessage) {
		c.onGuestbookInsert(gen, record)
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to subscribe to guestbook: %v", err)
		c.mu.Lock()
		if c.board.gen == gen {
			c.board.loading = false
		}
		c.mu.Unlock()
		return fmt.Errorf("subscribe guestbook: %w", err)
	}

	c.mu.Lock()
	if c.board.gen != gen {
		c.mu.Unlock()
		closeSub(sub)
		return nil
	}
	c.board.sub = sub
	c.mu.Unlock()

	comments, err := c.store.ListComments(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.board.gen != gen {
		return nil
	}
	c.board.loading = false
	if err != nil {
		logger.Sugar.Errorf("Failed to load guestbook: %v", err)
		return fmt.Errorf("load guestbook: %w", err)
	}
	c.board.merge(comments)
	return nil
}

func (c *Controller) onGuestbookInsert(gen int, record json.RawMessage) {
	var cm store.Comment
	if err := json.Unmarshal(record, &cm); err != nil {
		logger.Sugar.Warnf("Dropping unreadable guestbook insert: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.board.gen != gen {
		return
	}
	c.board.push(cm)
}

// Comments returns the guestbook as shown, newest first.
func (c *Controller) Comments() []store.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]store.Comment{}, c.board.comments...)
}

// SetGuestbookContent replaces the guestbook message being typed.
func (c *Controller) SetGuestbookContent(content string) {
	c.mu.Lock()
	c.board.content = content
	c.mu.Unlock()
}

// SubmitGuestbook posts the typed message under the current identity. The new
// comment reaches the board through the realtime push, not from the insert
// response. On success the identity is remembered or forgotten according to
// its Remember flag and the message field is cleared; on failure the message
// is kept for a retry.
func (c *Controller) SubmitGuestbook(ctx context.Context) error {
	c.mu.Lock()
	ident := c.identity.trimmed()
	content := strings.TrimSpace(c.board.content)
	c.mu.Unlock()

	if ident.Name == "" || ident.Email == "" || content == "" {
		return fmt.Errorf("guestbook needs a name, email and message: %w", ErrMissingFields)
	}

	in := store.CommentInput{Name: ident.Name, Email: ident.Email, Content: content}
	if ident.Website != "" {
		website := ident.Website
		in.Website = &website
	}

	c.setBoardLoading(true)
	_, err := c.store.CreateComment(ctx, in)
	c.setBoardLoading(false)
	if err != nil {
		logger.Sugar.Errorf("Failed to post guestbook comment: %v", err)
		return ErrSubmitFailed
	}

	if ident.Remember {
		c.rememberIdentity(ctx, ident)
	} else {
		c.forgetIdentity(ctx)
	}

	c.mu.Lock()
	c.board.content = ""
	c.mu.Unlock()
	return nil
}

func (c *Controller) setBoardLoading(loading bool) {
	c.mu.Lock()
	c.board.loading = loading
	c.mu.Unlock()
}
