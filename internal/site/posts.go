package site

import (
	"context"
	"fmt"
	"strings"

	"homesite/pkg/logger"
	"homesite/store"
)

// AllTags is the filter sentinel that shows every post.
const AllTags = "all"

const dateLayout = "2006-01-02"

type postList struct {
	items  []store.Post
	filter string
}

func (l *postList) find(id int64) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

// visible returns copies of the posts passing the filter.
func (l *postList) visible() []store.Post {
	out := []store.Post{}
	for _, p := range l.items {
		if l.filter == AllTags || p.HasTag(l.filter) {
			out = append(out, clonePost(p))
		}
	}
	return out
}

// tags returns the distinct tags in first-appearance order after AllTags.
func (l *postList) tags() []string {
	seen := map[string]bool{}
	out := []string{AllTags}
	for _, p := range l.items {
		for _, t := range p.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func (l *postList) remove(id int64) {
	kept := l.items[:0]
	for _, p := range l.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.items = kept
}

func clonePost(p store.Post) store.Post {
	p.Tags = append([]string{}, p.Tags...)
	return p
}

// SplitTags turns the editor's comma-separated tag input into a tag list.
// Tokens are trimmed and empties dropped; order and duplicates are kept.
func SplitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Tags returns AllTags followed by the distinct tags of the loaded posts.
func (c *Controller) Tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posts.tags()
}

// FilteredPosts returns the loaded posts passing the active tag filter.
func (c *Controller) FilteredPosts() []store.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posts.visible()
}

// SetFilter shows only posts tagged tag, or every post for AllTags.
func (c *Controller) SetFilter(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = AllTags
	}
	c.mu.Lock()
	c.posts.filter = tag
	c.mu.Unlock()
}

// OpenPost shows post id in the detail view, counts one view for it and loads
// its discussion. A failed view increment is logged and does not block.
func (c *Controller) OpenPost(ctx context.Context, id int64) error {
	c.mu.Lock()
	i := c.posts.find(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("post %d: %w", id, ErrUnknownPost)
	}
	var stale Subscription
	if c.tab != TabBlog {
		stale = c.navigateLocked(TabBlog)
	}
	post := clonePost(c.posts.items[i])
	c.detail = &post
	gen := c.discussion.open(id)
	c.mu.Unlock()
	closeSub(stale)

	if err := c.store.IncrementViews(ctx, id); err != nil {
		logger.Sugar.Errorf("Failed to increment views for post %d: %v", id, err)
	} else {
		c.mu.Lock()
		if j := c.posts.find(id); j >= 0 {
			c.posts.items[j].Views++
		}
		if c.detail != nil && c.detail.ID == id {
			c.detail.Views++
		}
		c.mu.Unlock()
	}

	c.loadDiscussion(ctx, id, gen)
	return nil
}

// ClosePost returns to the post list and drops the discussion.
func (c *Controller) ClosePost() {
	c.mu.Lock()
	c.detail = nil
	c.discussion.reset()
	c.mu.Unlock()
}

// StartEdit opens the editor on post id.
func (c *Controller) StartEdit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.admin {
		return ErrNotAdmin
	}
	i := c.posts.find(id)
	if i < 0 {
		return fmt.Errorf("post %d: %w", id, ErrUnknownPost)
	}
	post := clonePost(c.posts.items[i])
	c.editor.reset()
	c.editor.editing = &post
	c.editor.draft = Draft{
		Title:   post.Title,
		Content: post.Content,
		Date:    post.Date,
		Tags:    strings.Join(post.Tags, ", "),
	}
	return nil
}

// StartNewPost opens an empty editor dated today.
func (c *Controller) StartNewPost() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.admin {
		return ErrNotAdmin
	}
	c.editor.reset()
	c.editor.creating = true
	c.editor.draft = Draft{Date: c.now().Format(dateLayout)}
	return nil
}

// UpdateDraft replaces the editor form.
func (c *Controller) UpdateDraft(d Draft) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.editor.open() {
		return ErrNotEditing
	}
	c.editor.draft = d
	return nil
}

// CancelEdit closes the editor without saving.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editor.reset()
	c.mu.Unlock()
}

// SavePost writes the editor's draft. A new post is inserted with no views and
// prepended to the list; an existing one is updated in place, in the list and
// in the detail view. On failure nothing local changes and the editor stays
// open.
func (c *Controller) SavePost(ctx context.Context) (*store.Post, error) {
	c.mu.Lock()
	if !c.admin {
		c.mu.Unlock()
		return nil, ErrNotAdmin
	}
	if !c.editor.open() {
		c.mu.Unlock()
		return nil, ErrNotEditing
	}
	draft, creating, gen := c.editor.draft, c.editor.creating, c.editor.gen
	var id int64
	if !creating {
		id = c.editor.editing.ID
	}
	c.mu.Unlock()

	title := strings.TrimSpace(draft.Title)
	content := strings.TrimSpace(draft.Content)
	date := strings.TrimSpace(draft.Date)
	if title == "" || content == "" || date == "" {
		return nil, fmt.Errorf("post needs a title, content and date: %w", ErrMissingFields)
	}

	now := c.now().UTC()
	in := store.PostInput{
		Title:     title,
		Content:   content,
		Date:      date,
		Tags:      SplitTags(draft.Tags),
		UpdatedAt: &now,
	}

	var saved *store.Post
	var err error
	if creating {
		in.Views = 0
		in.CreatedAt = &now
		saved, err = c.store.CreatePost(ctx, in)
	} else {
		saved, err = c.store.UpdatePost(ctx, id, in)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to save post: %v", err)
		return nil, fmt.Errorf("save post: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if creating {
		c.posts.items = append([]store.Post{clonePost(*saved)}, c.posts.items...)
	} else {
		if i := c.posts.find(saved.ID); i >= 0 {
			c.posts.items[i] = clonePost(*saved)
		}
		if c.detail != nil && c.detail.ID == saved.ID {
			post := clonePost(*saved)
			c.detail = &post
		}
	}
	if c.editor.gen == gen {
		c.editor.reset()
	}
	return saved, nil
}

// DeletePost removes post id after confirm agrees. Declining makes no remote
// call and changes nothing. On success the site goes back to the post list.
func (c *Controller) DeletePost(ctx context.Context, id int64, confirm Confirm) (bool, error) {
	c.mu.Lock()
	if !c.admin {
		c.mu.Unlock()
		return false, ErrNotAdmin
	}
	if c.posts.find(id) < 0 {
		c.mu.Unlock()
		return false, fmt.Errorf("post %d: %w", id, ErrUnknownPost)
	}
	c.mu.Unlock()

	if confirm == nil || !confirm("Really delete this post? This cannot be undone.") {
		return false, nil
	}

	if err := c.store.DeletePost(ctx, id); err != nil {
		logger.Sugar.Errorf("Failed to delete post %d: %v", id, err)
		return false, fmt.Errorf("delete post: %w", err)
	}

	c.mu.Lock()
	c.posts.remove(id)
	c.detail = nil
	c.discussion.reset()
	if c.editor.editing != nil && c.editor.editing.ID == id {
		c.editor.reset()
	}
	stale := c.switchTabLocked(TabBlog)
	c.mu.Unlock()

	closeSub(stale)
	return true, nil
}
