package site

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"homesite/pkg/logger"
	"homesite/store"
)

// Tab is a top-level section of the site.
type Tab int

const (
	TabHome Tab = iota
	TabAbout
	TabBlog
	TabGuestbook
)

var tabNames = map[Tab]string{
	TabHome:      "home",
	TabAbout:     "about",
	TabBlog:      "blog",
	TabGuestbook: "guestbook",
}

// Tabs lists the tabs in navigation order.
var Tabs = []Tab{TabHome, TabAbout, TabBlog, TabGuestbook}

func (t Tab) String() string {
	if name, ok := tabNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTab maps a tab name back to its Tab.
func ParseTab(name string) (Tab, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range tabNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Identity is the visitor's comment-form identity. With Remember set it is
// kept in local storage between sessions.
type Identity struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Website  string `json:"website"`
	Remember bool   `json:"remember"`
}

func (i Identity) trimmed() Identity {
	return Identity{
		Name:     strings.TrimSpace(i.Name),
		Email:    strings.TrimSpace(i.Email),
		Website:  strings.TrimSpace(i.Website),
		Remember: i.Remember,
	}
}

// Draft is the post editor form. Tags is the raw comma-separated input.
type Draft struct {
	Title   string
	Content string
	Date    string
	Tags    string
}

type editor struct {
	editing  *store.Post
	creating bool
	draft    Draft
	gen      int
}

func (e *editor) open() bool {
	return e.editing != nil || e.creating
}

func (e *editor) reset() {
	*e = editor{gen: e.gen + 1}
}

// Mount loads the visitor's local state, joins the presence channel and
// fetches the post list. Failures of the presence channel and of the post
// fetch are logged and leave the site usable. A local storage failure is
// returned once the rest of the mount is done.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	c.mu.Unlock()

	localErr := c.loadLocal(ctx)
	if localErr != nil {
		logger.Sugar.Errorf("Failed to read local storage: %v", localErr)
		localErr = fmt.Errorf("load local storage: %w", localErr)
	}

	c.joinPresence(ctx)

	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		logger.Sugar.Errorf("Failed to load posts: %v", err)
		return localErr
	}
	c.mu.Lock()
	c.posts.items = posts
	c.mu.Unlock()
	return localErr
}

// Unmount releases both realtime subscriptions.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.mounted = false
	boardSub := c.board.deactivate()
	presenceSub := c.presence.leave()
	c.mu.Unlock()

	closeSub(boardSub)
	closeSub(presenceSub)
}

func (c *Controller) loadLocal(ctx context.Context) error {
	raw, err := c.local.Get(ctx, identityKey)
	if err != nil {
		return err
	}
	var ident Identity
	if raw != nil {
		if err := json.Unmarshal(raw, &ident); err != nil {
			logger.Sugar.Warnf("Ignoring unreadable remembered identity: %v", err)
			ident = Identity{}
		}
	}

	flag, err := c.local.Get(ctx, adminKey)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.identity = ident
	c.admin = string(flag) == "true"
	c.mu.Unlock()
	return nil
}

// SelectTab navigates to tab. Any navigation closes the open post and the
// editor and resets the tag filter. Entering the guestbook subscribes to new
// comments and loads the board; leaving it unsubscribes.
func (c *Controller) SelectTab(ctx context.Context, tab Tab) error {
	if _, ok := tabNames[tab]; !ok {
		return fmt.Errorf("unknown tab %d", int(tab))
	}

	c.mu.Lock()
	entering := tab == TabGuestbook && c.tab != TabGuestbook && c.mounted
	stale := c.navigateLocked(tab)
	c.mu.Unlock()

	closeSub(stale)
	if entering {
		return c.activateGuestbook(ctx)
	}
	return nil
}

// Tab returns the active tab.
func (c *Controller) Tab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

func (c *Controller) navigateLocked(tab Tab) Subscription {
	stale := c.switchTabLocked(tab)
	c.detail = nil
	c.discussion.reset()
	c.editor.reset()
	c.posts.filter = AllTags
	return stale
}

// switchTabLocked returns the guestbook subscription to close when tab
// leaves the guestbook.
func (c *Controller) switchTabLocked(tab Tab) Subscription {
	var stale Subscription
	if c.tab == TabGuestbook && tab != TabGuestbook {
		stale = c.board.deactivate()
	}
	c.tab = tab
	return stale
}

// Identity returns the comment-form identity.
func (c *Controller) Identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// SetIdentity replaces the comment-form identity. It is only persisted when a
// comment is submitted.
func (c *Controller) SetIdentity(ident Identity) {
	c.mu.Lock()
	c.identity = ident
	c.mu.Unlock()
}

func (c *Controller) rememberIdentity(ctx context.Context, ident Identity) {
	raw, err := json.Marshal(ident)
	if err != nil {
		logger.Sugar.Errorf("Failed to encode identity: %v", err)
		return
	}
	if err := c.local.Set(ctx, identityKey, raw); err != nil {
		logger.Sugar.Errorf("Failed to remember identity: %v", err)
	}
}

func (c *Controller) forgetIdentity(ctx context.Context) {
	if err := c.local.Delete(ctx, identityKey); err != nil {
		logger.Sugar.Errorf("Failed to forget identity: %v", err)
	}
}

func closeSub(sub Subscription) {
	if sub == nil {
		return
	}
	if err := sub.Close(); err != nil {
		logger.Sugar.Warnf("Failed to close subscription: %v", err)
	}
}
