package site

import (
	"homesite/store"
)

const excerptRunes = 180

// View is what the active tab shows. It is one of HomeView, AboutView,
// BlogListView, BlogDetailView or GuestbookView.
type View interface {
	Tab() Tab
}

// PostSummary is a post as listed, with a short excerpt instead of the body.
type PostSummary struct {
	ID      int64
	Title   string
	Date    string
	Tags    []string
	Views   int64
	Excerpt string
}

type HomeView struct {
	Latest *PostSummary // nil before any post is loaded
}

type AboutView struct{}

type BlogListView struct {
	Filter string
	Tags   []string
	Posts  []PostSummary
}

type BlogDetailView struct {
	Post     store.Post
	Comments []store.PostComment
	Draft    string
	Identity Identity
}

type GuestbookView struct {
	Comments []store.Comment
	Loading  bool
	Draft    string
	Identity Identity
}

// EditorView is the post editor, shown over whatever view is active.
type EditorView struct {
	Creating bool
	PostID   int64
	Draft    Draft
}

func (HomeView) Tab() Tab       { return TabHome }
func (AboutView) Tab() Tab      { return TabAbout }
func (BlogListView) Tab() Tab   { return TabBlog }
func (BlogDetailView) Tab() Tab { return TabBlog }
func (GuestbookView) Tab() Tab  { return TabGuestbook }

// Frame is one render of the site.
type Frame struct {
	View   View
	Online int
	Admin  bool
	Editor *EditorView
}

// View snapshots the current state into a Frame. The frame shares no memory
// with the controller.
func (c *Controller) View() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := Frame{Online: c.presence.count, Admin: c.admin}

	switch c.tab {
	case TabAbout:
		f.View = AboutView{}
	case TabBlog:
		if c.detail != nil {
			f.View = BlogDetailView{
				Post:     clonePost(*c.detail),
				Comments: append([]store.PostComment{}, c.discussion.comments...),
				Draft:    c.discussion.content,
				Identity: c.identity,
			}
		} else {
			visible := c.posts.visible()
			summaries := make([]PostSummary, 0, len(visible))
			for _, p := range visible {
				summaries = append(summaries, summarize(p))
			}
			f.View = BlogListView{Filter: c.posts.filter, Tags: c.posts.tags(), Posts: summaries}
		}
	case TabGuestbook:
		f.View = GuestbookView{
			Comments: append([]store.Comment{}, c.board.comments...),
			Loading:  c.board.loading,
			Draft:    c.board.content,
			Identity: c.identity,
		}
	default:
		home := HomeView{}
		if len(c.posts.items) > 0 {
			latest := summarize(clonePost(c.posts.items[0]))
			home.Latest = &latest
		}
		f.View = home
	}

	if c.editor.open() {
		ev := &EditorView{Creating: c.editor.creating, Draft: c.editor.draft}
		if c.editor.editing != nil {
			ev.PostID = c.editor.editing.ID
		}
		f.Editor = ev
	}
	return f
}

func summarize(p store.Post) PostSummary {
	return PostSummary{
		ID:      p.ID,
		Title:   p.Title,
		Date:    p.Date,
		Tags:    p.Tags,
		Views:   p.Views,
		Excerpt: Excerpt(p.Content),
	}
}

// Excerpt cuts content to its first 180 runes, marking the cut with "...".
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptRunes {
		return content
	}
	return string(runes[:excerptRunes]) + "..."
}
