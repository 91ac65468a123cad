package site

import (
	"context"
	"testing"

	"homesite/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(posts []store.Post) []int64 {
	out := []int64{}
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestFilterShowsExactlyTaggedPosts(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mount(t)

	cases := map[string][]int64{
		AllTags: {3, 2, 1},
		"go":    {3, 1},
		"life":  {2},
		"rust":  {},
	}
	for tag, want := range cases {
		h.c.SetFilter(tag)
		assert.Equal(t, want, ids(h.c.FilteredPosts()), tag)
	}

	h.c.SetFilter(AllTags)
	assert.Len(t, h.c.FilteredPosts(), 3, "filtering must not drop loaded posts")
}

func TestTagsInFirstAppearanceOrder(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mount(t)

	assert.Equal(t, []string{AllTags, "go", "web", "life"}, h.c.Tags())
}

func TestTabChangeResetsFilter(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mount(t)
	ctx := context.Background()

	require.NoError(t, h.c.SelectTab(ctx, TabBlog))
	h.c.SetFilter("go")
	require.NoError(t, h.c.SelectTab(ctx, TabAbout))
	require.NoError(t, h.c.SelectTab(ctx, TabBlog))

	list, ok := h.c.View().View.(BlogListView)
	require.True(t, ok)
	assert.Equal(t, AllTags, list.Filter)
	assert.Len(t, list.Posts, 3)
}

func TestOpenPostCountsOneView(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mount(t)

	require.NoError(t, h.c.OpenPost(context.Background(), 3))

	assert.Equal(t, 1, h.store.incrementCount())
	assert.Equal(t, []int64{3}, h.store.increments)

	detail, ok := h.c.View().View.(BlogDetailView)
	require.True(t, ok)
	assert.Equal(t, int64(8), detail.Post.Views)

	h.c.ClosePost()
	assert.Equal(t, int64(8), h.c.FilteredPosts()[0].Views)
}

func TestOpenPostIncrementFailureIsSilent(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mount(t)
	h.store.failIncrement = true

	require.NoError(t, h.c.OpenPost(context.Background(), 2))

	detail, ok := h.c.View().View.(BlogDetailView)
	require.True(t, ok)
	assert.Equal(t, "Two", detail.Post.Title)
	assert.Equal(t, int64(0), detail.Post.Views)
}

func TestOpenUnknownPost(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mount(t)

	assert.ErrorIs(t, h.c.OpenPost(context.Background(), 99), ErrUnknownPost)
	assert.Equal(t, 0, h.store.incrementCount())
}

func TestAuthoringNeedsAdmin(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mount(t)

	assert.ErrorIs(t, h.c.StartNewPost(), ErrNotAdmin)
	assert.ErrorIs(t, h.c.StartEdit(3), ErrNotAdmin)
	_, err := h.c.DeletePost(context.Background(), 3, func(string) bool { return true })
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Empty(t, h.store.deleted)
}

func TestSaveNewPost(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mountAdmin(t)

	require.NoError(t, h.c.StartNewPost())
	assert.Equal(t, "2026-10-15", h.c.View().Editor.Draft.Date)

	require.NoError(t, h.c.UpdateDraft(Draft{Title: "T", Content: "C", Date: "2026-01-01", Tags: "a, b, a"}))
	saved, err := h.c.SavePost(context.Background())
	require.NoError(t, err)

	require.Len(t, h.store.created, 1)
	in := h.store.created[0]
	assert.Equal(t, []string{"a", "b", "a"}, in.Tags)
	assert.Equal(t, int64(0), in.Views)
	require.NotNil(t, in.CreatedAt)
	require.NotNil(t, in.UpdatedAt)
	assert.Equal(t, fixedNow, *in.CreatedAt)

	assert.Equal(t, saved.ID, h.c.FilteredPosts()[0].ID, "new post goes first")
	assert.Nil(t, h.c.View().Editor)
}

func TestSaveRejectsBlankFields(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mountAdmin(t)

	require.NoError(t, h.c.StartNewPost())
	require.NoError(t, h.c.UpdateDraft(Draft{Title: "  ", Content: "C", Date: "2026-01-01"}))

	_, err := h.c.SavePost(context.Background())
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Empty(t, h.store.created)
	assert.NotNil(t, h.c.View().Editor, "editor stays open")
}

func TestSaveExistingReplacesListAndDetail(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mountAdmin(t)
	ctx := context.Background()

	require.NoError(t, h.c.OpenPost(ctx, 2))
	require.NoError(t, h.c.StartEdit(2))
	ed := h.c.View().Editor
	require.NotNil(t, ed)
	assert.Equal(t, int64(2), ed.PostID)
	assert.Equal(t, "life", ed.Draft.Tags)

	require.NoError(t, h.c.UpdateDraft(Draft{Title: "Two, revised", Content: "second", Date: "2026-02-01", Tags: "life, go"}))
	_, err := h.c.SavePost(ctx)
	require.NoError(t, err)

	in := h.store.updated[2]
	require.NotNil(t, in.UpdatedAt)
	assert.Nil(t, in.CreatedAt)

	detail, ok := h.c.View().View.(BlogDetailView)
	require.True(t, ok)
	assert.Equal(t, "Two, revised", detail.Post.Title)
	assert.Equal(t, []string{"life", "go"}, detail.Post.Tags)

	h.c.ClosePost()
	assert.Equal(t, "Two, revised", h.c.FilteredPosts()[1].Title)
}

func TestSaveFailureChangesNothing(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mountAdmin(t)
	h.store.failWrites = true

	require.NoError(t, h.c.StartEdit(1))
	require.NoError(t, h.c.UpdateDraft(Draft{Title: "New", Content: "C", Date: "2026-01-01"}))

	_, err := h.c.SavePost(context.Background())
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, "One", h.c.FilteredPosts()[2].Title)
	assert.NotNil(t, h.c.View().Editor)
}

func TestDeleteConfirmed(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mountAdmin(t)
	ctx := context.Background()

	require.NoError(t, h.c.OpenPost(ctx, 2))
	var asked string
	deleted, err := h.c.DeletePost(ctx, 2, func(prompt string) bool { asked = prompt; return true })
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotEmpty(t, asked)

	assert.Equal(t, []int64{2}, h.store.deleted)
	assert.Equal(t, []int64{3, 1}, ids(h.c.FilteredPosts()))
	_, ok := h.c.View().View.(BlogListView)
	assert.True(t, ok, "detail view is cleared")
}

func TestDeleteDeclined(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mountAdmin(t)
	ctx := context.Background()

	require.NoError(t, h.c.OpenPost(ctx, 2))
	before := h.c.View()

	deleted, err := h.c.DeletePost(ctx, 2, func(string) bool { return false })
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, h.store.deleted)
	assert.Equal(t, before, h.c.View())
}

func TestDeleteFailure(t *testing.T) {
	h := newHarness(t, samplePosts()...)
	h.mountAdmin(t)
	h.store.failWrites = true

	_, err := h.c.DeletePost(context.Background(), 2, func(string) bool { return true })
	assert.ErrorIs(t, err, errRemote)
	assert.Len(t, h.c.FilteredPosts(), 3)
}

func TestSplitTags(t *testing.T) {
	cases := map[string][]string{
		"":              {},
		"a":             {"a"},
		" a , b ,, c ":  {"a", "b", "c"},
		"a, b, a":       {"a", "b", "a"},
		",,,":           {},
		"Web3, DevRel ": {"Web3", "DevRel"},
	}
	for in, want := range cases {
		assert.Equal(t, want, SplitTags(in), in)
	}
}
