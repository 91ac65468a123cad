package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"homesite/internal/site"
	"homesite/store"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	isTerminal = func(int) bool { return false }
	os.Exit(m.Run())
}

type memStore struct {
	mu       sync.Mutex
	posts    []store.Post
	nextID   int64
	deleted  []int64
	comments []store.CommentInput
	thread   []store.PostCommentInput
}

func (m *memStore) ListPosts(ctx context.Context) ([]store.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Post(nil), m.posts...), nil
}

func (m *memStore) CreatePost(ctx context.Context, in store.PostInput) (*store.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := store.Post{ID: m.nextID, Title: in.Title, Content: in.Content, Date: in.Date, Tags: in.Tags}
	m.posts = append([]store.Post{p}, m.posts...)
	return &p, nil
}

func (m *memStore) UpdatePost(ctx context.Context, id int64, in store.PostInput) (*store.Post, error) {
	p := store.Post{ID: id, Title: in.Title, Content: in.Content, Date: in.Date, Tags: in.Tags}
	return &p, nil
}

func (m *memStore) DeletePost(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) IncrementViews(ctx context.Context, id int64) error { return nil }

func (m *memStore) ListComments(ctx context.Context) ([]store.Comment, error) { return nil, nil }

func (m *memStore) CreateComment(ctx context.Context, in store.CommentInput) (*store.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, in)
	return &store.Comment{ID: int64(len(m.comments)), Name: in.Name, Email: in.Email, Content: in.Content}, nil
}

func (m *memStore) ListPostComments(ctx context.Context, logID int64) ([]store.PostComment, error) {
	return nil, nil
}

func (m *memStore) CreatePostComment(ctx context.Context, in store.PostCommentInput) (*store.PostComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thread = append(m.thread, in)
	return &store.PostComment{ID: int64(len(m.thread)), LogID: in.LogID, Name: in.Name, Email: in.Email, Content: in.Content}, nil
}

type nopSub struct{}

func (nopSub) Close() error { return nil }

type nopRealtime struct{}

func (nopRealtime) WatchInserts(ctx context.Context, table string, onInsert func(json.RawMessage)) (site.Subscription, error) {
	return nopSub{}, nil
}

func (nopRealtime) JoinPresence(ctx context.Context, key string, meta any, onSync func([]string)) (site.Subscription, error) {
	return nopSub{}, nil
}

type memLocal struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (l *memLocal) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data[key], nil
}

func (l *memLocal) Set(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[key] = value
	return nil
}

func (l *memLocal) Delete(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.data, key)
	return nil
}

func runScript(t *testing.T, st *memStore, script string) string {
	t.Helper()
	ctrl := site.New(st, nopRealtime{}, &memLocal{data: map[string][]byte{}}, "s3cret")
	var out bytes.Buffer
	NewApp(ctrl, strings.NewReader(script), &out).Run(context.Background())
	return out.String()
}

func seeded() *memStore {
	return &memStore{
		nextID: 1,
		posts:  []store.Post{{ID: 1, Title: "First", Content: "hello world", Date: "2026-01-01", Tags: []string{"go"}}},
	}
}

func TestRunBrowsesAndExits(t *testing.T) {
	out := runScript(t, seeded(), "blog\nopen 1\nback\nexit\n")

	assert.Contains(t, out, "[blog]")
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "Discussion (0)")
	assert.Contains(t, out, "Bye!")
}

func TestRunStopsAtEndOfInput(t *testing.T) {
	out := runScript(t, seeded(), "about")
	assert.Contains(t, out, "About")
	assert.NotContains(t, out, "Bye!")
}

func TestAuthoringNeedsUnlock(t *testing.T) {
	st := seeded()
	out := runScript(t, st, "new\nadmin\nwrong\nexit\n")

	assert.Contains(t, out, "[ALERT] "+site.ErrNotAdmin.Error())
	assert.Contains(t, out, "[ALERT] "+site.ErrWrongPassword.Error())
	assert.Len(t, st.posts, 1)
}

func TestPublishPost(t *testing.T) {
	st := seeded()
	script := strings.Join([]string{
		"admin", "s3cret",
		"new", "Hello", "2026-10-15", "go, test", "Body line", "",
		"exit",
	}, "\n") + "\n"

	out := runScript(t, st, script)

	assert.Contains(t, out, "Admin mode unlocked.")
	assert.Contains(t, out, "Post published!")
	require.Len(t, st.posts, 2)
	assert.Equal(t, "Hello", st.posts[0].Title)
	assert.Equal(t, "Body line", st.posts[0].Content)
	assert.Equal(t, []string{"go", "test"}, st.posts[0].Tags)
}

func TestDeclinedDeleteKeepsPost(t *testing.T) {
	st := seeded()
	out := runScript(t, st, "admin\ns3cret\ndelete 1\nn\nexit\n")

	assert.Empty(t, st.deleted)
	assert.NotContains(t, out, "Post deleted.")
}

func TestConfirmedDelete(t *testing.T) {
	st := seeded()
	out := runScript(t, st, "admin\ns3cret\ndelete 1\ny\nexit\n")

	assert.Equal(t, []int64{1}, st.deleted)
	assert.Contains(t, out, "Post deleted.")
}

func TestGuestbookMessage(t *testing.T) {
	st := seeded()
	script := strings.Join([]string{
		"message",
		"guestbook",
		"sign", "amy", "a@x.com", "", "n",
		"message", "hello there", "",
		"exit",
	}, "\n") + "\n"

	out := runScript(t, st, script)

	assert.Contains(t, out, "[ALERT] open the guestbook first")
	require.Len(t, st.comments, 1)
	assert.Equal(t, "amy", st.comments[0].Name)
	assert.Equal(t, "hello there", st.comments[0].Content)
}

func TestCommentNeedsOpenPost(t *testing.T) {
	st := seeded()
	script := strings.Join([]string{
		"comment",
		"blog", "open 1",
		"sign", "bob", "b@x.com", "", "y",
		"comment", "nice post", "",
		"exit",
	}, "\n") + "\n"

	out := runScript(t, st, script)

	assert.Contains(t, out, "[ALERT] "+site.ErrNoPostOpen.Error())
	require.Len(t, st.thread, 1)
	assert.Equal(t, int64(1), st.thread[0].LogID)
	assert.Contains(t, out, "nice post")
}

func TestUnknownInput(t *testing.T) {
	out := runScript(t, seeded(), "dance\nopen abc\nexit\n")
	assert.Contains(t, out, "Unknown command: dance")
	assert.Contains(t, out, `expected a post number, got "abc"`)
}

func TestReadSecretFromTerminal(t *testing.T) {
	oldTerminal, oldPassword := isTerminal, readPassword
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	t.Cleanup(func() {
		isTerminal, readPassword = oldTerminal, oldPassword
	})

	var out bytes.Buffer
	pw, err := readSecret(bufio.NewReader(strings.NewReader("")), &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Contains(t, out.String(), "Admin password:")
}

func TestReadMultilineStopsAtBlankLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("one\ntwo\n\nthree\n"))
	text, err := readMultiline(r, &bytes.Buffer{}, "Body")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)

	line, err := readLine(r, &bytes.Buffer{}, "Next")
	require.NoError(t, err)
	assert.Equal(t, "three", line)
}

func TestRenderDetailWithUpdatedAt(t *testing.T) {
	var out bytes.Buffer
	renderSafely(&out, site.Frame{View: site.BlogDetailView{
		Post: store.Post{ID: 4, Title: "T", Content: "C", Date: "2026-01-01", Views: 3, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}, Admin: true})

	assert.Contains(t, out.String(), "Last edited")
	assert.Contains(t, out.String(), "3 views")
	assert.Contains(t, out.String(), "(edit 4)")
}
