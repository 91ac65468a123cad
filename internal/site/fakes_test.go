package site

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"homesite/store"

	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote is down")

type fakeStore struct {
	mu sync.Mutex

	posts        []store.Post
	comments     []store.Comment
	postComments map[int64][]store.PostComment
	nextID       int64

	created        []store.PostInput
	updated        map[int64]store.PostInput
	deleted        []int64
	increments     []int64
	commentInserts []store.CommentInput
	threadInserts  []store.PostCommentInput

	failWrites     bool
	failIncrement  bool
	onListComments func()
	onListThread   func(logID int64)
}

func newFakeStore(posts ...store.Post) *fakeStore {
	return &fakeStore{
		posts:        posts,
		postComments: map[int64][]store.PostComment{},
		updated:      map[int64]store.PostInput{},
		nextID:       100,
	}
}

func (f *fakeStore) ListPosts(ctx context.Context) ([]store.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = clonePost(p)
	}
	return out, nil
}

func (f *fakeStore) CreatePost(ctx context.Context, in store.PostInput) (*store.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return nil, errRemote
	}
	f.created = append(f.created, in)
	f.nextID++
	p := store.Post{ID: f.nextID, Title: in.Title, Content: in.Content, Date: in.Date, Tags: in.Tags, Views: in.Views}
	return &p, nil
}

func (f *fakeStore) UpdatePost(ctx context.Context, id int64, in store.PostInput) (*store.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return nil, errRemote
	}
	f.updated[id] = in
	p := store.Post{ID: id, Title: in.Title, Content: in.Content, Date: in.Date, Tags: in.Tags}
	return &p, nil
}

func (f *fakeStore) DeletePost(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errRemote
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) IncrementViews(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments = append(f.increments, id)
	if f.failIncrement {
		return errRemote
	}
	return nil
}

func (f *fakeStore) ListComments(ctx context.Context) ([]store.Comment, error) {
	if f.onListComments != nil {
		f.onListComments()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Comment{}, f.comments...), nil
}

func (f *fakeStore) CreateComment(ctx context.Context, in store.CommentInput) (*store.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return nil, errRemote
	}
	f.commentInserts = append(f.commentInserts, in)
	f.nextID++
	c := store.Comment{ID: f.nextID, Name: in.Name, Email: in.Email, Website: in.Website, Content: in.Content}
	f.comments = append([]store.Comment{c}, f.comments...)
	return &c, nil
}

func (f *fakeStore) ListPostComments(ctx context.Context, logID int64) ([]store.PostComment, error) {
	if f.onListThread != nil {
		f.onListThread(logID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.PostComment{}, f.postComments[logID]...), nil
}

func (f *fakeStore) CreatePostComment(ctx context.Context, in store.PostCommentInput) (*store.PostComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return nil, errRemote
	}
	f.threadInserts = append(f.threadInserts, in)
	f.nextID++
	c := store.PostComment{ID: f.nextID, LogID: in.LogID, Name: in.Name, Email: in.Email, Content: in.Content}
	f.postComments[in.LogID] = append(f.postComments[in.LogID], c)
	return &c, nil
}

func (f *fakeStore) incrementCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.increments)
}

type fakeSub struct {
	rt     *fakeRealtime
	closed bool
}

func (s *fakeSub) Close() error {
	s.rt.mu.Lock()
	defer s.rt.mu.Unlock()
	s.closed = true
	return nil
}

type fakeRealtime struct {
	mu sync.Mutex

	watchers []watcher
	joined   []string
	meta     []any
	onSync   func(keys []string)
	presSub  *fakeSub
	failJoin bool
}

type watcher struct {
	table    string
	onInsert func(json.RawMessage)
	sub      *fakeSub
}

func (r *fakeRealtime) WatchInserts(ctx context.Context, table string, onInsert func(json.RawMessage)) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := &fakeSub{rt: r}
	r.watchers = append(r.watchers, watcher{table: table, onInsert: onInsert, sub: sub})
	return sub, nil
}

func (r *fakeRealtime) JoinPresence(ctx context.Context, key string, meta any, onSync func(keys []string)) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failJoin {
		return nil, errRemote
	}
	r.joined = append(r.joined, key)
	r.meta = append(r.meta, meta)
	r.onSync = onSync
	r.presSub = &fakeSub{rt: r}
	return r.presSub, nil
}

// push delivers an insert to every open subscription on table, the way the
// realtime service would.
func (r *fakeRealtime) push(t *testing.T, table string, record any) {
	t.Helper()
	raw, err := json.Marshal(record)
	require.NoError(t, err)

	r.mu.Lock()
	var targets []func(json.RawMessage)
	for _, w := range r.watchers {
		if w.table == table && !w.sub.closed {
			targets = append(targets, w.onInsert)
		}
	}
	r.mu.Unlock()

	for _, fn := range targets {
		fn(raw)
	}
}

func (r *fakeRealtime) openWatchers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, w := range r.watchers {
		if !w.sub.closed {
			n++
		}
	}
	return n
}

func (r *fakeRealtime) sync(keys ...string) {
	r.mu.Lock()
	fn := r.onSync
	r.mu.Unlock()
	fn(keys)
}

type fakeLocal struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{data: map[string][]byte{}}
}

func (l *fakeLocal) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data[key], nil
}

func (l *fakeLocal) Set(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[key] = value
	return nil
}

func (l *fakeLocal) Delete(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.data, key)
	return nil
}

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type harness struct {
	c     *Controller
	store *fakeStore
	rt    *fakeRealtime
	local *fakeLocal
}

func newHarness(t *testing.T, posts ...store.Post) *harness {
	t.Helper()
	h := &harness{store: newFakeStore(posts...), rt: &fakeRealtime{}, local: newFakeLocal()}
	h.c = h.newController()
	return h
}

// newController builds a second controller over the same remote and local
// state, like a page reload.
func (h *harness) newController() *Controller {
	c := New(h.store, h.rt, h.local, "s3cret")
	c.now = func() time.Time { return fixedNow }
	return c
}

func (h *harness) mount(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.Mount(context.Background()))
}

func (h *harness) mountAdmin(t *testing.T) {
	t.Helper()
	h.mount(t)
	require.NoError(t, h.c.UnlockAdmin(context.Background(), "s3cret"))
}

func samplePosts() []store.Post {
	return []store.Post{
		{ID: 3, Title: "Three", Content: "third", Date: "2026-03-01", Tags: []string{"go", "web"}, Views: 7},
		{ID: 2, Title: "Two", Content: "second", Date: "2026-02-01", Tags: []string{"life"}, Views: 0},
		{ID: 1, Title: "One", Content: "first", Date: "2026-01-01", Tags: []string{"go"}, Views: 2},
	}
}
