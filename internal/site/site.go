// Package site is the visitor-side state controller of the homesite blog. It
// holds what the visitor is looking at, talks to the row store and the
// realtime service, and hands the front end one Frame to render at a time.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"homesite/store"

	"github.com/google/uuid"
)

var (
	ErrMissingFields = errors.New("required fields are empty")
	ErrSubmitFailed  = errors.New("submission failed, please try again later")
	ErrNotAdmin      = errors.New("admin mode is locked")
	ErrWrongPassword = errors.New("wrong admin password")
	ErrUnknownPost   = errors.New("no such post")
	ErrNotEditing    = errors.New("no post is being edited")
	ErrNoPostOpen    = errors.New("no post is open")
)

// Store is the remote row store.
type Store interface {
	ListPosts(ctx context.Context) ([]store.Post, error)
	CreatePost(ctx context.Context, in store.PostInput) (*store.Post, error)
	UpdatePost(ctx context.Context, id int64, in store.PostInput) (*store.Post, error)
	DeletePost(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
	ListComments(ctx context.Context) ([]store.Comment, error)
	CreateComment(ctx context.Context, in store.CommentInput) (*store.Comment, error)
	ListPostComments(ctx context.Context, logID int64) ([]store.PostComment, error)
	CreatePostComment(ctx context.Context, in store.PostCommentInput) (*store.PostComment, error)
}

// Subscription is a live realtime channel. Close must not wait for callbacks
// in flight.
type Subscription interface {
	Close() error
}

// Realtime is the realtime channel service.
type Realtime interface {
	// WatchInserts calls onInsert with the record of every row inserted into
	// table after the subscription is established.
	WatchInserts(ctx context.Context, table string, onInsert func(record json.RawMessage)) (Subscription, error)
	// JoinPresence joins the presence channel under key, tracks meta once the
	// subscription is confirmed and calls onSync with the tracked keys on every
	// membership change.
	JoinPresence(ctx context.Context, key string, meta any, onSync func(keys []string)) (Subscription, error)
}

// LocalStorage is durable client-side key/value storage. Get returns
// (nil, nil) for a missing key.
type LocalStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Confirm asks the visitor a yes/no question.
type Confirm func(prompt string) bool

const (
	identityKey = "bbs_user"
	adminKey    = "bbs_admin"
)

// Controller is safe for concurrent use. Remote calls are made without the
// lock held; their results are merged under it.
type Controller struct {
	store       Store
	realtime    Realtime
	local       LocalStorage
	adminSecret string

	now    func() time.Time
	newKey func() string

	mu         sync.Mutex
	tab        Tab
	posts      postList
	detail     *store.Post
	editor     editor
	identity   Identity
	admin      bool
	board      board
	discussion discussion
	presence   presence
	mounted    bool
}

// New builds a controller. adminSecret is the password that unlocks the
// authoring UI; an empty secret keeps it locked for good.
func New(s Store, rt Realtime, local LocalStorage, adminSecret string) *Controller {
	return &Controller{
		store:       s,
		realtime:    rt,
		local:       local,
		adminSecret: adminSecret,
		now:         time.Now,
		newKey:      uuid.NewString,
		tab:         TabHome,
		posts:       postList{filter: AllTags},
		presence:    presence{count: 1},
	}
}
