package repository

import (
	"context"
	"database/sql"

	"homesite/pkg/logger"
	"homesite/store"

	"github.com/lib/pq"
)

type BlogRepository struct {
	DB *sql.DB
}

func NewBlogRepository(db *sql.DB) *BlogRepository {
	return &BlogRepository{DB: db}
}

const postColumns = `id, title, content, to_char(date, 'YYYY-MM-DD'), tags, views, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*store.Post, error) {
	var p store.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Date, pq.Array(&p.Tags), &p.Views, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func tagsArg(tags []string) any {
	if tags == nil {
		tags = []string{}
	}
	return pq.Array(tags)
}

func (r *BlogRepository) ListPosts(ctx context.Context) ([]store.Post, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+postColumns+` FROM logs ORDER BY date DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list posts: %v", err)
		return nil, err
	}
	defer rows.Close()

	posts := []store.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan post: %v", err)
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (r *BlogRepository) CreatePost(ctx context.Context, in store.PostInput) (*store.Post, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO logs (title, content, date, tags, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), COALESCE($7, NOW()))
		RETURNING `+postColumns,
		in.Title, in.Content, in.Date, tagsArg(in.Tags), in.Views, in.CreatedAt, in.UpdatedAt,
	)
	p, err := scanPost(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to create post: %v", err)
	}
	return p, err
}

// UpdatePost returns sql.ErrNoRows when no post has the id.
func (r *BlogRepository) UpdatePost(ctx context.Context, id int64, in store.PostInput) (*store.Post, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE logs SET title = $1, content = $2, date = $3, tags = $4, updated_at = COALESCE($5, NOW())
		WHERE id = $6
		RETURNING `+postColumns,
		in.Title, in.Content, in.Date, tagsArg(in.Tags), in.UpdatedAt, id,
	)
	p, err := scanPost(row)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to update post %d: %v", id, err)
	}
	return p, err
}

func (r *BlogRepository) DeletePost(ctx context.Context, id int64) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM logs WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete post %d: %v", id, err)
		return 0, err
	}
	return result.RowsAffected()
}

// IncrementViews runs the increment_views procedure so the counter is bumped
// atomically inside the database.
func (r *BlogRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `SELECT increment_views($1)`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to increment views for post %d: %v", id, err)
	}
	return err
}

func (r *BlogRepository) ListComments(ctx context.Context) ([]store.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, email, website, content, created_at FROM messages ORDER BY created_at DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list guestbook comments: %v", err)
		return nil, err
	}
	defer rows.Close()

	comments := []store.Comment{}
	for rows.Next() {
		var c store.Comment
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Website, &c.Content, &c.CreatedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan guestbook comment: %v", err)
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *BlogRepository) CreateComment(ctx context.Context, in store.CommentInput) (*store.Comment, error) {
	c := store.Comment{Name: in.Name, Email: in.Email, Website: in.Website, Content: in.Content}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO messages (name, email, website, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		in.Name, in.Email, in.Website, in.Content,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create guestbook comment: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *BlogRepository) ListPostComments(ctx context.Context, logID int64) ([]store.PostComment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, log_id, name, email, content, created_at FROM post_comments
		WHERE log_id = $1 ORDER BY created_at ASC`, logID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list comments for post %d: %v", logID, err)
		return nil, err
	}
	defer rows.Close()

	comments := []store.PostComment{}
	for rows.Next() {
		var c store.PostComment
		if err := rows.Scan(&c.ID, &c.LogID, &c.Name, &c.Email, &c.Content, &c.CreatedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan comment for post %d: %v", logID, err)
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *BlogRepository) CreatePostComment(ctx context.Context, in store.PostCommentInput) (*store.PostComment, error) {
	c := store.PostComment{LogID: in.LogID, Name: in.Name, Email: in.Email, Content: in.Content}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO post_comments (log_id, name, email, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		in.LogID, in.Name, in.Email, in.Content,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to add comment to post %d: %v", in.LogID, err)
		return nil, err
	}
	return &c, nil
}
