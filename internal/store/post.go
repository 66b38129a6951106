package store

import (
	"database/sql"
	"fmt"

	"github.com/mweber/pettrack/internal/model"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(scanner interface{ Scan(...any) error }) (*model.Post, error) {
	var p model.Post
	var petID, resolvedBy sql.NullInt64
	var resolvedAt sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.HouseholdID, &petID, &p.AuthorID, &p.Title, &p.Content,
		&p.IsResolved, &resolvedBy, &resolvedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if petID.Valid {
		p.PetID = &petID.Int64
	}
	if resolvedBy.Valid {
		p.ResolvedBy = &resolvedBy.Int64
	}
	if resolvedAt.Valid {
		p.ResolvedAt = &resolvedAt.Time
	}
	return &p, nil
}

const postCols = `id, household_id, pet_id, author_id, title, content, is_resolved, resolved_by, resolved_at, created_at, updated_at`

// Create opens a thread. The author has seen their own post, so the read set
// starts as just them.
func (s *PostStore) Create(householdID int64, petID *int64, authorID int64, title, content string) (*model.Post, error) {
	var pet sql.NullInt64
	if petID != nil {
		pet = sql.NullInt64{Int64: *petID, Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO posts (household_id, pet_id, author_id, title, content) VALUES (?, ?, ?, ?, ?)`,
		householdID, pet, authorID, title, content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO post_reads (post_id, user_id) VALUES (?, ?)`,
		id, authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post read: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *PostStore) GetByID(id int64) (*model.Post, error) {
	row := s.db.QueryRow(`SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	p.ReadBy, err = s.readBy(id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostStore) readBy(postID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM post_reads WHERE post_id = ? ORDER BY read_at ASC, user_id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("list post reads: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan post read: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetWithReplies returns a post and its replies oldest first.
func (s *PostStore) GetWithReplies(id int64) (*model.PostWithReplies, error) {
	p, err := s.GetByID(id)
	if err != nil || p == nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, post_id, author_id, content, created_at FROM post_replies
		 WHERE post_id = ? ORDER BY created_at ASC, id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	out := &model.PostWithReplies{Post: *p}
	for rows.Next() {
		var r model.PostReply
		if err := rows.Scan(&r.ID, &r.PostID, &r.AuthorID, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		out.Replies = append(out.Replies, r)
	}
	return out, rows.Err()
}

// ListByHousehold returns threads newest activity first, read sets included.
func (s *PostStore) ListByHousehold(householdID int64) ([]model.Post, error) {
	rows, err := s.db.Query(
		`SELECT `+postCols+` FROM posts WHERE household_id = ? ORDER BY updated_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		posts[i].ReadBy, err = s.readBy(posts[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// MarkRead adds the viewer to the read set. Already present is a no-op.
func (s *PostStore) MarkRead(postID, userID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO post_reads (post_id, user_id) VALUES (?, ?)
		 ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark post read: %w", err)
	}
	return nil
}

// AddReply appends a reply and resets the read set to just the replier, so
// the thread shows unread to everyone else again.
func (s *PostStore) AddReply(postID, authorID int64, content string) (*model.PostReply, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO post_replies (post_id, author_id, content) VALUES (?, ?, ?)`,
		postID, authorID, content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reply: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM post_reads WHERE post_id = ?`, postID); err != nil {
		return nil, fmt.Errorf("reset post reads: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO post_reads (post_id, user_id) VALUES (?, ?)`, postID, authorID); err != nil {
		return nil, fmt.Errorf("insert post read: %w", err)
	}
	if _, err := tx.Exec(`UPDATE posts SET updated_at = datetime('now') WHERE id = ?`, postID); err != nil {
		return nil, fmt.Errorf("touch post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT id, post_id, author_id, content, created_at FROM post_replies WHERE id = ?`, id)
	var r model.PostReply
	if err := row.Scan(&r.ID, &r.PostID, &r.AuthorID, &r.Content, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("get reply: %w", err)
	}
	return &r, nil
}

func (s *PostStore) Update(id int64, title, content string) (*model.Post, error) {
	_, err := s.db.Exec(
		`UPDATE posts SET title = ?, content = ?, updated_at = datetime('now') WHERE id = ?`,
		title, content, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.GetByID(id)
}

// SetResolved marks a thread settled or reopens it.
func (s *PostStore) SetResolved(id int64, resolved bool, resolvedBy int64) (*model.Post, error) {
	var err error
	if resolved {
		_, err = s.db.Exec(
			`UPDATE posts SET is_resolved = 1, resolved_by = ?, resolved_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`,
			resolvedBy, id,
		)
	} else {
		_, err = s.db.Exec(
			`UPDATE posts SET is_resolved = 0, resolved_by = NULL, resolved_at = NULL, updated_at = datetime('now') WHERE id = ?`,
			id,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("set post resolved: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a thread. Replies and reads cascade.
func (s *PostStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
