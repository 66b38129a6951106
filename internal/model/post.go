package model

import "time"

// Post is a discussion thread about a pet issue. ReadBy tracks which users
// have seen the thread in its current state: viewing adds the viewer, a new
// reply resets the set to just the replier so everyone else shows unread.
type Post struct {
	ID          int64      `json:"id"`
	HouseholdID int64      `json:"household_id"`
	PetID       *int64     `json:"pet_id"`
	AuthorID    int64      `json:"author_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	IsResolved  bool       `json:"is_resolved"`
	ResolvedBy  *int64     `json:"resolved_by"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	ReadBy      []int64    `json:"read_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type PostReply struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostWithReplies is a post with its replies, as returned by the detail view.
type PostWithReplies struct {
	Post
	Replies []PostReply `json:"replies"`
}
