package store

import (
	"testing"

	"github.com/mweber/pettrack/internal/database"
)

func setupPostTestDB(t *testing.T) (*PostStore, *HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostStore(db), NewHouseholdStore(db), NewUserStore(db)
}

func postFixture(t *testing.T, hs *HouseholdStore, us *UserStore) (authorID, readerID, householdID int64) {
	t.Helper()
	author, err := us.Create("author@example.com", "Author", "hash")
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	reader, err := us.Create("reader@example.com", "Reader", "hash")
	if err != nil {
		t.Fatalf("create reader: %v", err)
	}
	h, err := hs.Create("Forum Household", author.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return author.ID, reader.ID, h.ID
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestPostCreateSeedsReadSet(t *testing.T) {
	ps, hs, us := setupPostTestDB(t)
	authorID, _, householdID := postFixture(t, hs, us)

	post, err := ps.Create(householdID, nil, authorID, "Limping on walks", "Rex favors his left paw")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if len(post.ReadBy) != 1 || post.ReadBy[0] != authorID {
		t.Fatalf("read_by = %v, want just the author %d", post.ReadBy, authorID)
	}
}

func TestPostMarkReadUnions(t *testing.T) {
	ps, hs, us := setupPostTestDB(t)
	authorID, readerID, householdID := postFixture(t, hs, us)

	post, err := ps.Create(householdID, nil, authorID, "Food question", "Switching kibble brands")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := ps.MarkRead(post.ID, readerID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// Viewing twice must not duplicate.
	if err := ps.MarkRead(post.ID, readerID); err != nil {
		t.Fatalf("re-mark read: %v", err)
	}

	got, err := ps.GetByID(post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(got.ReadBy) != 2 {
		t.Fatalf("read_by = %v, want author and reader", got.ReadBy)
	}
	if !containsID(got.ReadBy, authorID) || !containsID(got.ReadBy, readerID) {
		t.Errorf("read_by = %v, missing expected ids", got.ReadBy)
	}
}

func TestPostReplyResetsReadSet(t *testing.T) {
	ps, hs, us := setupPostTestDB(t)
	authorID, readerID, householdID := postFixture(t, hs, us)

	post, err := ps.Create(householdID, nil, authorID, "Vet recommendation", "Anyone know a good exotic vet?")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if err := ps.MarkRead(post.ID, readerID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	reply, err := ps.AddReply(post.ID, readerID, "Dr. Okafor on 5th is great")
	if err != nil {
		t.Fatalf("add reply: %v", err)
	}
	if reply.AuthorID != readerID {
		t.Errorf("reply author = %d, want %d", reply.AuthorID, readerID)
	}

	// The read set collapses to just the replier; the original author now
	// sees the thread as unread.
	got, err := ps.GetByID(post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(got.ReadBy) != 1 || got.ReadBy[0] != readerID {
		t.Fatalf("read_by after reply = %v, want just %d", got.ReadBy, readerID)
	}
}

func TestPostGetWithReplies(t *testing.T) {
	ps, hs, us := setupPostTestDB(t)
	authorID, readerID, householdID := postFixture(t, hs, us)

	post, err := ps.Create(householdID, nil, authorID, "Thread", "First")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := ps.AddReply(post.ID, readerID, "Second"); err != nil {
		t.Fatalf("first reply: %v", err)
	}
	if _, err := ps.AddReply(post.ID, authorID, "Third"); err != nil {
		t.Fatalf("second reply: %v", err)
	}

	got, err := ps.GetWithReplies(post.ID)
	if err != nil {
		t.Fatalf("get with replies: %v", err)
	}
	if len(got.Replies) != 2 {
		t.Fatalf("replies = %d, want 2", len(got.Replies))
	}
	if got.Replies[0].Content != "Second" || got.Replies[1].Content != "Third" {
		t.Errorf("reply order = [%q, %q], want oldest first", got.Replies[0].Content, got.Replies[1].Content)
	}
}

func TestPostResolveAndReopen(t *testing.T) {
	ps, hs, us := setupPostTestDB(t)
	authorID, readerID, householdID := postFixture(t, hs, us)

	post, err := ps.Create(householdID, nil, authorID, "Solved issue", "Fixed it")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	resolved, err := ps.SetResolved(post.ID, true, readerID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.IsResolved {
		t.Error("post not marked resolved")
	}
	if resolved.ResolvedBy == nil || *resolved.ResolvedBy != readerID {
		t.Errorf("resolved_by = %v, want %d", resolved.ResolvedBy, readerID)
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolved_at not set")
	}

	reopened, err := ps.SetResolved(post.ID, false, readerID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.IsResolved || reopened.ResolvedBy != nil || reopened.ResolvedAt != nil {
		t.Errorf("reopen left resolution fields set: %+v", reopened)
	}
}

func TestPostDeleteCascades(t *testing.T) {
	ps, hs, us := setupPostTestDB(t)
	authorID, readerID, householdID := postFixture(t, hs, us)

	post, err := ps.Create(householdID, nil, authorID, "Doomed", "Gone soon")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := ps.AddReply(post.ID, readerID, "Bye"); err != nil {
		t.Fatalf("add reply: %v", err)
	}

	if err := ps.Delete(post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	var replies, reads int
	if err := ps.db.QueryRow(`SELECT COUNT(*) FROM post_replies WHERE post_id = ?`, post.ID).Scan(&replies); err != nil {
		t.Fatalf("count replies: %v", err)
	}
	if err := ps.db.QueryRow(`SELECT COUNT(*) FROM post_reads WHERE post_id = ?`, post.ID).Scan(&reads); err != nil {
		t.Fatalf("count reads: %v", err)
	}
	if replies != 0 || reads != 0 {
		t.Errorf("after delete: %d replies, %d reads, want 0 and 0", replies, reads)
	}
}
