package store

import (
	"testing"

	"github.com/mweber/pettrack/internal/database"
)

func setupPushTestDB(t *testing.T) (*PushStore, *HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db), NewHouseholdStore(db), NewUserStore(db)
}

func TestPushUpsertReplacesEndpoint(t *testing.T) {
	ps, hs, us := setupPushTestDB(t)

	u, err := us.Create("push@example.com", "Push User", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Push Household", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	first, err := ps.Upsert(u.ID, h.ID, "https://push.example/ep1", "p256dh-a", "auth-a", "Phone")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second, err := ps.Upsert(u.ID, h.ID, "https://push.example/ep1", "p256dh-b", "auth-b", "Phone")
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-upsert created new row %d, want existing %d", second.ID, first.ID)
	}
	if second.P256dhKey != "p256dh-b" {
		t.Errorf("p256dh = %q, want updated key", second.P256dhKey)
	}

	subs, err := ps.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("subs = %d, want 1", len(subs))
	}
}

func TestPushListByHouseholdExcept(t *testing.T) {
	ps, hs, us := setupPushTestDB(t)

	replier, err := us.Create("replier@example.com", "Replier", "hash")
	if err != nil {
		t.Fatalf("create replier: %v", err)
	}
	other, err := us.Create("other@example.com", "Other", "hash")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	h, err := hs.Create("Fanout Household", replier.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	if _, err := ps.Upsert(replier.ID, h.ID, "https://push.example/replier", "k", "a", ""); err != nil {
		t.Fatalf("upsert replier: %v", err)
	}
	if _, err := ps.Upsert(other.ID, h.ID, "https://push.example/other", "k", "a", ""); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	subs, err := ps.ListByHouseholdExcept(h.ID, replier.ID)
	if err != nil {
		t.Fatalf("list except: %v", err)
	}
	if len(subs) != 1 || subs[0].UserID != other.ID {
		t.Fatalf("subs = %+v, want just the other user", subs)
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	ps, hs, us := setupPushTestDB(t)

	u, err := us.Create("gone@example.com", "Gone", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Gone Household", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := ps.Upsert(u.ID, h.ID, "https://push.example/stale", "k", "a", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := ps.DeleteByEndpoint("https://push.example/stale"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, err := ps.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("subs = %+v, want none", subs)
	}
}
