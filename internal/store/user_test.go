package store

import (
	"testing"

	"github.com/mweber/pettrack/internal/database"
)

func setupUserTestDB(t *testing.T) (*UserStore, *HouseholdStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db), NewHouseholdStore(db)
}

func TestUserCreateAndGet(t *testing.T) {
	us, _ := setupUserTestDB(t)

	u, err := us.Create("Alice@Example.com", "Alice", "hash123")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased %q", u.Email, "alice@example.com")
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}
	if u.HouseholdID != nil {
		t.Errorf("household_id = %v, want nil before onboarding", *u.HouseholdID)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got == nil || got.Email != "alice@example.com" {
		t.Fatalf("get by id returned %+v", got)
	}
}

func TestUserGetByEmailCaseInsensitive(t *testing.T) {
	us, _ := setupUserTestDB(t)

	if _, err := us.Create("bob@example.com", "Bob", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := us.GetByEmail("BOB@Example.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil {
		t.Fatal("expected user for differently-cased email, got nil")
	}
}

func TestUserDuplicateEmailRejected(t *testing.T) {
	us, _ := setupUserTestDB(t)

	if _, err := us.Create("carol@example.com", "Carol", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("Carol@Example.com", "Carol Again", "hash"); err == nil {
		t.Fatal("expected unique constraint error for duplicate email")
	}
}

func TestUserGetMissing(t *testing.T) {
	us, _ := setupUserTestDB(t)

	got, err := us.GetByID(9999)
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing user, got %+v", got)
	}
}

func TestUserSetHousehold(t *testing.T) {
	us, hs := setupUserTestDB(t)

	u, err := us.Create("dave@example.com", "Dave", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Dave's Household", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	if err := us.SetHousehold(u.ID, h.ID); err != nil {
		t.Fatalf("set household: %v", err)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.HouseholdID == nil || *got.HouseholdID != h.ID {
		t.Errorf("household_id = %v, want %d", got.HouseholdID, h.ID)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	us, _ := setupUserTestDB(t)

	u, err := us.Create("erin@example.com", "Erin", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	updated, err := us.UpdateProfile(u.ID, "Erin M", "555-0100", "12 Oak St", "Dog person", "/files/avatar.png")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Erin M" {
		t.Errorf("name = %q, want %q", updated.Name, "Erin M")
	}
	if updated.Phone != "555-0100" {
		t.Errorf("phone = %q, want %q", updated.Phone, "555-0100")
	}
	if updated.Bio != "Dog person" {
		t.Errorf("bio = %q, want %q", updated.Bio, "Dog person")
	}
}
