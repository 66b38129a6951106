package store

import (
	"testing"

	"github.com/mweber/pettrack/internal/database"
)

func setupShoppingTestDB(t *testing.T) (*ShoppingStore, *HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewShoppingStore(db), NewHouseholdStore(db), NewUserStore(db)
}

func shoppingFixture(t *testing.T, hs *HouseholdStore, us *UserStore) (userID, householdID int64) {
	t.Helper()
	u, err := us.Create("shopper@example.com", "Shopper", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Shopping Household", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return u.ID, h.ID
}

func TestShoppingCreateAndList(t *testing.T) {
	ss, hs, us := setupShoppingTestDB(t)
	userID, householdID := shoppingFixture(t, hs, us)

	qty := 2.0
	item, err := ss.Create(householdID, nil, "Kibble", "food", &qty, "kg", "high", userID, "the salmon one")
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Quantity == nil || *item.Quantity != 2.0 {
		t.Errorf("quantity = %v, want 2.0", item.Quantity)
	}
	if item.AddedBy == nil || *item.AddedBy != userID {
		t.Errorf("added_by = %v, want %d", item.AddedBy, userID)
	}
	if item.IsPurchased {
		t.Error("new item should not be purchased")
	}

	items, err := ss.ListByHousehold(householdID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
}

func TestShoppingPurchaseToggle(t *testing.T) {
	ss, hs, us := setupShoppingTestDB(t)
	userID, householdID := shoppingFixture(t, hs, us)

	item, err := ss.Create(householdID, nil, "Litter", "supplies", nil, "", "medium", userID, "")
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	bought, err := ss.SetPurchased(item.ID, true, userID)
	if err != nil {
		t.Fatalf("mark purchased: %v", err)
	}
	if !bought.IsPurchased {
		t.Error("item not marked purchased")
	}
	if bought.PurchasedBy == nil || *bought.PurchasedBy != userID {
		t.Errorf("purchased_by = %v, want %d", bought.PurchasedBy, userID)
	}
	if bought.PurchasedAt == nil {
		t.Error("purchased_at not set")
	}

	unbought, err := ss.SetPurchased(item.ID, false, userID)
	if err != nil {
		t.Fatalf("unmark purchased: %v", err)
	}
	if unbought.IsPurchased || unbought.PurchasedBy != nil || unbought.PurchasedAt != nil {
		t.Errorf("unmark left purchase fields set: %+v", unbought)
	}
}

func TestShoppingListOrdersPurchasedLast(t *testing.T) {
	ss, hs, us := setupShoppingTestDB(t)
	userID, householdID := shoppingFixture(t, hs, us)

	first, err := ss.Create(householdID, nil, "Treats", "treats", nil, "", "low", userID, "")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := ss.Create(householdID, nil, "Leash", "supplies", nil, "", "medium", userID, ""); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := ss.SetPurchased(first.ID, true, userID); err != nil {
		t.Fatalf("purchase first: %v", err)
	}

	items, err := ss.ListByHousehold(householdID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Name != "Leash" || items[1].Name != "Treats" {
		t.Errorf("order = [%q, %q], want unpurchased first", items[0].Name, items[1].Name)
	}
}

func TestShoppingClearPurchased(t *testing.T) {
	ss, hs, us := setupShoppingTestDB(t)
	userID, householdID := shoppingFixture(t, hs, us)

	bought, err := ss.Create(householdID, nil, "Bought", "other", nil, "", "low", userID, "")
	if err != nil {
		t.Fatalf("create bought: %v", err)
	}
	if _, err := ss.SetPurchased(bought.ID, true, userID); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := ss.Create(householdID, nil, "Pending", "other", nil, "", "low", userID, ""); err != nil {
		t.Fatalf("create pending: %v", err)
	}

	n, err := ss.ClearPurchased(householdID)
	if err != nil {
		t.Fatalf("clear purchased: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared %d items, want 1", n)
	}

	items, err := ss.ListByHousehold(householdID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Pending" {
		t.Fatalf("remaining = %+v, want just the pending item", items)
	}
}
