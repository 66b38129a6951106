package store

import (
	"database/sql"
	"fmt"

	"github.com/mweber/pettrack/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var petID, purchasedBy, addedBy sql.NullInt64
	var quantity sql.NullFloat64
	var purchasedAt sql.NullTime

	err := scanner.Scan(
		&item.ID, &item.HouseholdID, &petID, &item.Name, &item.Category,
		&quantity, &item.Unit, &item.Priority, &item.IsPurchased,
		&purchasedBy, &purchasedAt, &addedBy, &item.Notes,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if petID.Valid {
		item.PetID = &petID.Int64
	}
	if quantity.Valid {
		item.Quantity = &quantity.Float64
	}
	if purchasedBy.Valid {
		item.PurchasedBy = &purchasedBy.Int64
	}
	if purchasedAt.Valid {
		item.PurchasedAt = &purchasedAt.Time
	}
	if addedBy.Valid {
		item.AddedBy = &addedBy.Int64
	}
	return &item, nil
}

const shoppingCols = `id, household_id, pet_id, name, category, quantity, unit, priority, is_purchased, purchased_by, purchased_at, added_by, notes, created_at, updated_at`

func (s *ShoppingStore) Create(householdID int64, petID *int64, name, category string, quantity *float64, unit, priority string, addedBy int64, notes string) (*model.ShoppingItem, error) {
	var pet sql.NullInt64
	if petID != nil {
		pet = sql.NullInt64{Int64: *petID, Valid: true}
	}
	var qty sql.NullFloat64
	if quantity != nil {
		qty = sql.NullFloat64{Float64: *quantity, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO shopping_items (household_id, pet_id, name, category, quantity, unit, priority, added_by, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, pet, name, category, qty, unit, priority, addedBy, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) GetByID(id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRow(`SELECT `+shoppingCols+` FROM shopping_items WHERE id = ?`, id)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) Update(id int64, petID *int64, name, category string, quantity *float64, unit, priority, notes string) (*model.ShoppingItem, error) {
	var pet sql.NullInt64
	if petID != nil {
		pet = sql.NullInt64{Int64: *petID, Valid: true}
	}
	var qty sql.NullFloat64
	if quantity != nil {
		qty = sql.NullFloat64{Float64: *quantity, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE shopping_items SET pet_id = ?, name = ?, category = ?, quantity = ?, unit = ?, priority = ?, notes = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		pet, name, category, qty, unit, priority, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping item: %w", err)
	}
	return s.GetByID(id)
}

// SetPurchased toggles the bought flag. Marking records who and when;
// unmarking clears both.
func (s *ShoppingStore) SetPurchased(id int64, purchased bool, userID int64) (*model.ShoppingItem, error) {
	var err error
	if purchased {
		_, err = s.db.Exec(
			`UPDATE shopping_items SET is_purchased = 1, purchased_by = ?, purchased_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`,
			userID, id,
		)
	} else {
		_, err = s.db.Exec(
			`UPDATE shopping_items SET is_purchased = 0, purchased_by = NULL, purchased_at = NULL, updated_at = datetime('now') WHERE id = ?`,
			id,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("set purchased: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM shopping_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}

// ClearPurchased removes every bought item in one sweep.
func (s *ShoppingStore) ClearPurchased(householdID int64) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM shopping_items WHERE household_id = ? AND is_purchased = 1`,
		householdID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear purchased: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// ListByHousehold returns unpurchased items first, newest first within each
// group.
func (s *ShoppingStore) ListByHousehold(householdID int64) ([]model.ShoppingItem, error) {
	rows, err := s.db.Query(
		`SELECT `+shoppingCols+` FROM shopping_items
		 WHERE household_id = ?
		 ORDER BY is_purchased ASC, created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
