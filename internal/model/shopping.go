package model

import "time"

type ShoppingItem struct {
	ID          int64      `json:"id"`
	HouseholdID int64      `json:"household_id"`
	PetID       *int64     `json:"pet_id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Quantity    *float64   `json:"quantity"`
	Unit        string     `json:"unit"`
	Priority    string     `json:"priority"`
	IsPurchased bool       `json:"is_purchased"`
	PurchasedBy *int64     `json:"purchased_by"`
	PurchasedAt *time.Time `json:"purchased_at"`
	AddedBy     *int64     `json:"added_by"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
