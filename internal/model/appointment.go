package model

import "time"

type Appointment struct {
	ID              int64     `json:"id"`
	HouseholdID     int64     `json:"household_id"`
	PetID           int64     `json:"pet_id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	ProviderName    string    `json:"provider_name"`
	ProviderPhone   string    `json:"provider_phone"`
	Location        string    `json:"location"`
	Notes           string    `json:"notes"`
	Status          string    `json:"status"`
	AssignedTo      *int64    `json:"assigned_to"`
	ReminderEnabled bool      `json:"reminder_enabled"`
	ReminderMinutes int       `json:"reminder_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
