package model

import "time"

type Pet struct {
	ID             int64      `json:"id"`
	HouseholdID    int64      `json:"household_id"`
	Name           string     `json:"name"`
	Species        string     `json:"species"`
	Breed          string     `json:"breed"`
	BirthDate      *time.Time `json:"birth_date"`
	Weight         *float64   `json:"weight"`
	MicrochipID    string     `json:"microchip_id"`
	PhotoKey       string     `json:"photo_key"`
	PrimaryCarerID *int64     `json:"primary_carer_id"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type MedicalRecord struct {
	ID          int64     `json:"id"`
	PetID       int64     `json:"pet_id"`
	FileName    string    `json:"file_name"`
	FileKey     string    `json:"file_key"`
	Description string    `json:"description"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
