package store

import (
	"testing"
	"time"

	"github.com/mweber/pettrack/internal/database"
)

func setupPetTestDB(t *testing.T) (*PetStore, *HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPetStore(db), NewHouseholdStore(db), NewUserStore(db)
}

func TestPetCRUD(t *testing.T) {
	ps, hs, us := setupPetTestDB(t)

	u, err := us.Create("petowner@example.com", "Pet Owner", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Pet Household", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	birth := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	weight := 24.5
	pet, err := ps.Create(h.ID, "Rex", "dog", "Labrador", &birth, &weight, "985112003456789", &u.ID, "Allergic to chicken")
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}
	if pet.Name != "Rex" || pet.Species != "dog" {
		t.Errorf("pet = %+v, want Rex the dog", pet)
	}
	if pet.Weight == nil || *pet.Weight != 24.5 {
		t.Errorf("weight = %v, want 24.5", pet.Weight)
	}
	if pet.PrimaryCarerID == nil || *pet.PrimaryCarerID != u.ID {
		t.Errorf("primary_carer_id = %v, want %d", pet.PrimaryCarerID, u.ID)
	}

	updated, err := ps.Update(pet.ID, "Rex", "dog", "Labrador", &birth, &weight, pet.MicrochipID, nil, "Allergy resolved")
	if err != nil {
		t.Fatalf("update pet: %v", err)
	}
	if updated.Notes != "Allergy resolved" {
		t.Errorf("notes = %q, want updated", updated.Notes)
	}
	if updated.PrimaryCarerID != nil {
		t.Errorf("primary_carer_id = %v, want cleared", updated.PrimaryCarerID)
	}

	if err := ps.SetPhotoKey(pet.ID, "1/pets/rex.jpg"); err != nil {
		t.Fatalf("set photo key: %v", err)
	}
	got, err := ps.GetByID(pet.ID)
	if err != nil {
		t.Fatalf("get pet: %v", err)
	}
	if got.PhotoKey != "1/pets/rex.jpg" {
		t.Errorf("photo_key = %q, want set", got.PhotoKey)
	}

	if err := ps.Delete(pet.ID); err != nil {
		t.Fatalf("delete pet: %v", err)
	}
	got, err = ps.GetByID(pet.ID)
	if err != nil {
		t.Fatalf("get deleted pet: %v", err)
	}
	if got != nil {
		t.Fatalf("expected pet gone, got %+v", got)
	}
}

func TestPetMedicalRecords(t *testing.T) {
	ps, hs, us := setupPetTestDB(t)

	u, err := us.Create("vetfiles@example.com", "Vet Files", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Records Household", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	pet, err := ps.Create(h.ID, "Mittens", "cat", "", nil, nil, "", nil, "")
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}

	rec, err := ps.AddMedicalRecord(pet.ID, "vaccines-2026.pdf", "1/records/vaccines-2026.pdf", "Annual shots")
	if err != nil {
		t.Fatalf("add medical record: %v", err)
	}
	if rec.FileName != "vaccines-2026.pdf" {
		t.Errorf("file_name = %q, want %q", rec.FileName, "vaccines-2026.pdf")
	}

	records, err := ps.ListMedicalRecords(pet.ID)
	if err != nil {
		t.Fatalf("list medical records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	// Deleting the pet sweeps its records too.
	if err := ps.Delete(pet.ID); err != nil {
		t.Fatalf("delete pet: %v", err)
	}
	var count int
	if err := ps.db.QueryRow(`SELECT COUNT(*) FROM medical_records WHERE pet_id = ?`, pet.ID).Scan(&count); err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 0 {
		t.Errorf("records after pet delete = %d, want 0", count)
	}
}
