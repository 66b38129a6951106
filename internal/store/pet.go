package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mweber/pettrack/internal/model"
)

type PetStore struct {
	db *sql.DB
}

func NewPetStore(db *sql.DB) *PetStore {
	return &PetStore{db: db}
}

func scanPet(scanner interface{ Scan(...any) error }) (*model.Pet, error) {
	var p model.Pet
	var birthDate sql.NullTime
	var weight sql.NullFloat64
	var carer sql.NullInt64

	err := scanner.Scan(
		&p.ID, &p.HouseholdID, &p.Name, &p.Species, &p.Breed,
		&birthDate, &weight, &p.MicrochipID, &p.PhotoKey, &carer,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthDate.Valid {
		p.BirthDate = &birthDate.Time
	}
	if weight.Valid {
		p.Weight = &weight.Float64
	}
	if carer.Valid {
		p.PrimaryCarerID = &carer.Int64
	}
	return &p, nil
}

const petCols = `id, household_id, name, species, breed, birth_date, weight, microchip_id, photo_key, primary_carer_id, notes, created_at, updated_at`

func (s *PetStore) Create(householdID int64, name, species, breed string, birthDate *time.Time, weight *float64, microchipID string, primaryCarerID *int64, notes string) (*model.Pet, error) {
	var bd sql.NullTime
	if birthDate != nil {
		bd = sql.NullTime{Time: *birthDate, Valid: true}
	}
	var w sql.NullFloat64
	if weight != nil {
		w = sql.NullFloat64{Float64: *weight, Valid: true}
	}
	var carer sql.NullInt64
	if primaryCarerID != nil {
		carer = sql.NullInt64{Int64: *primaryCarerID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO pets (household_id, name, species, breed, birth_date, weight, microchip_id, primary_carer_id, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, name, species, breed, bd, w, microchipID, carer, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PetStore) GetByID(id int64) (*model.Pet, error) {
	row := s.db.QueryRow(`SELECT `+petCols+` FROM pets WHERE id = ?`, id)
	p, err := scanPet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return p, nil
}

func (s *PetStore) Update(id int64, name, species, breed string, birthDate *time.Time, weight *float64, microchipID string, primaryCarerID *int64, notes string) (*model.Pet, error) {
	var bd sql.NullTime
	if birthDate != nil {
		bd = sql.NullTime{Time: *birthDate, Valid: true}
	}
	var w sql.NullFloat64
	if weight != nil {
		w = sql.NullFloat64{Float64: *weight, Valid: true}
	}
	var carer sql.NullInt64
	if primaryCarerID != nil {
		carer = sql.NullInt64{Int64: *primaryCarerID, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE pets SET name = ?, species = ?, breed = ?, birth_date = ?, weight = ?, microchip_id = ?, primary_carer_id = ?, notes = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		name, species, breed, bd, w, microchipID, carer, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update pet: %w", err)
	}
	return s.GetByID(id)
}

func (s *PetStore) SetPhotoKey(id int64, key string) error {
	_, err := s.db.Exec(
		`UPDATE pets SET photo_key = ?, updated_at = datetime('now') WHERE id = ?`,
		key, id,
	)
	if err != nil {
		return fmt.Errorf("set pet photo: %w", err)
	}
	return nil
}

func (s *PetStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM pets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return nil
}

func (s *PetStore) ListByHousehold(householdID int64) ([]model.Pet, error) {
	rows, err := s.db.Query(
		`SELECT `+petCols+` FROM pets WHERE household_id = ? ORDER BY name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var pets []model.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, *p)
	}
	return pets, rows.Err()
}

func (s *PetStore) AddMedicalRecord(petID int64, fileName, fileKey, description string) (*model.MedicalRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO medical_records (pet_id, file_name, file_key, description) VALUES (?, ?, ?, ?)`,
		petID, fileName, fileKey, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medical record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMedicalRecord(id)
}

func (s *PetStore) GetMedicalRecord(id int64) (*model.MedicalRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, pet_id, file_name, file_key, description, uploaded_at FROM medical_records WHERE id = ?`,
		id,
	)

	var r model.MedicalRecord
	err := row.Scan(&r.ID, &r.PetID, &r.FileName, &r.FileKey, &r.Description, &r.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medical record: %w", err)
	}
	return &r, nil
}

func (s *PetStore) ListMedicalRecords(petID int64) ([]model.MedicalRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, pet_id, file_name, file_key, description, uploaded_at FROM medical_records
		 WHERE pet_id = ? ORDER BY uploaded_at DESC, id DESC`,
		petID,
	)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var records []model.MedicalRecord
	for rows.Next() {
		var r model.MedicalRecord
		if err := rows.Scan(&r.ID, &r.PetID, &r.FileName, &r.FileKey, &r.Description, &r.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PetStore) DeleteMedicalRecord(id int64) error {
	_, err := s.db.Exec(`DELETE FROM medical_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medical record: %w", err)
	}
	return nil
}
