package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mweber/pettrack/internal/model"
)

type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

func scanAppointment(scanner interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	var assignedTo sql.NullInt64

	err := scanner.Scan(
		&a.ID, &a.HouseholdID, &a.PetID, &a.Title, &a.Category,
		&a.StartAt, &a.EndAt, &a.ProviderName, &a.ProviderPhone,
		&a.Location, &a.Notes, &a.Status, &assignedTo,
		&a.ReminderEnabled, &a.ReminderMinutes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		a.AssignedTo = &assignedTo.Int64
	}
	return &a, nil
}

const appointmentCols = `id, household_id, pet_id, title, category, start_at, end_at, provider_name, provider_phone, location, notes, status, assigned_to, reminder_enabled, reminder_minutes, created_at, updated_at`

// AppointmentParams carries the writable fields of an appointment. Create and
// Update share it to keep the long column list in one place.
type AppointmentParams struct {
	PetID           int64
	Title           string
	Category        string
	StartAt         time.Time
	EndAt           time.Time
	ProviderName    string
	ProviderPhone   string
	Location        string
	Notes           string
	Status          string
	AssignedTo      *int64
	ReminderEnabled bool
	ReminderMinutes int
}

func (s *AppointmentStore) Create(householdID int64, p AppointmentParams) (*model.Appointment, error) {
	var assigned sql.NullInt64
	if p.AssignedTo != nil {
		assigned = sql.NullInt64{Int64: *p.AssignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO appointments (household_id, pet_id, title, category, start_at, end_at, provider_name, provider_phone, location, notes, status, assigned_to, reminder_enabled, reminder_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, p.PetID, p.Title, p.Category, p.StartAt.UTC(), p.EndAt.UTC(),
		p.ProviderName, p.ProviderPhone, p.Location, p.Notes, p.Status,
		assigned, p.ReminderEnabled, p.ReminderMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) GetByID(id int64) (*model.Appointment, error) {
	row := s.db.QueryRow(`SELECT `+appointmentCols+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *AppointmentStore) Update(id int64, p AppointmentParams) (*model.Appointment, error) {
	var assigned sql.NullInt64
	if p.AssignedTo != nil {
		assigned = sql.NullInt64{Int64: *p.AssignedTo, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE appointments SET pet_id = ?, title = ?, category = ?, start_at = ?, end_at = ?, provider_name = ?, provider_phone = ?, location = ?, notes = ?, status = ?, assigned_to = ?, reminder_enabled = ?, reminder_minutes = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		p.PetID, p.Title, p.Category, p.StartAt.UTC(), p.EndAt.UTC(),
		p.ProviderName, p.ProviderPhone, p.Location, p.Notes, p.Status,
		assigned, p.ReminderEnabled, p.ReminderMinutes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) SetStatus(id int64, status string) (*model.Appointment, error) {
	_, err := s.db.Exec(
		`UPDATE appointments SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set appointment status: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// ListByHousehold returns appointments sorted by start time. When from is
// non-nil only appointments starting at or after it are returned, which is
// how the upcoming view filters out the past.
func (s *AppointmentStore) ListByHousehold(householdID int64, from *time.Time, petID *int64) ([]model.Appointment, error) {
	query := `SELECT ` + appointmentCols + ` FROM appointments WHERE household_id = ?`
	args := []any{householdID}

	if from != nil {
		query += ` AND start_at >= ?`
		args = append(args, from.UTC())
	}
	if petID != nil {
		query += ` AND pet_id = ?`
		args = append(args, *petID)
	}
	query += ` ORDER BY start_at ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}
