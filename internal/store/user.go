package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mweber/pettrack/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var householdID sql.NullInt64

	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &householdID,
		&u.Phone, &u.Address, &u.Bio, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if householdID.Valid {
		u.HouseholdID = &householdID.Int64
	}
	return &u, nil
}

const userCols = `id, email, name, password_hash, household_id, phone, address, bio, avatar_url, created_at, updated_at`

// Create inserts a user with a password hash. The email is lowercased so
// invite matching can compare stored values exactly.
func (s *UserStore) Create(email, name, passwordHash string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)`,
		strings.ToLower(email), name, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, strings.ToLower(email))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// SetHousehold repoints the user's home household. Invite acceptance uses
// this to move a user away from their auto-created household.
func (s *UserStore) SetHousehold(id, householdID int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET household_id = ?, updated_at = datetime('now') WHERE id = ?`,
		householdID, id,
	)
	if err != nil {
		return fmt.Errorf("set user household: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateProfile(id int64, name, phone, address, bio, avatarURL string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, phone = ?, address = ?, bio = ?, avatar_url = ?, updated_at = datetime('now') WHERE id = ?`,
		name, phone, address, bio, avatarURL, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
