package store

import (
	"database/sql"
	"fmt"

	"github.com/mweber/pettrack/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	var createdBy sql.NullInt64
	err := scanner.Scan(&h.ID, &h.Name, &createdBy, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		h.CreatedBy = &createdBy.Int64
	}
	return &h, nil
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, created_by, created_at, updated_at`
const memberCols = `id, household_id, user_id, role, created_at, updated_at`

func (s *HouseholdStore) Create(name string, createdBy int64) (*model.Household, error) {
	result, err := s.db.Exec(
		`INSERT INTO households (name, created_by) VALUES (?, ?)`,
		name, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Rename(id int64, name string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, updated_at = datetime('now') WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("rename household: %w", err)
	}
	return s.GetByID(id)
}

// AddMember inserts a membership. Duplicate (household, user) pairs are a
// no-op thanks to the unique index: the existing row is returned, so
// concurrent duplicate joins collapse into one membership.
func (s *HouseholdStore) AddMember(householdID, userID int64, role string) (*model.HouseholdMember, error) {
	_, err := s.db.Exec(
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)
		 ON CONFLICT (household_id, user_id) DO NOTHING`,
		householdID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	m, err := s.GetMember(householdID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("add member: membership missing after insert")
	}
	return m, nil
}

func (s *HouseholdStore) GetMember(householdID, userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) RemoveMember(householdID, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// ListMembers returns memberships joined with user display info, ordered by
// join time ascending.
func (s *HouseholdStore) ListMembers(householdID int64) ([]model.MemberWithUser, error) {
	rows, err := s.db.Query(
		`SELECT hm.id, hm.household_id, hm.user_id, hm.role, hm.created_at, hm.updated_at,
		        u.name, u.email, u.avatar_url
		 FROM household_members hm
		 JOIN users u ON u.id = hm.user_id
		 WHERE hm.household_id = ?
		 ORDER BY hm.created_at ASC, hm.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.MemberWithUser
	for rows.Next() {
		var m model.MemberWithUser
		if err := rows.Scan(
			&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt,
			&m.Name, &m.Email, &m.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// MemberUserIDs returns the user ids of everyone in the household.
func (s *HouseholdStore) MemberUserIDs(householdID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM household_members WHERE household_id = ?`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetMemberByEmail returns the membership of the user with the given email
// in the household, or nil if that email is not a member.
func (s *HouseholdStore) GetMemberByEmail(householdID int64, email string) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT hm.id, hm.household_id, hm.user_id, hm.role, hm.created_at, hm.updated_at
		 FROM household_members hm
		 JOIN users u ON u.id = hm.user_id
		 WHERE hm.household_id = ? AND u.email = ?`,
		householdID, email,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}
