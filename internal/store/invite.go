package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/mweber/pettrack/internal/model"
)

// inviteTTL is how long an invite stays redeemable after issue.
const inviteTTL = 7 * 24 * time.Hour

type InviteStore struct {
	db *sql.DB
}

func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db: db}
}

func scanInvite(scanner interface{ Scan(...any) error }) (*model.PendingInvite, error) {
	var inv model.PendingInvite
	err := scanner.Scan(
		&inv.ID, &inv.Email, &inv.HouseholdID, &inv.InvitedBy,
		&inv.Token, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const inviteCols = `id, email, household_id, invited_by, token, expires_at, created_at`

// Create issues an invite for an email to join a household. The token is
// 32 random bytes hex-encoded, the expiry 7 days out.
func (s *InviteStore) Create(email string, householdID, invitedBy int64) (*model.PendingInvite, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expiresAt := time.Now().UTC().Add(inviteTTL)

	result, err := s.db.Exec(
		`INSERT INTO pending_invites (email, household_id, invited_by, token, expires_at) VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(email), householdID, invitedBy, token, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+inviteCols+` FROM pending_invites WHERE id = ?`, id)
	return scanInvite(row)
}

// GetByToken returns the unexpired invite for a token, or nil. The expiry
// comparison is strict: a token expiring exactly now is already dead.
func (s *InviteStore) GetByToken(token string) (*model.PendingInvite, error) {
	row := s.db.QueryRow(
		`SELECT `+inviteCols+` FROM pending_invites WHERE token = ? AND expires_at > datetime('now')`,
		token,
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by token: %w", err)
	}
	return inv, nil
}

// GetActiveByEmail returns the most recent unexpired invite targeting an
// email, or nil. Signup consults this to decide between joining an existing
// household and creating a new one.
func (s *InviteStore) GetActiveByEmail(email string) (*model.PendingInvite, error) {
	row := s.db.QueryRow(
		`SELECT `+inviteCols+` FROM pending_invites
		 WHERE email = ? AND expires_at > datetime('now')
		 ORDER BY created_at DESC LIMIT 1`,
		strings.ToLower(email),
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by email: %w", err)
	}
	return inv, nil
}

// GetActiveByEmailAndHousehold reports whether a live invite already exists
// for the (email, household) pair; used to refuse duplicate invites.
func (s *InviteStore) GetActiveByEmailAndHousehold(email string, householdID int64) (*model.PendingInvite, error) {
	row := s.db.QueryRow(
		`SELECT `+inviteCols+` FROM pending_invites
		 WHERE email = ? AND household_id = ? AND expires_at > datetime('now')
		 LIMIT 1`,
		strings.ToLower(email), householdID,
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by email and household: %w", err)
	}
	return inv, nil
}

// Delete consumes an invite. Invites are single-use: acceptance and
// already-member acceptance both end here.
func (s *InviteStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM pending_invites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}

func (s *InviteStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM pending_invites WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired invites: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
