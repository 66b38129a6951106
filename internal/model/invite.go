package model

import "time"

// PendingInvite is a single-use, time-boxed credential granting membership
// in a specific household to a specific email. Invites are only ever created
// and deleted; expired rows are inert and purged lazily.
type PendingInvite struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	HouseholdID int64     `json:"household_id"`
	InvitedBy   int64     `json:"invited_by"`
	Token       string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
