// Package onboard decides what happens to a household when a new user signs
// up: join an existing household through a pending invite, or create a fresh
// one with the new user as owner. The decision is made exactly once, at
// signup, so both branches are explicit and testable.
package onboard

import (
	"time"

	"github.com/mweber/pettrack/internal/model"
)

type Kind int

const (
	// CreateNew means no usable invite exists: create a household named
	// after the user and add them as owner.
	CreateNew Kind = iota
	// JoinExisting means a live invite targets this email: add the user as
	// a member of the invite's household and consume the invite.
	JoinExisting
)

type Plan struct {
	Kind        Kind
	HouseholdID int64 // set for JoinExisting
	InviteID    int64 // set for JoinExisting; the invite to consume
}

// Decide evaluates a pending invite (may be nil) against the current time.
// Expiry is strict: an invite expiring exactly at now is already dead.
func Decide(invite *model.PendingInvite, now time.Time) Plan {
	if invite == nil || !now.Before(invite.ExpiresAt) {
		return Plan{Kind: CreateNew}
	}
	return Plan{
		Kind:        JoinExisting,
		HouseholdID: invite.HouseholdID,
		InviteID:    invite.ID,
	}
}
