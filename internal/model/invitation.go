package model

import "time"

// HouseholdInvitation is a pending invite to join a household. Accepted,
// declined and retracted invitations are deleted rather than kept with a
// terminal status.
type HouseholdInvitation struct {
	ID           string    `json:"id"`
	HouseholdID  string    `json:"household_id"`
	InvitedEmail string    `json:"invited_email"`
	InvitedBy    string    `json:"invited_by"`
	Role         string    `json:"role"`
	Token        string    `json:"token"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoreInvitation is the store-scoped counterpart of HouseholdInvitation.
type StoreInvitation struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"store_id"`
	InvitedEmail string    `json:"invited_email"`
	InvitedBy    string    `json:"invited_by"`
	Role         string    `json:"role"`
	Token        string    `json:"token"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationCounts holds the pending-invitation badge counts for a user.
type NotificationCounts struct {
	HouseholdInvitations int `json:"household_invitations"`
	StoreInvitations     int `json:"store_invitations"`
}
