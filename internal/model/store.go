package model

import "time"

// Store is a shopping venue with its own aisle/section layout and item
// catalog. HouseholdID is nil for private stores.
type Store struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HouseholdID *string   `json:"household_id"`
	IsHidden    bool      `json:"is_hidden"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoreCollaborator grants a user direct, non-inherited access to a store.
type StoreCollaborator struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type StoreAisle struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type StoreSection struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	AisleID   string    `json:"aisle_id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// SortUpdate is one element of a reorder batch.
type SortUpdate struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sort_order"`
}
