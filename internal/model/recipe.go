package model

import "time"

type Recipe struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	Name        string    `json:"name"`
	Tags        []string  `json:"tags"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewIngredient is one ingredient line in a recipe create or update.
type NewIngredient struct {
	Name   string   `json:"name"`
	Qty    *float64 `json:"qty"`
	UnitID *string  `json:"unit_id"`
}

type RecipeIngredient struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	Name      string    `json:"name"`
	Qty       *float64  `json:"qty"`
	UnitID    *string   `json:"unit_id"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
