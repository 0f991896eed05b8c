package model

import "time"

// StoreItem is a reusable catalog entry scoped to one store, distinct from
// any particular shopping-list occurrence of it. NameNorm is the normalized
// form used for uniqueness within the store.
type StoreItem struct {
	ID         string     `json:"id"`
	StoreID    string     `json:"store_id"`
	Name       string     `json:"name"`
	NameNorm   string     `json:"name_norm"`
	AisleID    *string    `json:"aisle_id"`
	SectionID  *string    `json:"section_id"`
	UsageCount int64      `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsFavorite bool       `json:"is_favorite"`
	IsHidden   bool       `json:"is_hidden"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Unit is an entry in the seeded quantity-unit catalog.
type Unit struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Abbrev    string `json:"abbrev"`
	SortOrder int    `json:"sort_order"`
}
