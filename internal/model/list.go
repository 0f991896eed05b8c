package model

import "time"

// ListEntry is one row on a store's shopping list. Persistence flattens the
// idea-vs-catalog distinction into nullable columns; Body reconstructs the
// variant for business logic.
type ListEntry struct {
	ID           string     `json:"id"`
	StoreID      string     `json:"store_id"`
	StoreItemID  *string    `json:"store_item_id"`
	Name         string     `json:"name"`
	Qty          *float64   `json:"qty"`
	UnitID       *string    `json:"unit_id"`
	Notes        string     `json:"notes"`
	IsChecked    bool       `json:"is_checked"`
	CheckedBy    *string    `json:"checked_by"`
	CheckedAt    *time.Time `json:"checked_at"`
	IsSample     bool       `json:"is_sample"`
	IsUnsure     bool       `json:"is_unsure"`
	IsIdea       bool       `json:"is_idea"`
	SnoozedUntil *time.Time `json:"snoozed_until"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EntryBody is the variant part of a list entry: either a free-text Idea or
// a CatalogRef pointing at a StoreItem.
type EntryBody interface {
	isEntryBody()
}

// Idea is a list entry not backed by a catalog item.
type Idea struct {
	Name string
}

// CatalogRef links a list entry to a catalog item with optional quantity.
type CatalogRef struct {
	StoreItemID string
	Qty         *float64
	UnitID      *string
}

func (Idea) isEntryBody()       {}
func (CatalogRef) isEntryBody() {}

// Body returns the entry's variant as a tagged union.
func (e *ListEntry) Body() EntryBody {
	if e.IsIdea {
		return Idea{Name: e.Name}
	}
	itemID := ""
	if e.StoreItemID != nil {
		itemID = *e.StoreItemID
	}
	return CatalogRef{StoreItemID: itemID, Qty: e.Qty, UnitID: e.UnitID}
}

// NewEntry is the input to a shopping-list upsert.
type NewEntry struct {
	StoreID  string
	Body     EntryBody
	Notes    string
	IsSample bool
	IsUnsure bool
}
