package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
)

// ListStore manages shopping-list entries. A store's list holds at most one
// entry per catalog item, enforced by a partial unique index, plus any
// number of free-text idea entries.
type ListStore struct {
	db     *sql.DB
	stores *StoreStore
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db, stores: NewStoreStore(db)}
}

// entryCols reads the display name from the catalog item when the entry
// references one, so renaming an item renames its list entry.
const entryCols = `le.id, le.store_id, le.store_item_id, COALESCE(si.name, le.name), le.qty, le.unit_id, le.notes,
	le.is_checked, le.checked_by, le.checked_at, le.is_sample, le.is_unsure, le.is_idea,
	le.snoozed_until, le.created_at, le.updated_at`

const entryFrom = ` FROM list_entries le LEFT JOIN store_items si ON le.store_item_id = si.id `

func scanEntry(scanner interface{ Scan(...any) error }) (*model.ListEntry, error) {
	var e model.ListEntry
	err := scanner.Scan(
		&e.ID, &e.StoreID, &e.StoreItemID, &e.Name, &e.Qty, &e.UnitID, &e.Notes,
		&e.IsChecked, &e.CheckedBy, &e.CheckedAt, &e.IsSample, &e.IsUnsure, &e.IsIdea,
		&e.SnoozedUntil, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *ListStore) requireRole(storeID, userID string, min access.Role) error {
	role, err := s.stores.ResolveRole(storeID, userID)
	if err != nil {
		return err
	}
	if role == nil {
		return errs.NotFound("store not found")
	}
	if !access.AtLeast(*role, min) {
		return errs.Forbidden("%s role required", min)
	}
	return nil
}

func (s *ListStore) GetByID(entryID string) (*model.ListEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryCols+entryFrom+`WHERE le.id = ?`, entryID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// UpsertEntry adds to the shopping list. Idea entries always insert a new
// row. Catalog entries insert at most one row per item: a concurrent or
// repeated add of the same item merges into the existing row instead, and
// the item's usage count increments only when a row was actually inserted.
func (s *ListStore) UpsertEntry(e model.NewEntry, actorID string) (*model.ListEntry, error) {
	if err := s.requireRole(e.StoreID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}

	switch body := e.Body.(type) {
	case model.Idea:
		name := strings.TrimSpace(body.Name)
		if name == "" {
			return nil, errs.Validation("idea text cannot be empty")
		}
		id := uuid.NewString()
		_, err := s.db.Exec(
			`INSERT INTO list_entries (id, store_id, name, notes, is_sample, is_unsure, is_idea)
			 VALUES (?, ?, ?, ?, ?, ?, 1)`,
			id, e.StoreID, name, e.Notes, boolInt(e.IsSample), boolInt(e.IsUnsure),
		)
		if err != nil {
			return nil, fmt.Errorf("insert idea entry: %w", err)
		}
		return s.GetByID(id)

	case model.CatalogRef:
		return s.upsertCatalogEntry(e, body)

	default:
		return nil, errs.Validation("entry must be an idea or a catalog reference")
	}
}

func (s *ListStore) upsertCatalogEntry(e model.NewEntry, ref model.CatalogRef) (*model.ListEntry, error) {
	var itemStoreID string
	err := s.db.QueryRow(`SELECT store_id FROM store_items WHERE id = ?`, ref.StoreItemID).Scan(&itemStoreID)
	if err == sql.ErrNoRows {
		return nil, errs.Validation("unknown catalog item")
	}
	if err != nil {
		return nil, fmt.Errorf("get item store: %w", err)
	}
	if itemStoreID != e.StoreID {
		return nil, errs.Validation("item belongs to a different store")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	res, err := tx.Exec(
		`INSERT INTO list_entries (id, store_id, store_item_id, qty, unit_id, notes, is_sample, is_unsure)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (store_id, store_item_id) WHERE store_item_id IS NOT NULL DO NOTHING`,
		id, e.StoreID, ref.StoreItemID, ref.Qty, ref.UnitID, e.Notes, boolInt(e.IsSample), boolInt(e.IsUnsure),
	)
	if err != nil {
		return nil, fmt.Errorf("insert catalog entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	if affected == 1 {
		_, err = tx.Exec(
			`UPDATE store_items SET usage_count = usage_count + 1, last_used_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`,
			ref.StoreItemID,
		)
		if err != nil {
			return nil, fmt.Errorf("bump usage count: %w", err)
		}
	} else {
		// Entry already on the list: merge, reviving it if checked or
		// snoozed. No usage bump since nothing was added.
		_, err = tx.Exec(
			`UPDATE list_entries SET
				qty = COALESCE(?, qty),
				unit_id = COALESCE(?, unit_id),
				notes = CASE WHEN ? != '' THEN ? ELSE notes END,
				is_checked = 0, checked_by = NULL, checked_at = NULL,
				snoozed_until = NULL,
				updated_at = datetime('now')
			 WHERE store_id = ? AND store_item_id = ?`,
			ref.Qty, ref.UnitID, e.Notes, e.Notes, e.StoreID, ref.StoreItemID,
		)
		if err != nil {
			return nil, fmt.Errorf("merge catalog entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+entryCols+entryFrom+`WHERE le.store_id = ? AND le.store_item_id = ?`,
		e.StoreID, ref.StoreItemID,
	)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get entry after upsert: %w", err)
	}
	return entry, nil
}

// SetChecked marks the entry checked or unchecked. checked_by and
// checked_at record only the actual transition; repeating the same state is
// a no-op that preserves the original attribution.
func (s *ListStore) SetChecked(entryID string, checked bool, actorID string) (*model.ListEntry, error) {
	e, err := s.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errs.NotFound("entry not found")
	}
	if err := s.requireRole(e.StoreID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}

	if checked {
		_, err = s.db.Exec(
			`UPDATE list_entries SET is_checked = 1, checked_by = ?, checked_at = datetime('now'), updated_at = datetime('now')
			 WHERE id = ? AND is_checked = 0`,
			actorID, entryID,
		)
	} else {
		_, err = s.db.Exec(
			`UPDATE list_entries SET is_checked = 0, checked_by = NULL, checked_at = NULL, updated_at = datetime('now')
			 WHERE id = ? AND is_checked = 1`,
			entryID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("set checked: %w", err)
	}
	return s.GetByID(entryID)
}

// ClearChecked deletes all checked entries from the store's list.
func (s *ListStore) ClearChecked(storeID, actorID string) (int64, error) {
	if err := s.requireRole(storeID, actorID, access.RoleEditor); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`DELETE FROM list_entries WHERE store_id = ? AND is_checked = 1`, storeID)
	if err != nil {
		return 0, fmt.Errorf("clear checked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Snooze hides the entry from the default list view until the given time.
// A nil until clears the snooze.
func (s *ListStore) Snooze(entryID string, until *time.Time, actorID string) (*model.ListEntry, error) {
	e, err := s.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errs.NotFound("entry not found")
	}
	if err := s.requireRole(e.StoreID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`UPDATE list_entries SET snoozed_until = ?, updated_at = datetime('now') WHERE id = ?`,
		until, entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("snooze entry: %w", err)
	}
	return s.GetByID(entryID)
}

func (s *ListStore) Delete(entryID, actorID string) error {
	e, err := s.GetByID(entryID)
	if err != nil {
		return err
	}
	if e == nil {
		return errs.NotFound("entry not found")
	}
	if err := s.requireRole(e.StoreID, actorID, access.RoleEditor); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM list_entries WHERE id = ?`, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// List returns the store's shopping list. Snoozed entries are hidden until
// their snooze expires unless includeSnoozed is set. Unchecked entries sort
// first, then oldest added first.
func (s *ListStore) List(storeID string, includeSnoozed bool, actorID string) ([]model.ListEntry, error) {
	if err := s.requireRole(storeID, actorID, access.RoleViewer); err != nil {
		return nil, err
	}

	q := `SELECT ` + entryCols + entryFrom + `WHERE le.store_id = ?`
	if !includeSnoozed {
		q += ` AND (le.snoozed_until IS NULL OR le.snoozed_until <= datetime('now'))`
	}
	q += ` ORDER BY le.is_checked ASC, le.created_at ASC, le.id ASC`

	rows, err := s.db.Query(q, storeID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ListEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
