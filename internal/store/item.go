package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/catalog"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
)

// ItemStore manages the per-store item catalog. Item identity within a
// store is the normalized name, so concurrent creates of "Milk" and
// " milk " converge on one row.
type ItemStore struct {
	db     *sql.DB
	stores *StoreStore
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db, stores: NewStoreStore(db)}
}

const itemCols = `id, store_id, name, name_norm, aisle_id, section_id, usage_count, last_used_at, is_favorite, is_hidden, created_at, updated_at`

func scanItem(scanner interface{ Scan(...any) error }) (*model.StoreItem, error) {
	var it model.StoreItem
	err := scanner.Scan(
		&it.ID, &it.StoreID, &it.Name, &it.NameNorm, &it.AisleID, &it.SectionID,
		&it.UsageCount, &it.LastUsedAt, &it.IsFavorite, &it.IsHidden,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *ItemStore) requireRole(storeID, userID string, min access.Role) error {
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

// CreateOrGet finds the store's item for the normalized name, creating it
// if absent. The insert uses ON CONFLICT DO NOTHING so two racing callers
// both land on the same row. When no aisle is given, a new item gets one
// suggested from its name if the store has a matching default aisle.
func (s *ItemStore) CreateOrGet(storeID, name string, aisleID *string, actorID string) (*model.StoreItem, error) {
	norm := catalog.NormalizeName(name)
	if norm == "" {
		return nil, errs.Validation("item name cannot be empty")
	}
	if err := s.requireRole(storeID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}

	if aisleID == nil {
		var id string
		err := s.db.QueryRow(
			`SELECT id FROM store_aisles WHERE store_id = ? AND name = ?`,
			storeID, catalog.SuggestAisle(norm),
		).Scan(&id)
		if err == nil {
			aisleID = &id
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("lookup suggested aisle: %w", err)
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO store_items (id, store_id, name, name_norm, aisle_id)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (store_id, name_norm) DO NOTHING`,
		uuid.NewString(), storeID, name, norm, aisleID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+itemCols+` FROM store_items WHERE store_id = ? AND name_norm = ?`,
		storeID, norm,
	)
	it, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("get item after insert: %w", err)
	}
	return it, nil
}

func (s *ItemStore) GetByID(itemID string) (*model.StoreItem, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM store_items WHERE id = ?`, itemID)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Search returns catalog items matching the normalized prefix or substring,
// most-used first. Ties break on name, then id, so pagination is stable.
func (s *ItemStore) Search(storeID, query string, includeHidden bool, limit int, actorID string) ([]model.StoreItem, error) {
	if err := s.requireRole(storeID, actorID, access.RoleViewer); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	norm := catalog.NormalizeName(query)

	q := `SELECT ` + itemCols + ` FROM store_items WHERE store_id = ? AND name_norm LIKE ?`
	args := []any{storeID, "%" + norm + "%"}
	if !includeHidden {
		q += ` AND is_hidden = 0`
	}
	q += ` ORDER BY usage_count DESC, name ASC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	var items []model.StoreItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// Update renames the item or moves it to another aisle/section. Renaming
// re-normalizes and can collide with an existing item, which is CONFLICT.
func (s *ItemStore) Update(itemID, name string, aisleID, sectionID *string, actorID string) (*model.StoreItem, error) {
	it, err := s.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, errs.NotFound("item not found")
	}
	if err := s.requireRole(it.StoreID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}

	norm := catalog.NormalizeName(name)
	if norm == "" {
		return nil, errs.Validation("item name cannot be empty")
	}
	if norm != it.NameNorm {
		var exists int
		err := s.db.QueryRow(
			`SELECT COUNT(*) FROM store_items WHERE store_id = ? AND name_norm = ? AND id != ?`,
			it.StoreID, norm, itemID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check name collision: %w", err)
		}
		if exists > 0 {
			return nil, errs.Conflict("an item named %q already exists", name)
		}
	}

	_, err = s.db.Exec(
		`UPDATE store_items SET name = ?, name_norm = ?, aisle_id = ?, section_id = ?, updated_at = datetime('now') WHERE id = ?`,
		name, norm, aisleID, sectionID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetByID(itemID)
}

func (s *ItemStore) SetFavorite(itemID string, favorite bool, actorID string) error {
	return s.setFlag(itemID, "is_favorite", favorite, actorID)
}

// SetHidden hides the item from default search results without deleting its
// usage history.
func (s *ItemStore) SetHidden(itemID string, hidden bool, actorID string) error {
	return s.setFlag(itemID, "is_hidden", hidden, actorID)
}

func (s *ItemStore) setFlag(itemID, column string, value bool, actorID string) error {
	it, err := s.GetByID(itemID)
	if err != nil {
		return err
	}
	if it == nil {
		return errs.NotFound("item not found")
	}
	if err := s.requireRole(it.StoreID, actorID, access.RoleEditor); err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE store_items SET `+column+` = ?, updated_at = datetime('now') WHERE id = ?`,
		boolInt(value), itemID,
	)
	if err != nil {
		return fmt.Errorf("update item flag: %w", err)
	}
	return nil
}

// Delete removes the catalog item. List entries referencing it cascade away
// with it.
func (s *ItemStore) Delete(itemID, actorID string) error {
	it, err := s.GetByID(itemID)
	if err != nil {
		return err
	}
	if it == nil {
		return errs.NotFound("item not found")
	}
	if err := s.requireRole(it.StoreID, actorID, access.RoleEditor); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM store_items WHERE id = ?`, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ListUnits returns the seeded quantity-unit catalog.
func (s *ItemStore) ListUnits() ([]model.Unit, error) {
	rows, err := s.db.Query(`SELECT id, name, abbrev, sort_order FROM units ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Abbrev, &u.SortOrder); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
