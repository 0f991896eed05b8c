package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
)

// AisleStore manages a store's aisle and section layout. Reads need any
// role on the store; mutations need editor or better.
type AisleStore struct {
	db     *sql.DB
	stores *StoreStore
}

func NewAisleStore(db *sql.DB) *AisleStore {
	return &AisleStore{db: db, stores: NewStoreStore(db)}
}

const aisleCols = `id, store_id, name, sort_order, created_at`
const sectionCols = `id, store_id, aisle_id, name, sort_order, created_at`

func scanAisle(scanner interface{ Scan(...any) error }) (*model.StoreAisle, error) {
	var a model.StoreAisle
	err := scanner.Scan(&a.ID, &a.StoreID, &a.Name, &a.SortOrder, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanSection(scanner interface{ Scan(...any) error }) (*model.StoreSection, error) {
	var sec model.StoreSection
	err := scanner.Scan(&sec.ID, &sec.StoreID, &sec.AisleID, &sec.Name, &sec.SortOrder, &sec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// requireRole resolves the actor's effective role on the store and checks
// it against the minimum. No relationship at all reads as NOT_FOUND.
func (s *AisleStore) requireRole(storeID, userID string, min access.Role) error {
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

func (s *AisleStore) CreateAisle(storeID, name, actorID string) (*model.StoreAisle, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := s.requireRole(storeID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO store_aisles (id, store_id, name, sort_order)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM store_aisles WHERE store_id = ?))`,
		id, storeID, name, storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert aisle: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+aisleCols+` FROM store_aisles WHERE id = ?`, id)
	return scanAisle(row)
}

func (s *AisleStore) getAisle(aisleID string) (*model.StoreAisle, error) {
	row := s.db.QueryRow(`SELECT `+aisleCols+` FROM store_aisles WHERE id = ?`, aisleID)
	a, err := scanAisle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get aisle: %w", err)
	}
	return a, nil
}

func (s *AisleStore) UpdateAisle(aisleID, name, actorID string) (*model.StoreAisle, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	a, err := s.getAisle(aisleID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errs.NotFound("aisle not found")
	}
	if err := s.requireRole(a.StoreID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`UPDATE store_aisles SET name = ? WHERE id = ?`, name, aisleID); err != nil {
		return nil, fmt.Errorf("update aisle: %w", err)
	}
	return s.getAisle(aisleID)
}

// DeleteAisle removes the aisle and its sections. Items assigned to the
// aisle fall back to unassigned via the schema's ON DELETE SET NULL.
func (s *AisleStore) DeleteAisle(aisleID, actorID string) error {
	a, err := s.getAisle(aisleID)
	if err != nil {
		return err
	}
	if a == nil {
		return errs.NotFound("aisle not found")
	}
	if err := s.requireRole(a.StoreID, actorID, access.RoleEditor); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM store_aisles WHERE id = ?`, aisleID); err != nil {
		return fmt.Errorf("delete aisle: %w", err)
	}
	return nil
}

func (s *AisleStore) ListAisles(storeID, actorID string) ([]model.StoreAisle, error) {
	if err := s.requireRole(storeID, actorID, access.RoleViewer); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT `+aisleCols+` FROM store_aisles WHERE store_id = ? ORDER BY sort_order ASC, name ASC`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list aisles: %w", err)
	}
	defer rows.Close()

	var aisles []model.StoreAisle
	for rows.Next() {
		a, err := scanAisle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aisle: %w", err)
		}
		aisles = append(aisles, *a)
	}
	return aisles, rows.Err()
}

func (s *AisleStore) CreateSection(storeID, aisleID, name, actorID string) (*model.StoreSection, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := s.requireRole(storeID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}
	a, err := s.getAisle(aisleID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.StoreID != storeID {
		return nil, errs.Validation("aisle does not belong to this store")
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO store_sections (id, store_id, aisle_id, name, sort_order)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM store_sections WHERE aisle_id = ?))`,
		id, storeID, aisleID, name, aisleID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert section: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sectionCols+` FROM store_sections WHERE id = ?`, id)
	return scanSection(row)
}

func (s *AisleStore) getSection(sectionID string) (*model.StoreSection, error) {
	row := s.db.QueryRow(`SELECT `+sectionCols+` FROM store_sections WHERE id = ?`, sectionID)
	sec, err := scanSection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get section: %w", err)
	}
	return sec, nil
}

func (s *AisleStore) UpdateSection(sectionID, name, actorID string) (*model.StoreSection, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	sec, err := s.getSection(sectionID)
	if err != nil {
		return nil, err
	}
	if sec == nil {
		return nil, errs.NotFound("section not found")
	}
	if err := s.requireRole(sec.StoreID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`UPDATE store_sections SET name = ? WHERE id = ?`, name, sectionID); err != nil {
		return nil, fmt.Errorf("update section: %w", err)
	}
	return s.getSection(sectionID)
}

func (s *AisleStore) DeleteSection(sectionID, actorID string) error {
	sec, err := s.getSection(sectionID)
	if err != nil {
		return err
	}
	if sec == nil {
		return errs.NotFound("section not found")
	}
	if err := s.requireRole(sec.StoreID, actorID, access.RoleEditor); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM store_sections WHERE id = ?`, sectionID); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

func (s *AisleStore) ListSections(storeID, actorID string) ([]model.StoreSection, error) {
	if err := s.requireRole(storeID, actorID, access.RoleViewer); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT `+sectionCols+` FROM store_sections WHERE store_id = ? ORDER BY sort_order ASC, name ASC`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []model.StoreSection
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, *sec)
	}
	return sections, rows.Err()
}

// ReorderAisles applies a batch of sort-order updates in one transaction.
// Every id must belong to the store or the whole batch fails VALIDATION.
func (s *AisleStore) ReorderAisles(storeID string, updates []model.SortUpdate, actorID string) error {
	if err := s.requireRole(storeID, actorID, access.RoleEditor); err != nil {
		return err
	}
	return s.reorder(storeID, "store_aisles", updates)
}

// ReorderSections is the section counterpart of ReorderAisles.
func (s *AisleStore) ReorderSections(storeID string, updates []model.SortUpdate, actorID string) error {
	if err := s.requireRole(storeID, actorID, access.RoleEditor); err != nil {
		return err
	}
	return s.reorder(storeID, "store_sections", updates)
}

func (s *AisleStore) reorder(storeID, table string, updates []model.SortUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		res, err := tx.Exec(
			`UPDATE `+table+` SET sort_order = ? WHERE id = ? AND store_id = ?`,
			u.SortOrder, u.ID, storeID,
		)
		if err != nil {
			return fmt.Errorf("update sort order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return errs.Validation("id %s does not belong to this store", u.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
