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

type StoreStore struct {
	db *sql.DB
}

func NewStoreStore(db *sql.DB) *StoreStore {
	return &StoreStore{db: db}
}

func scanStore(scanner interface{ Scan(...any) error }) (*model.Store, error) {
	var st model.Store
	var householdID sql.NullString
	var hidden int
	err := scanner.Scan(&st.ID, &st.Name, &householdID, &hidden, &st.CreatedBy, &st.UpdatedBy, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if householdID.Valid {
		st.HouseholdID = &householdID.String
	}
	st.IsHidden = hidden != 0
	return &st, nil
}

func scanCollaborator(scanner interface{ Scan(...any) error }) (*model.StoreCollaborator, error) {
	var c model.StoreCollaborator
	err := scanner.Scan(&c.ID, &c.StoreID, &c.UserID, &c.Role, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const storeCols = `id, name, household_id, is_hidden, created_by, updated_by, created_at, updated_at`
const collaboratorCols = `id, store_id, user_id, role, created_at`

// Create inserts a store with the creator as its first owner-collaborator
// and seeds the default aisle layout, in one transaction.
func (s *StoreStore) Create(name string, householdID *string, creatorID string) (*model.Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	var hID sql.NullString
	if householdID != nil {
		hID = sql.NullString{String: *householdID, Valid: true}
	}
	if _, err := tx.Exec(
		`INSERT INTO stores (id, name, household_id, created_by, updated_by) VALUES (?, ?, ?, ?, ?)`,
		id, name, hID, creatorID, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert store: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO store_collaborators (id, store_id, user_id, role) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), id, creatorID, string(access.RoleOwner),
	); err != nil {
		return nil, fmt.Errorf("insert creator collaborator: %w", err)
	}
	for i, aisle := range catalog.DefaultAisles {
		if _, err := tx.Exec(
			`INSERT INTO store_aisles (id, store_id, name, sort_order) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), id, aisle, i+1,
		); err != nil {
			return nil, fmt.Errorf("seed aisle %q: %w", aisle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *StoreStore) GetByID(id string) (*model.Store, error) {
	row := s.db.QueryRow(`SELECT `+storeCols+` FROM stores WHERE id = ?`, id)
	st, err := scanStore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	return st, nil
}

func (s *StoreStore) Update(id, name string, isHidden bool, updaterID string) (*model.Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	_, err := s.db.Exec(
		`UPDATE stores SET name = ?, is_hidden = ?, updated_by = ?, updated_at = datetime('now') WHERE id = ?`,
		name, boolInt(isHidden), updaterID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}
	return s.GetByID(id)
}

func (s *StoreStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	return nil
}

// ListForUser returns every store the user can see: direct collaborations
// plus stores owned by households they belong to.
func (s *StoreStore) ListForUser(userID string) ([]model.Store, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT s.id, s.name, s.household_id, s.is_hidden, s.created_by, s.updated_by, s.created_at, s.updated_at
		 FROM stores s
		 LEFT JOIN store_collaborators sc ON s.id = sc.store_id AND sc.user_id = ?
		 LEFT JOIN household_members hm ON s.household_id = hm.household_id AND hm.user_id = ?
		 WHERE sc.id IS NOT NULL OR hm.id IS NOT NULL
		 ORDER BY s.name ASC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stores for user: %w", err)
	}
	defer rows.Close()

	var stores []model.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, *st)
	}
	return stores, rows.Err()
}

// ResolveRole combines the user's direct collaborator role with the role
// inherited from the owning household, taking the higher of the two. Returns
// nil when the user has no relationship to the store, and NotFound when the
// store itself does not exist.
func (s *StoreStore) ResolveRole(storeID, userID string) (*access.Role, error) {
	st, err := s.GetByID(storeID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errs.NotFound("store not found")
	}

	var direct *access.Role
	c, err := s.GetCollaborator(storeID, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		r := access.Role(c.Role)
		direct = &r
	}

	var inherited *access.Role
	if st.HouseholdID != nil {
		var role string
		err := s.db.QueryRow(
			`SELECT role FROM household_members WHERE household_id = ? AND user_id = ?`,
			*st.HouseholdID, userID,
		).Scan(&role)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("get inherited role: %w", err)
		}
		if err == nil {
			r := access.Role(role)
			inherited = &r
		}
	}

	return access.ResolveStoreRole(direct, inherited), nil
}

func (s *StoreStore) AddCollaborator(storeID, userID string, role access.Role) (*model.StoreCollaborator, error) {
	if !access.ValidStoreRole(role) {
		return nil, errs.Validation("invalid store role %q", role)
	}
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO store_collaborators (id, store_id, user_id, role) VALUES (?, ?, ?, ?)`,
		id, storeID, userID, string(role),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, errs.Conflict("already a collaborator on this store")
		}
		return nil, fmt.Errorf("add collaborator: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+collaboratorCols+` FROM store_collaborators WHERE id = ?`, id)
	return scanCollaborator(row)
}

func (s *StoreStore) GetCollaborator(storeID, userID string) (*model.StoreCollaborator, error) {
	row := s.db.QueryRow(
		`SELECT `+collaboratorCols+` FROM store_collaborators WHERE store_id = ? AND user_id = ?`,
		storeID, userID,
	)
	c, err := scanCollaborator(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collaborator: %w", err)
	}
	return c, nil
}

func (s *StoreStore) ListCollaborators(storeID string) ([]model.StoreCollaborator, error) {
	rows, err := s.db.Query(
		`SELECT `+collaboratorCols+` FROM store_collaborators WHERE store_id = ? ORDER BY created_at ASC, id ASC`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer rows.Close()

	var collaborators []model.StoreCollaborator
	for rows.Next() {
		c, err := scanCollaborator(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		collaborators = append(collaborators, *c)
	}
	return collaborators, rows.Err()
}

func (s *StoreStore) CountOwners(storeID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM store_collaborators WHERE store_id = ? AND role = 'owner'`,
		storeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return count, nil
}

// SetCollaboratorRole mirrors HouseholdStore.SetMemberRole: actor must hold
// an owner-equivalent role on the store (direct or inherited), self-change
// is refused, and the last-owner guard is part of the UPDATE.
func (s *StoreStore) SetCollaboratorRole(storeID, targetUserID string, newRole access.Role, actingUserID string) (*model.StoreCollaborator, error) {
	if !access.ValidStoreRole(newRole) {
		return nil, errs.Validation("invalid store role %q", newRole)
	}
	if err := s.requireOwner(storeID, actingUserID); err != nil {
		return nil, err
	}
	if targetUserID == actingUserID {
		return nil, errs.Forbidden("cannot change your own role")
	}

	result, err := s.db.Exec(
		`UPDATE store_collaborators SET role = ?
		 WHERE store_id = ? AND user_id = ?
		   AND (role != 'owner' OR ? = 'owner'
		        OR (SELECT COUNT(*) FROM store_collaborators WHERE store_id = ? AND role = 'owner') > 1)`,
		string(newRole), storeID, targetUserID, string(newRole), storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("set collaborator role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		c, err := s.GetCollaborator(storeID, targetUserID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, errs.NotFound("collaborator not found")
		}
		return nil, errs.Conflict("cannot remove the last owner")
	}
	return s.GetCollaborator(storeID, targetUserID)
}

func (s *StoreStore) RemoveCollaborator(storeID, targetUserID, actingUserID string) error {
	if err := s.requireOwner(storeID, actingUserID); err != nil {
		return err
	}
	if targetUserID == actingUserID {
		return errs.Forbidden("cannot remove yourself; leave the store instead")
	}
	return s.guardedRemoveCollaborator(storeID, targetUserID)
}

// Leave removes the caller's own collaboration, refusing when they are the
// last owner of a store that still has collaborators.
func (s *StoreStore) Leave(storeID, userID string) error {
	c, err := s.GetCollaborator(storeID, userID)
	if err != nil {
		return err
	}
	if c == nil {
		return errs.NotFound("store not found")
	}
	return s.guardedRemoveCollaborator(storeID, userID)
}

func (s *StoreStore) guardedRemoveCollaborator(storeID, userID string) error {
	result, err := s.db.Exec(
		`DELETE FROM store_collaborators
		 WHERE store_id = ? AND user_id = ?
		   AND (role != 'owner'
		        OR (SELECT COUNT(*) FROM store_collaborators WHERE store_id = ? AND role = 'owner') > 1
		        OR (SELECT COUNT(*) FROM store_collaborators WHERE store_id = ?) = 1)`,
		storeID, userID, storeID, storeID,
	)
	if err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		c, err := s.GetCollaborator(storeID, userID)
		if err != nil {
			return err
		}
		if c == nil {
			return errs.NotFound("collaborator not found")
		}
		return errs.Conflict("cannot remove the last owner")
	}
	return nil
}

func (s *StoreStore) requireOwner(storeID, actingUserID string) error {
	role, err := s.ResolveRole(storeID, actingUserID)
	if err != nil {
		return err
	}
	if role == nil {
		return errs.NotFound("store not found")
	}
	if !access.CanManageRoles(*role) {
		return errs.Forbidden("owner role required")
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
