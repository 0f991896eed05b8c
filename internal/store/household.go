package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatedBy, &h.UpdatedBy, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHouseholdMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, created_by, updated_by, created_at, updated_at`
const householdMemberCols = `id, household_id, user_id, role, created_at`

// Create inserts a household with the creator as its first owner, in one
// transaction.
func (s *HouseholdStore) Create(name, creatorID string) (*model.Household, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO households (id, name, created_by, updated_by) VALUES (?, ?, ?, ?)`,
		id, name, creatorID, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO household_members (id, household_id, user_id, role) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), id, creatorID, string(access.RoleOwner),
	); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(id, name, updaterID string) (*model.Household, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, updated_by = ?, updated_at = datetime('now') WHERE id = ?`,
		name, updaterID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

func (s *HouseholdStore) ListForUser(userID string) ([]model.Household, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.created_by, h.updated_by, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

// AddMember inserts a membership row. Invariant checks (duplicate member)
// surface as the table's unique constraint.
func (s *HouseholdStore) AddMember(householdID, userID string, role access.Role) (*model.HouseholdMember, error) {
	if !access.ValidHouseholdRole(role) {
		return nil, errs.Validation("invalid household role %q", role)
	}
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO household_members (id, household_id, user_id, role) VALUES (?, ?, ?, ?)`,
		id, householdID, userID, string(role),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, errs.Conflict("already a member of this household")
		}
		return nil, fmt.Errorf("add member: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+householdMemberCols+` FROM household_members WHERE id = ?`, id)
	return scanHouseholdMember(row)
}

func (s *HouseholdStore) GetMember(householdID, userID string) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) ListMembers(householdID string) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? ORDER BY created_at ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanHouseholdMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) CountOwners(householdID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM household_members WHERE household_id = ? AND role = 'owner'`,
		householdID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return count, nil
}

// SetMemberRole changes a member's role. The actor must be an owner of the
// household and may not change their own role. Demoting an owner is refused
// when it would leave the household without one; the owner-count check is
// embedded in the UPDATE itself so concurrent demotions cannot both pass.
func (s *HouseholdStore) SetMemberRole(householdID, targetUserID string, newRole access.Role, actingUserID string) (*model.HouseholdMember, error) {
	if !access.ValidHouseholdRole(newRole) {
		return nil, errs.Validation("invalid household role %q", newRole)
	}
	if err := s.requireOwner(householdID, actingUserID); err != nil {
		return nil, err
	}
	if targetUserID == actingUserID {
		return nil, errs.Forbidden("cannot change your own role")
	}

	result, err := s.db.Exec(
		`UPDATE household_members SET role = ?
		 WHERE household_id = ? AND user_id = ?
		   AND (role != 'owner' OR ? = 'owner'
		        OR (SELECT COUNT(*) FROM household_members WHERE household_id = ? AND role = 'owner') > 1)`,
		string(newRole), householdID, targetUserID, string(newRole), householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("set member role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		m, err := s.GetMember(householdID, targetUserID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errs.NotFound("member not found")
		}
		return nil, errs.Conflict("cannot remove the last owner")
	}
	return s.GetMember(householdID, targetUserID)
}

// RemoveMember removes another member. Same actor requirements and last-owner
// guard as SetMemberRole; members remove themselves through Leave.
func (s *HouseholdStore) RemoveMember(householdID, targetUserID, actingUserID string) error {
	if err := s.requireOwner(householdID, actingUserID); err != nil {
		return err
	}
	if targetUserID == actingUserID {
		return errs.Forbidden("cannot remove yourself; leave the household instead")
	}
	return s.guardedRemove(householdID, targetUserID)
}

// Leave removes the caller's own membership, refusing when they are the last
// owner of a household that still has members.
func (s *HouseholdStore) Leave(householdID, userID string) error {
	m, err := s.GetMember(householdID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return errs.NotFound("household not found")
	}
	return s.guardedRemove(householdID, userID)
}

func (s *HouseholdStore) guardedRemove(householdID, userID string) error {
	result, err := s.db.Exec(
		`DELETE FROM household_members
		 WHERE household_id = ? AND user_id = ?
		   AND (role != 'owner'
		        OR (SELECT COUNT(*) FROM household_members WHERE household_id = ? AND role = 'owner') > 1
		        OR (SELECT COUNT(*) FROM household_members WHERE household_id = ?) = 1)`,
		householdID, userID, householdID, householdID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		m, err := s.GetMember(householdID, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return errs.NotFound("member not found")
		}
		return errs.Conflict("cannot remove the last owner")
	}
	return nil
}

// requireOwner returns NotFound when the actor has no relationship to the
// household (existence is not confirmed to outsiders) and Forbidden when
// they are a member without the owner role.
func (s *HouseholdStore) requireOwner(householdID, actingUserID string) error {
	m, err := s.GetMember(householdID, actingUserID)
	if err != nil {
		return err
	}
	if m == nil {
		return errs.NotFound("household not found")
	}
	if !access.CanManageRoles(access.Role(m.Role)) {
		return errs.Forbidden("owner role required")
	}
	return nil
}

func validateName(name string) error {
	if len(name) < 1 || len(name) > 100 {
		return errs.Validation("name must be 1-100 characters")
	}
	return nil
}
