package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
)

// InvitationStore manages the pending-invitation lifecycle for both scopes.
// Invitations have no terminal states: accept, decline and retract all
// delete the row.
type InvitationStore struct {
	db         *sql.DB
	households *HouseholdStore
	stores     *StoreStore
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{
		db:         db,
		households: NewHouseholdStore(db),
		stores:     NewStoreStore(db),
	}
}

func scanHouseholdInvitation(scanner interface{ Scan(...any) error }) (*model.HouseholdInvitation, error) {
	var inv model.HouseholdInvitation
	err := scanner.Scan(&inv.ID, &inv.HouseholdID, &inv.InvitedEmail, &inv.InvitedBy, &inv.Role, &inv.Token, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanStoreInvitation(scanner interface{ Scan(...any) error }) (*model.StoreInvitation, error) {
	var inv model.StoreInvitation
	err := scanner.Scan(&inv.ID, &inv.StoreID, &inv.InvitedEmail, &inv.InvitedBy, &inv.Role, &inv.Token, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const householdInvitationCols = `id, household_id, invited_email, invited_by, role, token, created_at`
const storeInvitationCols = `id, store_id, invited_email, invited_by, role, token, created_at`

func validateInviteEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return errs.Validation("invalid email address")
	}
	return nil
}

// --- Household invitations ---

// CreateHouseholdInvitation creates a pending invitation. The inviter must
// be at least an editor; granting the owner role requires an owner. Fails
// CONFLICT when a pending invitation for the email already exists or the
// email already belongs to a member.
func (s *InvitationStore) CreateHouseholdInvitation(householdID, email string, role access.Role, inviterID string) (*model.HouseholdInvitation, error) {
	email = NormalizeEmail(email)
	if err := validateInviteEmail(email); err != nil {
		return nil, err
	}
	if !access.ValidHouseholdRole(role) {
		return nil, errs.Validation("invalid household role %q", role)
	}

	inviter, err := s.households.GetMember(householdID, inviterID)
	if err != nil {
		return nil, err
	}
	if inviter == nil {
		return nil, errs.NotFound("household not found")
	}
	if !access.CanInviteMembers(access.Role(inviter.Role)) {
		return nil, errs.Forbidden("editor role required to invite")
	}
	if role == access.RoleOwner && !access.CanManageRoles(access.Role(inviter.Role)) {
		return nil, errs.Forbidden("owner role required to invite an owner")
	}

	var exists int
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM household_invitations WHERE household_id = ? AND invited_email = ?`,
		householdID, email,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check pending invitation: %w", err)
	}
	if exists > 0 {
		return nil, errs.Conflict("an invitation for %s is already pending", email)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM household_members hm JOIN users u ON hm.user_id = u.id
		 WHERE hm.household_id = ? AND u.email_norm = ?`,
		householdID, email,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check existing member: %w", err)
	}
	if exists > 0 {
		return nil, errs.Conflict("%s is already a member", email)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO household_invitations (id, household_id, invited_email, invited_by, role, token) VALUES (?, ?, ?, ?, ?, ?)`,
		id, householdID, email, inviterID, string(role), uuid.NewString(),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, errs.Conflict("an invitation for %s is already pending", email)
		}
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+householdInvitationCols+` FROM household_invitations WHERE id = ?`, id)
	return scanHouseholdInvitation(row)
}

func (s *InvitationStore) getHouseholdInvitationByToken(token string) (*model.HouseholdInvitation, error) {
	row := s.db.QueryRow(`SELECT `+householdInvitationCols+` FROM household_invitations WHERE token = ?`, token)
	inv, err := scanHouseholdInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}
	return inv, nil
}

// AcceptHouseholdInvitation consumes the invitation: inserts the membership
// and deletes the invitation row in one transaction. The authenticated email
// must match the invited email case-insensitively.
func (s *InvitationStore) AcceptHouseholdInvitation(token, userID, userEmail string) (*model.HouseholdMember, error) {
	inv, err := s.getHouseholdInvitationByToken(token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errs.NotFound("invitation not found")
	}
	if inv.InvitedEmail != NormalizeEmail(userEmail) {
		return nil, errs.Forbidden("invitation was issued to a different email")
	}

	existing, err := s.households.GetMember(inv.HouseholdID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Conflict("already a member of this household")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	memberID := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO household_members (id, household_id, user_id, role) VALUES (?, ?, ?, ?)`,
		memberID, inv.HouseholdID, userID, inv.Role,
	); err != nil {
		if isConstraintViolation(err) {
			return nil, errs.Conflict("already a member of this household")
		}
		return nil, fmt.Errorf("insert membership: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM household_invitations WHERE id = ?`, inv.ID); err != nil {
		return nil, fmt.Errorf("delete invitation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.households.GetMember(inv.HouseholdID, userID)
}

// DeclineHouseholdInvitation deletes the invitation after the same
// email-match check as accept.
func (s *InvitationStore) DeclineHouseholdInvitation(token, userEmail string) error {
	inv, err := s.getHouseholdInvitationByToken(token)
	if err != nil {
		return err
	}
	if inv == nil {
		return errs.NotFound("invitation not found")
	}
	if inv.InvitedEmail != NormalizeEmail(userEmail) {
		return errs.Forbidden("invitation was issued to a different email")
	}
	if _, err := s.db.Exec(`DELETE FROM household_invitations WHERE id = ?`, inv.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// RetractHouseholdInvitation deletes a pending invitation. Only the original
// inviter or a household owner may retract.
func (s *InvitationStore) RetractHouseholdInvitation(invitationID, actingUserID string) error {
	row := s.db.QueryRow(`SELECT `+householdInvitationCols+` FROM household_invitations WHERE id = ?`, invitationID)
	inv, err := scanHouseholdInvitation(row)
	if err == sql.ErrNoRows {
		return errs.NotFound("invitation not found")
	}
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}

	if inv.InvitedBy != actingUserID {
		member, err := s.households.GetMember(inv.HouseholdID, actingUserID)
		if err != nil {
			return err
		}
		if member == nil {
			return errs.NotFound("invitation not found")
		}
		if !access.CanManageRoles(access.Role(member.Role)) {
			return errs.Forbidden("only the inviter or an owner may retract")
		}
	}

	if _, err := s.db.Exec(`DELETE FROM household_invitations WHERE id = ?`, inv.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// ListHouseholdInvitations returns pending invitations for a household.
// Visibility is membership-gated.
func (s *InvitationStore) ListHouseholdInvitations(householdID, actingUserID string) ([]model.HouseholdInvitation, error) {
	member, err := s.households.GetMember(householdID, actingUserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errs.NotFound("household not found")
	}

	rows, err := s.db.Query(
		`SELECT `+householdInvitationCols+` FROM household_invitations WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invs []model.HouseholdInvitation
	for rows.Next() {
		inv, err := scanHouseholdInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

// --- Store invitations ---

// CreateStoreInvitation creates a pending invitation to collaborate on a
// store. Any collaborator (or inherited editor+) may invite; granting the
// owner role requires an owner-equivalent actor.
func (s *InvitationStore) CreateStoreInvitation(storeID, email string, role access.Role, inviterID string) (*model.StoreInvitation, error) {
	email = NormalizeEmail(email)
	if err := validateInviteEmail(email); err != nil {
		return nil, err
	}
	if !access.ValidStoreRole(role) {
		return nil, errs.Validation("invalid store role %q", role)
	}

	inviterRole, err := s.stores.ResolveRole(storeID, inviterID)
	if err != nil {
		return nil, err
	}
	if inviterRole == nil {
		return nil, errs.NotFound("store not found")
	}
	if !access.CanInviteMembers(*inviterRole) {
		return nil, errs.Forbidden("editor role required to invite")
	}
	if role == access.RoleOwner && !access.CanManageRoles(*inviterRole) {
		return nil, errs.Forbidden("owner role required to invite an owner")
	}

	var exists int
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM store_invitations WHERE store_id = ? AND invited_email = ?`,
		storeID, email,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check pending invitation: %w", err)
	}
	if exists > 0 {
		return nil, errs.Conflict("an invitation for %s is already pending", email)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM store_collaborators sc JOIN users u ON sc.user_id = u.id
		 WHERE sc.store_id = ? AND u.email_norm = ?`,
		storeID, email,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check existing collaborator: %w", err)
	}
	if exists > 0 {
		return nil, errs.Conflict("%s is already a collaborator", email)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO store_invitations (id, store_id, invited_email, invited_by, role, token) VALUES (?, ?, ?, ?, ?, ?)`,
		id, storeID, email, inviterID, string(role), uuid.NewString(),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, errs.Conflict("an invitation for %s is already pending", email)
		}
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+storeInvitationCols+` FROM store_invitations WHERE id = ?`, id)
	return scanStoreInvitation(row)
}

func (s *InvitationStore) getStoreInvitationByToken(token string) (*model.StoreInvitation, error) {
	row := s.db.QueryRow(`SELECT `+storeInvitationCols+` FROM store_invitations WHERE token = ?`, token)
	inv, err := scanStoreInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}
	return inv, nil
}

// AcceptStoreInvitation consumes the invitation: inserts the collaborator
// and deletes the invitation row in one transaction.
func (s *InvitationStore) AcceptStoreInvitation(token, userID, userEmail string) (*model.StoreCollaborator, error) {
	inv, err := s.getStoreInvitationByToken(token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errs.NotFound("invitation not found")
	}
	if inv.InvitedEmail != NormalizeEmail(userEmail) {
		return nil, errs.Forbidden("invitation was issued to a different email")
	}

	existing, err := s.stores.GetCollaborator(inv.StoreID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Conflict("already a collaborator on this store")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO store_collaborators (id, store_id, user_id, role) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), inv.StoreID, userID, inv.Role,
	); err != nil {
		if isConstraintViolation(err) {
			return nil, errs.Conflict("already a collaborator on this store")
		}
		return nil, fmt.Errorf("insert collaborator: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM store_invitations WHERE id = ?`, inv.ID); err != nil {
		return nil, fmt.Errorf("delete invitation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.stores.GetCollaborator(inv.StoreID, userID)
}

func (s *InvitationStore) DeclineStoreInvitation(token, userEmail string) error {
	inv, err := s.getStoreInvitationByToken(token)
	if err != nil {
		return err
	}
	if inv == nil {
		return errs.NotFound("invitation not found")
	}
	if inv.InvitedEmail != NormalizeEmail(userEmail) {
		return errs.Forbidden("invitation was issued to a different email")
	}
	if _, err := s.db.Exec(`DELETE FROM store_invitations WHERE id = ?`, inv.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

func (s *InvitationStore) RetractStoreInvitation(invitationID, actingUserID string) error {
	row := s.db.QueryRow(`SELECT `+storeInvitationCols+` FROM store_invitations WHERE id = ?`, invitationID)
	inv, err := scanStoreInvitation(row)
	if err == sql.ErrNoRows {
		return errs.NotFound("invitation not found")
	}
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}

	if inv.InvitedBy != actingUserID {
		role, err := s.stores.ResolveRole(inv.StoreID, actingUserID)
		if err != nil {
			return err
		}
		if role == nil {
			return errs.NotFound("invitation not found")
		}
		if !access.CanManageRoles(*role) {
			return errs.Forbidden("only the inviter or an owner may retract")
		}
	}

	if _, err := s.db.Exec(`DELETE FROM store_invitations WHERE id = ?`, inv.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// ListStoreInvitations returns pending invitations for a store, visible to
// anyone with a role on it.
func (s *InvitationStore) ListStoreInvitations(storeID, actingUserID string) ([]model.StoreInvitation, error) {
	role, err := s.stores.ResolveRole(storeID, actingUserID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errs.NotFound("store not found")
	}

	rows, err := s.db.Query(
		`SELECT `+storeInvitationCols+` FROM store_invitations WHERE store_id = ? ORDER BY created_at ASC`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invs []model.StoreInvitation
	for rows.Next() {
		inv, err := scanStoreInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

// --- Cross-scope reads ---

// ListPendingForEmail returns all pending invitations addressed to the
// email, across both scopes.
func (s *InvitationStore) ListPendingForEmail(email string) ([]model.HouseholdInvitation, []model.StoreInvitation, error) {
	norm := NormalizeEmail(email)

	hRows, err := s.db.Query(
		`SELECT `+householdInvitationCols+` FROM household_invitations WHERE invited_email = ? ORDER BY created_at ASC`,
		norm,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("list household invitations: %w", err)
	}
	defer hRows.Close()

	var hInvs []model.HouseholdInvitation
	for hRows.Next() {
		inv, err := scanHouseholdInvitation(hRows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan invitation: %w", err)
		}
		hInvs = append(hInvs, *inv)
	}
	if err := hRows.Err(); err != nil {
		return nil, nil, err
	}

	sRows, err := s.db.Query(
		`SELECT `+storeInvitationCols+` FROM store_invitations WHERE invited_email = ? ORDER BY created_at ASC`,
		norm,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("list store invitations: %w", err)
	}
	defer sRows.Close()

	var sInvs []model.StoreInvitation
	for sRows.Next() {
		inv, err := scanStoreInvitation(sRows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan invitation: %w", err)
		}
		sInvs = append(sInvs, *inv)
	}
	return hInvs, sInvs, sRows.Err()
}

// CountsForEmail derives the pending-invitation badge counts for a user
// email. Recomputed per call; clients poll.
func (s *InvitationStore) CountsForEmail(email string) (model.NotificationCounts, error) {
	norm := NormalizeEmail(email)
	var counts model.NotificationCounts

	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM household_invitations WHERE invited_email = ?`, norm,
	).Scan(&counts.HouseholdInvitations)
	if err != nil {
		return counts, fmt.Errorf("count household invitations: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM store_invitations WHERE invited_email = ?`, norm,
	).Scan(&counts.StoreInvitations)
	if err != nil {
		return counts, fmt.Errorf("count store invitations: %w", err)
	}
	return counts, nil
}
