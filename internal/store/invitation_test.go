package store

import (
	"sync"
	"testing"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/database"
	"github.com/rsheldon/bramble/internal/errs"
)

func setupInvitationTestDB(t *testing.T) (*InvitationStore, *HouseholdStore, *StoreStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewInvitationStore(db), NewHouseholdStore(db), NewStoreStore(db), NewUserStore(db)
}

func TestHouseholdInvitationRoundTrip(t *testing.T) {
	is, hs, _, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)

	inv, err := is.CreateHouseholdInvitation(h.ID, "Bob@Example.com", access.RoleEditor, alice.ID)
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if inv.InvitedEmail != "bob@example.com" {
		t.Errorf("invited email = %q, want normalized", inv.InvitedEmail)
	}
	if inv.Token == "" {
		t.Error("expected non-empty token")
	}

	m, err := is.AcceptHouseholdInvitation(inv.Token, bob.ID, bob.Email)
	if err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if m.Role != string(access.RoleEditor) {
		t.Errorf("role = %q, want editor", m.Role)
	}

	// Accept consumed the invitation, so the token is gone.
	_, err = is.AcceptHouseholdInvitation(inv.Token, bob.ID, bob.Email)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("second accept: kind = %v, want not found", errs.KindOf(err))
	}
}

func TestHouseholdInvitationEmailMismatch(t *testing.T) {
	is, hs, _, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	carol := mustCreateUser(t, us, "carol@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)
	inv, _ := is.CreateHouseholdInvitation(h.ID, "bob@example.com", access.RoleEditor, alice.ID)

	_, err := is.AcceptHouseholdInvitation(inv.Token, carol.ID, carol.Email)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("mismatched accept: kind = %v, want forbidden", errs.KindOf(err))
	}

	// The invitation survives the failed attempt.
	if _, hErr := is.getHouseholdInvitationByToken(inv.Token); hErr != nil {
		t.Fatalf("token lookup after failed accept: %v", hErr)
	}
}

func TestHouseholdInvitationConflicts(t *testing.T) {
	is, hs, _, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)
	hs.AddMember(h.ID, bob.ID, access.RoleViewer)

	// Existing member.
	_, err := is.CreateHouseholdInvitation(h.ID, bob.Email, access.RoleEditor, alice.ID)
	if errs.KindOf(err) != errs.KindConflict {
		t.Errorf("invite existing member: kind = %v, want conflict", errs.KindOf(err))
	}

	// Duplicate pending.
	if _, err := is.CreateHouseholdInvitation(h.ID, "carol@example.com", access.RoleEditor, alice.ID); err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	_, err = is.CreateHouseholdInvitation(h.ID, "carol@example.com", access.RoleViewer, alice.ID)
	if errs.KindOf(err) != errs.KindConflict {
		t.Errorf("duplicate pending: kind = %v, want conflict", errs.KindOf(err))
	}
}

func TestHouseholdInvitationInviterThreshold(t *testing.T) {
	is, hs, _, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)
	hs.AddMember(h.ID, bob.ID, access.RoleViewer)

	_, err := is.CreateHouseholdInvitation(h.ID, "carol@example.com", access.RoleEditor, bob.ID)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("viewer inviting: kind = %v, want forbidden", errs.KindOf(err))
	}

	// Editors may invite but not grant owner.
	hs.SetMemberRole(h.ID, bob.ID, access.RoleEditor, alice.ID)
	_, err = is.CreateHouseholdInvitation(h.ID, "carol@example.com", access.RoleOwner, bob.ID)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("editor granting owner: kind = %v, want forbidden", errs.KindOf(err))
	}
	if _, err := is.CreateHouseholdInvitation(h.ID, "carol@example.com", access.RoleEditor, bob.ID); err != nil {
		t.Fatalf("editor inviting editor: %v", err)
	}
}

func TestHouseholdInvitationAlreadyMember(t *testing.T) {
	is, hs, _, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)
	inv, _ := is.CreateHouseholdInvitation(h.ID, bob.Email, access.RoleEditor, alice.ID)

	// Bob joins through another path before accepting.
	hs.AddMember(h.ID, bob.ID, access.RoleViewer)

	_, err := is.AcceptHouseholdInvitation(inv.Token, bob.ID, bob.Email)
	if errs.KindOf(err) != errs.KindConflict {
		t.Errorf("accept as member: kind = %v, want conflict", errs.KindOf(err))
	}
}

func TestHouseholdInvitationDeclineAndRetract(t *testing.T) {
	is, hs, _, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)

	inv, _ := is.CreateHouseholdInvitation(h.ID, bob.Email, access.RoleEditor, alice.ID)
	if err := is.DeclineHouseholdInvitation(inv.Token, bob.Email); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if m, _ := hs.GetMember(h.ID, bob.ID); m != nil {
		t.Error("decline must not create a membership")
	}

	inv, _ = is.CreateHouseholdInvitation(h.ID, bob.Email, access.RoleEditor, alice.ID)
	if err := is.RetractHouseholdInvitation(inv.ID, alice.ID); err != nil {
		t.Fatalf("retract by inviter: %v", err)
	}
	_, err := is.AcceptHouseholdInvitation(inv.Token, bob.ID, bob.Email)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("accept after retract: kind = %v, want not found", errs.KindOf(err))
	}

	// A stranger cannot retract what they cannot see.
	inv, _ = is.CreateHouseholdInvitation(h.ID, bob.Email, access.RoleEditor, alice.ID)
	err = is.RetractHouseholdInvitation(inv.ID, bob.ID)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("retract by outsider: kind = %v, want not found", errs.KindOf(err))
	}
}

func TestStoreInvitationRoundTrip(t *testing.T) {
	is, _, ss, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	st, _ := ss.Create("Corner Market", nil, alice.ID)

	inv, err := is.CreateStoreInvitation(st.ID, bob.Email, access.RoleEditor, alice.ID)
	if err != nil {
		t.Fatalf("create store invitation: %v", err)
	}

	c, err := is.AcceptStoreInvitation(inv.Token, bob.ID, bob.Email)
	if err != nil {
		t.Fatalf("accept store invitation: %v", err)
	}
	if c.Role != string(access.RoleEditor) {
		t.Errorf("role = %q, want editor", c.Role)
	}

	role, _ := ss.ResolveRole(st.ID, bob.ID)
	if role == nil || *role != access.RoleEditor {
		t.Errorf("resolved role = %v, want editor", role)
	}
}

func TestStoreInvitationViewerRoleRejected(t *testing.T) {
	is, _, ss, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")

	st, _ := ss.Create("Corner Market", nil, alice.ID)

	_, err := is.CreateStoreInvitation(st.ID, "bob@example.com", access.RoleViewer, alice.ID)
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("viewer store role: kind = %v, want validation", errs.KindOf(err))
	}
}

func TestNotificationCounts(t *testing.T) {
	is, hs, ss, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)
	st, _ := ss.Create("Corner Market", nil, alice.ID)

	is.CreateHouseholdInvitation(h.ID, bob.Email, access.RoleEditor, alice.ID)
	sInv, _ := is.CreateStoreInvitation(st.ID, bob.Email, access.RoleEditor, alice.ID)

	counts, err := is.CountsForEmail("BOB@example.com")
	if err != nil {
		t.Fatalf("counts for email: %v", err)
	}
	if counts.HouseholdInvitations != 1 || counts.StoreInvitations != 1 {
		t.Errorf("counts = %+v, want 1/1", counts)
	}

	// Consuming an invitation drops its badge immediately.
	if _, err := is.AcceptStoreInvitation(sInv.Token, bob.ID, bob.Email); err != nil {
		t.Fatalf("accept: %v", err)
	}
	counts, _ = is.CountsForEmail(bob.Email)
	if counts.StoreInvitations != 0 {
		t.Errorf("store count after accept = %d, want 0", counts.StoreInvitations)
	}
	if counts.HouseholdInvitations != 1 {
		t.Errorf("household count = %d, want 1", counts.HouseholdInvitations)
	}

	hInvs, sInvs, err := is.ListPendingForEmail(bob.Email)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(hInvs) != 1 || len(sInvs) != 0 {
		t.Errorf("pending = %d household, %d store; want 1, 0", len(hInvs), len(sInvs))
	}
}

func TestInvitationConcurrentDuplicateCreate(t *testing.T) {
	is, hs, _, us := setupInvitationTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.Create("Smith Family", alice.ID)

	// Racing identical creates must end with exactly one pending row, and
	// every loser must see a conflict, never an internal error.
	const n = 8
	errc := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errc[i] = is.CreateHouseholdInvitation(h.ID, "bob@example.com", access.RoleEditor, alice.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	for i, err := range errc {
		switch {
		case err == nil:
			created++
		case errs.KindOf(err) == errs.KindConflict:
		default:
			t.Errorf("goroutine %d: kind = %v (%v), want conflict", i, errs.KindOf(err), err)
		}
	}
	if created != 1 {
		t.Errorf("%d creates succeeded, want 1", created)
	}

	invs, err := is.ListHouseholdInvitations(h.ID, alice.ID)
	if err != nil {
		t.Fatalf("list invitations: %v", err)
	}
	if len(invs) != 1 {
		t.Errorf("got %d pending invitations, want 1", len(invs))
	}
}
