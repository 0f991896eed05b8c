package store

import (
	"testing"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/catalog"
	"github.com/rsheldon/bramble/internal/database"
	"github.com/rsheldon/bramble/internal/errs"
)

func setupStoreTestDB(t *testing.T) (*StoreStore, *HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStoreStore(db), NewHouseholdStore(db), NewUserStore(db)
}

func TestStoreCreateSeedsDefaultAisles(t *testing.T) {
	ss, _, us := setupStoreTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")

	st, err := ss.Create("Corner Market", nil, alice.ID)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if st.HouseholdID != nil {
		t.Error("expected private store to have nil household")
	}

	as := NewAisleStore(ss.db)
	aisles, err := as.ListAisles(st.ID, alice.ID)
	if err != nil {
		t.Fatalf("list aisles: %v", err)
	}
	if len(aisles) != len(catalog.DefaultAisles) {
		t.Fatalf("got %d aisles, want %d", len(aisles), len(catalog.DefaultAisles))
	}
	for i, want := range catalog.DefaultAisles {
		if aisles[i].Name != want {
			t.Errorf("aisle[%d] = %q, want %q", i, aisles[i].Name, want)
		}
	}
}

func TestStoreResolveRoleDirect(t *testing.T) {
	ss, _, us := setupStoreTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	st, _ := ss.Create("Corner Market", nil, alice.ID)

	role, err := ss.ResolveRole(st.ID, alice.ID)
	if err != nil {
		t.Fatalf("resolve creator role: %v", err)
	}
	if role == nil || *role != access.RoleOwner {
		t.Errorf("creator role = %v, want owner", role)
	}

	role, err = ss.ResolveRole(st.ID, bob.ID)
	if err != nil {
		t.Fatalf("resolve outsider role: %v", err)
	}
	if role != nil {
		t.Errorf("outsider role = %v, want nil", *role)
	}
}

func TestStoreResolveRoleInherited(t *testing.T) {
	ss, hs, us := setupStoreTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)
	hs.AddMember(h.ID, bob.ID, access.RoleViewer)
	st, _ := ss.Create("Corner Market", &h.ID, alice.ID)

	// Bob has no direct collaborator row but inherits viewer.
	role, err := ss.ResolveRole(st.ID, bob.ID)
	if err != nil {
		t.Fatalf("resolve inherited role: %v", err)
	}
	if role == nil || *role != access.RoleViewer {
		t.Errorf("inherited role = %v, want viewer", role)
	}

	// A direct editor grant wins over the inherited viewer role.
	if _, err := ss.AddCollaborator(st.ID, bob.ID, access.RoleEditor); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}
	role, _ = ss.ResolveRole(st.ID, bob.ID)
	if role == nil || *role != access.RoleEditor {
		t.Errorf("combined role = %v, want editor", role)
	}

	// The inherited role wins when it outranks the direct one.
	hs.SetMemberRole(h.ID, bob.ID, access.RoleOwner, alice.ID)
	role, _ = ss.ResolveRole(st.ID, bob.ID)
	if role == nil || *role != access.RoleOwner {
		t.Errorf("combined role = %v, want owner", role)
	}
}

func TestStoreResolveRoleUnknownStore(t *testing.T) {
	ss, _, us := setupStoreTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")

	_, err := ss.ResolveRole("no-such-store", alice.ID)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("kind = %v, want not found", errs.KindOf(err))
	}
}

func TestStoreListForUserDeduplicates(t *testing.T) {
	ss, hs, us := setupStoreTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	h, _ := hs.Create("Smith Family", alice.ID)
	hs.AddMember(h.ID, bob.ID, access.RoleEditor)
	st, _ := ss.Create("Corner Market", &h.ID, alice.ID)
	// Bob gets both an inherited role and a direct collaborator row.
	ss.AddCollaborator(st.ID, bob.ID, access.RoleEditor)

	stores, err := ss.ListForUser(bob.ID)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(stores) != 1 {
		t.Fatalf("got %d stores, want 1", len(stores))
	}
	if stores[0].ID != st.ID {
		t.Errorf("store id = %s, want %s", stores[0].ID, st.ID)
	}
}

func TestStoreCollaboratorLastOwnerGuard(t *testing.T) {
	ss, _, us := setupStoreTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")

	st, _ := ss.Create("Corner Market", nil, alice.ID)
	ss.AddCollaborator(st.ID, bob.ID, access.RoleEditor)

	err := ss.Leave(st.ID, alice.ID)
	if errs.KindOf(err) != errs.KindConflict {
		t.Errorf("last owner leave: kind = %v, want conflict", errs.KindOf(err))
	}

	if _, err := ss.SetCollaboratorRole(st.ID, bob.ID, access.RoleOwner, alice.ID); err != nil {
		t.Fatalf("promote bob: %v", err)
	}
	if err := ss.Leave(st.ID, alice.ID); err != nil {
		t.Fatalf("leave after promotion: %v", err)
	}

	n, _ := ss.CountOwners(st.ID)
	if n != 1 {
		t.Errorf("owner count = %d, want 1", n)
	}
}

func TestStoreSetCollaboratorRoleRequiresOwner(t *testing.T) {
	ss, _, us := setupStoreTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	bob := mustCreateUser(t, us, "bob@example.com")
	carol := mustCreateUser(t, us, "carol@example.com")

	st, _ := ss.Create("Corner Market", nil, alice.ID)
	ss.AddCollaborator(st.ID, bob.ID, access.RoleEditor)
	ss.AddCollaborator(st.ID, carol.ID, access.RoleEditor)

	_, err := ss.SetCollaboratorRole(st.ID, carol.ID, access.RoleOwner, bob.ID)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("editor setting roles: kind = %v, want forbidden", errs.KindOf(err))
	}
}
