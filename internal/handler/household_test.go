package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/database"
	"github.com/rsheldon/bramble/internal/store"
)

func setupHouseholdHandlerTest(t *testing.T) (*HouseholdHandler, *store.HouseholdStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hs := store.NewHouseholdStore(db)
	return NewHouseholdHandler(hs, slog.Default()), hs, store.NewUserStore(db)
}

func newHouseholdRequest(userID, method, path, householdID, body string) (*httptest.ResponseRecorder, *http.Request) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.SetPathValue("id", householdID)
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{UserID: userID})
	return httptest.NewRecorder(), req.WithContext(ctx)
}

func TestHouseholdGetByRole(t *testing.T) {
	h, hs, us := setupHouseholdHandlerTest(t)
	alice := createTestUser(t, us, "alice@example.com")
	bob := createTestUser(t, us, "bob@example.com")
	mallory := createTestUser(t, us, "mallory@example.com")

	household, err := hs.Create("Baggins", alice.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := hs.AddMember(household.ID, bob.ID, access.RoleViewer); err != nil {
		t.Fatalf("add viewer: %v", err)
	}

	rec, req := newHouseholdRequest(bob.ID, "GET", "/api/households/"+household.ID, household.ID, "")
	h.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("viewer get status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Non-members must not learn the household exists.
	rec, req = newHouseholdRequest(mallory.ID, "GET", "/api/households/"+household.ID, household.ID, "")
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("outsider get status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHouseholdUpdateRequiresEditor(t *testing.T) {
	h, hs, us := setupHouseholdHandlerTest(t)
	alice := createTestUser(t, us, "alice@example.com")
	bob := createTestUser(t, us, "bob@example.com")

	household, err := hs.Create("Baggins", alice.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := hs.AddMember(household.ID, bob.ID, access.RoleViewer); err != nil {
		t.Fatalf("add viewer: %v", err)
	}

	rec, req := newHouseholdRequest(bob.ID, "PUT", "/api/households/"+household.ID, household.ID, `{"name":"Brandybuck"}`)
	h.Update(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer update status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec, req = newHouseholdRequest(alice.ID, "PUT", "/api/households/"+household.ID, household.ID, `{"name":"Brandybuck"}`)
	h.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("owner update status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestHouseholdDeleteRequiresOwner(t *testing.T) {
	h, hs, us := setupHouseholdHandlerTest(t)
	alice := createTestUser(t, us, "alice@example.com")
	bob := createTestUser(t, us, "bob@example.com")

	household, err := hs.Create("Baggins", alice.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := hs.AddMember(household.ID, bob.ID, access.RoleEditor); err != nil {
		t.Fatalf("add editor: %v", err)
	}

	rec, req := newHouseholdRequest(bob.ID, "DELETE", "/api/households/"+household.ID, household.ID, "")
	h.Delete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("editor delete status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec, req = newHouseholdRequest(alice.ID, "DELETE", "/api/households/"+household.ID, household.ID, "")
	h.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("owner delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}
