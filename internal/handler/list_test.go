package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/database"
	"github.com/rsheldon/bramble/internal/model"
	"github.com/rsheldon/bramble/internal/store"
	"github.com/rsheldon/bramble/internal/websocket"
)

func setupListHandlerTest(t *testing.T) (*ListHandler, *store.StoreStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := websocket.NewHub(slog.Default())
	h := NewListHandler(store.NewListStore(db), store.NewItemStore(db), hub, slog.Default())
	return h, store.NewStoreStore(db), store.NewUserStore(db)
}

func createTestUser(t *testing.T, us *store.UserStore, email string) *model.User {
	t.Helper()
	u, err := us.Create(email, "Test User", "hash", nil)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func doUpsert(t *testing.T, userID, storeID string, body map[string]any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/stores/"+storeID+"/list", bytes.NewReader(payload))
	req.SetPathValue("id", storeID)
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{UserID: userID})
	return httptest.NewRecorder(), req.WithContext(ctx)
}

func TestListUpsertRawNameResolvesCatalogItem(t *testing.T) {
	h, ss, us := setupListHandlerTest(t)
	alice := createTestUser(t, us, "alice@example.com")
	st, _ := ss.Create("Corner Market", nil, alice.ID)

	rec, req := doUpsert(t, alice.ID, st.ID, map[string]any{"is_idea": false, "name": "Eggs"})
	h.Upsert(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var entry model.ListEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.IsIdea {
		t.Error("expected catalog-backed entry, got idea")
	}
	if entry.StoreItemID == nil {
		t.Fatal("expected store_item_id set for a catalog entry added by name")
	}

	// Re-adding by a normalization-equivalent name converges on the same
	// item and entry.
	rec2, req2 := doUpsert(t, alice.ID, st.ID, map[string]any{"is_idea": false, "name": "  eggs "})
	h.Upsert(rec2, req2)
	var entry2 model.ListEntry
	if err := json.Unmarshal(rec2.Body.Bytes(), &entry2); err != nil {
		t.Fatalf("decode second entry: %v", err)
	}
	if entry2.ID != entry.ID {
		t.Errorf("second add created entry %s, want merge into %s", entry2.ID, entry.ID)
	}
	if entry2.StoreItemID == nil || *entry2.StoreItemID != *entry.StoreItemID {
		t.Error("second add resolved to a different catalog item")
	}
}

func TestListUpsertIdeaStaysFreeText(t *testing.T) {
	h, ss, us := setupListHandlerTest(t)
	alice := createTestUser(t, us, "alice@example.com")
	st, _ := ss.Create("Corner Market", nil, alice.ID)

	rec, req := doUpsert(t, alice.ID, st.ID, map[string]any{"is_idea": true, "name": "something for the picnic"})
	h.Upsert(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var entry model.ListEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if !entry.IsIdea {
		t.Error("expected idea entry")
	}
	if entry.StoreItemID != nil {
		t.Error("idea must not reference a catalog item")
	}
}

func TestListUpsertExplicitItemID(t *testing.T) {
	h, ss, us := setupListHandlerTest(t)
	alice := createTestUser(t, us, "alice@example.com")
	st, _ := ss.Create("Corner Market", nil, alice.ID)

	item, err := h.items.CreateOrGet(st.ID, "Milk", nil, alice.ID)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}

	rec, req := doUpsert(t, alice.ID, st.ID, map[string]any{"store_item_id": item.ID, "qty": 2})
	h.Upsert(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var entry model.ListEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.StoreItemID == nil || *entry.StoreItemID != item.ID {
		t.Error("expected entry linked to the given catalog item")
	}
}
