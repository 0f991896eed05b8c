package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/model"
	"github.com/rsheldon/bramble/internal/store"
	"github.com/rsheldon/bramble/internal/websocket"
)

type ListHandler struct {
	lists  *store.ListStore
	items  *store.ItemStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewListHandler(ls *store.ListStore, is *store.ItemStore, hub *websocket.Hub, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		lists:  ls,
		items:  is,
		hub:    hub,
		logger: logger.With("component", "list"),
	}
}

type upsertEntryRequest struct {
	// Catalog entries carry store_item_id or, when adding by name, is_idea
	// false with a name to resolve against the catalog. Idea entries set
	// is_idea with a name.
	IsIdea      bool     `json:"is_idea"`
	Name        string   `json:"name"`
	StoreItemID *string  `json:"store_item_id"`
	Qty         *float64 `json:"qty"`
	UnitID      *string  `json:"unit_id"`
	Notes       string   `json:"notes"`
	IsSample    bool     `json:"is_sample"`
	IsUnsure    bool     `json:"is_unsure"`
}

func (h *ListHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	storeID := r.PathValue("id")
	actorID := auth.UserID(r.Context())

	var body model.EntryBody
	switch {
	case req.IsIdea:
		body = model.Idea{Name: req.Name}
	case req.StoreItemID != nil:
		body = model.CatalogRef{StoreItemID: *req.StoreItemID, Qty: req.Qty, UnitID: req.UnitID}
	default:
		// Catalog entry given only a raw name: resolve it to a catalog
		// item first so repeated adds converge on one entry.
		item, err := h.items.CreateOrGet(storeID, req.Name, nil, actorID)
		if err != nil {
			writeError(w, err)
			return
		}
		body = model.CatalogRef{StoreItemID: item.ID, Qty: req.Qty, UnitID: req.UnitID}
	}

	entry, err := h.lists.UpsertEntry(model.NewEntry{
		StoreID:  storeID,
		Body:     body,
		Notes:    req.Notes,
		IsSample: req.IsSample,
		IsUnsure: req.IsUnsure,
	}, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage("entry", "upserted", entry.ID, entry.StoreID, nil))
	writeJSON(w, http.StatusCreated, entry)
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	includeSnoozed := r.URL.Query().Get("include_snoozed") == "true"
	entries, err := h.lists.List(r.PathValue("id"), includeSnoozed, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.ListEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type setCheckedRequest struct {
	Checked bool `json:"checked"`
}

func (h *ListHandler) SetChecked(w http.ResponseWriter, r *http.Request) {
	var req setCheckedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.lists.SetChecked(r.PathValue("entryId"), req.Checked, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage("entry", "checked", entry.ID, entry.StoreID, map[string]any{
		"is_checked": entry.IsChecked,
	}))
	writeJSON(w, http.StatusOK, entry)
}

func (h *ListHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	n, err := h.lists.ClearChecked(storeID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage("entry", "cleared", "", storeID, map[string]any{
		"deleted": n,
	}))
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

type snoozeRequest struct {
	Until *time.Time `json:"until"`
}

func (h *ListHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	var req snoozeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.lists.Snooze(r.PathValue("entryId"), req.Until, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage("entry", "snoozed", entry.ID, entry.StoreID, nil))
	writeJSON(w, http.StatusOK, entry)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("entryId")
	entry, err := h.lists.GetByID(entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.lists.Delete(entryID, auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	if entry != nil {
		h.hub.Broadcast(websocket.NewMessage("entry", "deleted", entryID, entry.StoreID, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}
