package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/model"
	"github.com/rsheldon/bramble/internal/store"
	"github.com/rsheldon/bramble/internal/websocket"
)

type ItemHandler struct {
	items  *store.ItemStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewItemHandler(is *store.ItemStore, hub *websocket.Hub, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		items:  is,
		hub:    hub,
		logger: logger.With("component", "item"),
	}
}

type createItemRequest struct {
	Name    string  `json:"name"`
	AisleID *string `json:"aisle_id"`
}

// Create resolves to an existing catalog item when the normalized name
// already exists in the store, so repeated adds converge on one row.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.items.CreateOrGet(r.PathValue("id"), req.Name, req.AisleID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage("item", "upserted", item.ID, item.StoreID, nil))
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includeHidden := q.Get("include_hidden") == "true"
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	items, err := h.items.Search(r.PathValue("id"), q.Get("q"), includeHidden, limit, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.StoreItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type updateItemRequest struct {
	Name      string  `json:"name"`
	AisleID   *string `json:"aisle_id"`
	SectionID *string `json:"section_id"`
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.items.Update(r.PathValue("itemId"), req.Name, req.AisleID, req.SectionID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage("item", "updated", item.ID, item.StoreID, nil))
	writeJSON(w, http.StatusOK, item)
}

type flagRequest struct {
	Value bool `json:"value"`
}

func (h *ItemHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.items.SetFavorite)
}

func (h *ItemHandler) SetHidden(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.items.SetHidden)
}

func (h *ItemHandler) setFlag(w http.ResponseWriter, r *http.Request, set func(string, bool, string) error) {
	var req flagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	itemID := r.PathValue("itemId")
	if err := set(itemID, req.Value, auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.items.GetByID(itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	if item != nil {
		h.hub.Broadcast(websocket.NewMessage("item", "updated", item.ID, item.StoreID, nil))
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemId")
	item, err := h.items.GetByID(itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.items.Delete(itemID, auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	if item != nil {
		h.hub.Broadcast(websocket.NewMessage("item", "deleted", itemID, item.StoreID, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.items.ListUnits()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}
