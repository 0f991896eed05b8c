package handler

import (
	"log/slog"
	"net/http"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
	"github.com/rsheldon/bramble/internal/store"
)

type StoreHandler struct {
	stores *store.StoreStore
	aisles *store.AisleStore
	logger *slog.Logger
}

func NewStoreHandler(ss *store.StoreStore, as *store.AisleStore, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		stores: ss,
		aisles: as,
		logger: logger.With("component", "store"),
	}
}

type createStoreRequest struct {
	Name        string  `json:"name"`
	HouseholdID *string `json:"household_id"`
}

func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	st, err := h.stores.Create(req.Name, req.HouseholdID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if stores == nil {
		stores = []model.Store{}
	}
	writeJSON(w, http.StatusOK, stores)
}

func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if err := h.requireRole(storeID, auth.UserID(r.Context()), access.RoleViewer); err != nil {
		writeError(w, err)
		return
	}
	st, err := h.stores.GetByID(storeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if st == nil {
		writeError(w, errs.NotFound("store not found"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type updateStoreRequest struct {
	Name     string `json:"name"`
	IsHidden bool   `json:"is_hidden"`
}

func (h *StoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	var req updateStoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID := auth.UserID(r.Context())
	if err := h.requireRole(storeID, userID, access.RoleEditor); err != nil {
		writeError(w, err)
		return
	}
	st, err := h.stores.Update(storeID, req.Name, req.IsHidden, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *StoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if err := h.requireRole(storeID, auth.UserID(r.Context()), access.RoleOwner); err != nil {
		writeError(w, err)
		return
	}
	if err := h.stores.Delete(storeID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyRole reports the caller's effective role on the store, combining a
// direct collaborator grant with household inheritance.
func (h *StoreHandler) MyRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.stores.ResolveRole(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if role == nil {
		writeError(w, errs.NotFound("store not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]access.Role{"role": *role})
}

func (h *StoreHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if err := h.requireRole(storeID, auth.UserID(r.Context()), access.RoleViewer); err != nil {
		writeError(w, err)
		return
	}
	collabs, err := h.stores.ListCollaborators(storeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collabs)
}

func (h *StoreHandler) SetCollaboratorRole(w http.ResponseWriter, r *http.Request) {
	var req memberRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	collab, err := h.stores.SetCollaboratorRole(
		r.PathValue("id"), r.PathValue("userId"), req.Role, auth.UserID(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collab)
}

func (h *StoreHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	err := h.stores.RemoveCollaborator(r.PathValue("id"), r.PathValue("userId"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoreHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.stores.Leave(r.PathValue("id"), auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *StoreHandler) CreateAisle(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	aisle, err := h.aisles.CreateAisle(r.PathValue("id"), req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, aisle)
}

func (h *StoreHandler) ListAisles(w http.ResponseWriter, r *http.Request) {
	aisles, err := h.aisles.ListAisles(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if aisles == nil {
		aisles = []model.StoreAisle{}
	}
	writeJSON(w, http.StatusOK, aisles)
}

func (h *StoreHandler) UpdateAisle(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	aisle, err := h.aisles.UpdateAisle(r.PathValue("aisleId"), req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aisle)
}

func (h *StoreHandler) DeleteAisle(w http.ResponseWriter, r *http.Request) {
	if err := h.aisles.DeleteAisle(r.PathValue("aisleId"), auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	Updates []model.SortUpdate `json:"updates"`
}

func (h *StoreHandler) ReorderAisles(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := h.aisles.ReorderAisles(r.PathValue("id"), req.Updates, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createSectionRequest struct {
	AisleID string `json:"aisle_id"`
	Name    string `json:"name"`
}

func (h *StoreHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req createSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	section, err := h.aisles.CreateSection(r.PathValue("id"), req.AisleID, req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, section)
}

func (h *StoreHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.aisles.ListSections(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if sections == nil {
		sections = []model.StoreSection{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *StoreHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	section, err := h.aisles.UpdateSection(r.PathValue("sectionId"), req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (h *StoreHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := h.aisles.DeleteSection(r.PathValue("sectionId"), auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoreHandler) ReorderSections(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := h.aisles.ReorderSections(r.PathValue("id"), req.Updates, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoreHandler) requireRole(storeID, userID string, min access.Role) error {
	role, err := h.stores.ResolveRole(storeID, userID)
	if err != nil {
		return err
	}
	if role == nil {
		return errs.NotFound("store not found")
	}
	if !access.AtLeast(*role, min) {
		return errs.Forbidden("insufficient permissions")
	}
	return nil
}
