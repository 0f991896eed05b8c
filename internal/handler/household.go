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

type HouseholdHandler struct {
	households *store.HouseholdStore
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		households: hs,
		logger:     logger.With("component", "household"),
	}
}

type householdRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	household, err := h.households.Create(req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.households.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	if _, err := h.requireMember(householdID, auth.UserID(r.Context()), access.RoleViewer); err != nil {
		writeError(w, err)
		return
	}
	household, err := h.households.GetByID(householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if household == nil {
		writeError(w, errs.NotFound("household not found"))
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	var req householdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID := auth.UserID(r.Context())
	if _, err := h.requireMember(householdID, userID, access.RoleEditor); err != nil {
		writeError(w, err)
		return
	}
	household, err := h.households.Update(householdID, req.Name, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	if _, err := h.requireMember(householdID, auth.UserID(r.Context()), access.RoleOwner); err != nil {
		writeError(w, err)
		return
	}
	if err := h.households.Delete(householdID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	if _, err := h.requireMember(householdID, auth.UserID(r.Context()), access.RoleViewer); err != nil {
		writeError(w, err)
		return
	}
	members, err := h.households.ListMembers(householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type memberRoleRequest struct {
	Role access.Role `json:"role"`
}

func (h *HouseholdHandler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	var req memberRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	member, err := h.households.SetMemberRole(
		r.PathValue("id"), r.PathValue("userId"), req.Role, auth.UserID(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.households.RemoveMember(r.PathValue("id"), r.PathValue("userId"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.households.Leave(r.PathValue("id"), auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireMember hides the household from non-members and enforces a
// minimum role for members.
func (h *HouseholdHandler) requireMember(householdID, userID string, min access.Role) (access.Role, error) {
	member, err := h.households.GetMember(householdID, userID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", errs.NotFound("household not found")
	}
	role := access.Role(member.Role)
	if !access.AtLeast(role, min) {
		return role, errs.Forbidden("insufficient permissions")
	}
	return role, nil
}
