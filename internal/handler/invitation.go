package handler

import (
	"log/slog"
	"net/http"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/model"
	"github.com/rsheldon/bramble/internal/store"
)

type InvitationHandler struct {
	invitations *store.InvitationStore
	logger      *slog.Logger
}

func NewInvitationHandler(is *store.InvitationStore, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{
		invitations: is,
		logger:      logger.With("component", "invitation"),
	}
}

type createInvitationRequest struct {
	Email string      `json:"email"`
	Role  access.Role `json:"role"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (h *InvitationHandler) CreateForHousehold(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	inv, err := h.invitations.CreateHouseholdInvitation(
		r.PathValue("id"), req.Email, req.Role, auth.UserID(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvitationHandler) ListForHousehold(w http.ResponseWriter, r *http.Request) {
	invites, err := h.invitations.ListHouseholdInvitations(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if invites == nil {
		invites = []model.HouseholdInvitation{}
	}
	writeJSON(w, http.StatusOK, invites)
}

func (h *InvitationHandler) AcceptHousehold(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ac, _ := auth.FromContext(r.Context())
	member, err := h.invitations.AcceptHouseholdInvitation(req.Token, ac.UserID, ac.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *InvitationHandler) DeclineHousehold(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.invitations.DeclineHouseholdInvitation(req.Token, auth.Email(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) RetractHousehold(w http.ResponseWriter, r *http.Request) {
	err := h.invitations.RetractHouseholdInvitation(r.PathValue("invitationId"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) CreateForStore(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	inv, err := h.invitations.CreateStoreInvitation(
		r.PathValue("id"), req.Email, req.Role, auth.UserID(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvitationHandler) ListForStore(w http.ResponseWriter, r *http.Request) {
	invites, err := h.invitations.ListStoreInvitations(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if invites == nil {
		invites = []model.StoreInvitation{}
	}
	writeJSON(w, http.StatusOK, invites)
}

func (h *InvitationHandler) AcceptStore(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ac, _ := auth.FromContext(r.Context())
	collab, err := h.invitations.AcceptStoreInvitation(req.Token, ac.UserID, ac.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collab)
}

func (h *InvitationHandler) DeclineStore(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.invitations.DeclineStoreInvitation(req.Token, auth.Email(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) RetractStore(w http.ResponseWriter, r *http.Request) {
	err := h.invitations.RetractStoreInvitation(r.PathValue("invitationId"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pendingInvitationsResponse struct {
	Household []model.HouseholdInvitation `json:"household"`
	Store     []model.StoreInvitation     `json:"store"`
}

// ListPendingForMe returns invitations addressed to the caller's email,
// across both scopes.
func (h *InvitationHandler) ListPendingForMe(w http.ResponseWriter, r *http.Request) {
	household, stores, err := h.invitations.ListPendingForEmail(auth.Email(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if household == nil {
		household = []model.HouseholdInvitation{}
	}
	if stores == nil {
		stores = []model.StoreInvitation{}
	}
	writeJSON(w, http.StatusOK, pendingInvitationsResponse{Household: household, Store: stores})
}

// NotificationCounts powers the badge in the client nav.
func (h *InvitationHandler) NotificationCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.invitations.CountsForEmail(auth.Email(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
