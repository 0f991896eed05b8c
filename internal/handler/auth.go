package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/middleware"
	"github.com/rsheldon/bramble/internal/store"
)

type AuthHandler struct {
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	sessionStore   *store.SessionStore

	// registrationCode, when set, is required to register. Empty means
	// open registration (self-hosted default).
	registrationCode string
	logger           *slog.Logger
}

func NewAuthHandler(us *store.UserStore, hs *store.HouseholdStore, ss *store.SessionStore, registrationCode string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:        us,
		householdStore:   hs,
		sessionStore:     ss,
		registrationCode: registrationCode,
		logger:           logger.With("component", "auth"),
	}
}

type registerRequest struct {
	Email            string `json:"email"`
	Name             string `json:"name"`
	Password         string `json:"password"`
	HouseholdName    string `json:"household_name"`
	RegistrationCode string `json:"registration_code"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// Register creates the user, a personal household owned by them, and a
// session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, errs.Validation("valid email is required"))
		return
	}
	if req.Name == "" {
		writeError(w, errs.Validation("name is required"))
		return
	}
	if len(req.Password) < 8 {
		writeError(w, errs.Validation("password must be at least 8 characters"))
		return
	}
	if h.registrationCode != "" && req.RegistrationCode != h.registrationCode {
		writeError(w, errs.Forbidden("invalid registration code"))
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		writeError(w, errs.Conflict("an account with that email already exists"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, string(hash), nil)
	if err != nil {
		writeError(w, err)
		return
	}

	householdName := strings.TrimSpace(req.HouseholdName)
	if householdName == "" {
		householdName = req.Name
	}
	if _, err := h.householdStore.Create(householdName, user.ID); err != nil {
		h.logger.Error("create initial household", "error", err)
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusCreated, sessionResponse{Token: sess.Token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, errs.NotFound("user not found"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, errs.Validation("password must be at least 8 characters"))
		return
	}

	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, errs.NotFound("user not found"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		writeError(w, errs.Forbidden("current password is incorrect"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.userStore.UpdatePassword(user.ID, string(hash)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
