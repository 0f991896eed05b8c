package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rsheldon/bramble/internal/backup"
	"github.com/rsheldon/bramble/internal/handler"
	"github.com/rsheldon/bramble/internal/middleware"
	"github.com/rsheldon/bramble/internal/store"
	ws "github.com/rsheldon/bramble/internal/websocket"
)

// Config holds server-level configuration read from the environment.
type Config struct {
	Port             string
	RegistrationCode string
	Backup           backup.Config
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	householdH   *handler.HouseholdHandler
	invitationH  *handler.InvitationHandler
	storeH       *handler.StoreHandler
	itemH        *handler.ItemHandler
	listH        *handler.ListHandler
	recipeH      *handler.RecipeHandler
	backupH      *handler.BackupHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	storeStore   *store.StoreStore
	rateLimiter  *middleware.RateLimiter
	backupMgr    *backup.Manager
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	householdStore := store.NewHouseholdStore(db)
	storeStore := store.NewStoreStore(db)
	invitationStore := store.NewInvitationStore(db)
	aisleStore := store.NewAisleStore(db)
	itemStore := store.NewItemStore(db)
	listStore := store.NewListStore(db)
	recipeStore := store.NewRecipeStore(db)
	backupStore := store.NewBackupStore(db)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, householdStore, sessionStore, cfg.RegistrationCode, logger),
		householdH:   handler.NewHouseholdHandler(householdStore, logger),
		invitationH:  handler.NewInvitationHandler(invitationStore, logger),
		storeH:       handler.NewStoreHandler(storeStore, aisleStore, logger),
		itemH:        handler.NewItemHandler(itemStore, hub, logger),
		listH:        handler.NewListHandler(listStore, itemStore, hub, logger),
		recipeH:      handler.NewRecipeHandler(recipeStore, hub, logger),
		backupH:      handler.NewBackupHandler(backupMgr, backupStore, logger),
		sessionStore: sessionStore,
		userStore:    userStore,
		storeStore:   storeStore,
		rateLimiter:  middleware.NewRateLimiter(10, time.Minute),
		backupMgr:    backupMgr,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupMgr
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("PUT /api/auth/password", s.authH.ChangePassword)

	// Households
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PUT /api/households/{id}", s.householdH.Update)
	mux.HandleFunc("DELETE /api/households/{id}", s.householdH.Delete)
	mux.HandleFunc("GET /api/households/{id}/members", s.householdH.ListMembers)
	mux.HandleFunc("PUT /api/households/{id}/members/{userId}", s.householdH.SetMemberRole)
	mux.HandleFunc("DELETE /api/households/{id}/members/{userId}", s.householdH.RemoveMember)
	mux.HandleFunc("POST /api/households/{id}/leave", s.householdH.Leave)

	// Household invitations
	mux.HandleFunc("POST /api/households/{id}/invitations", s.invitationH.CreateForHousehold)
	mux.HandleFunc("GET /api/households/{id}/invitations", s.invitationH.ListForHousehold)
	mux.HandleFunc("DELETE /api/households/{id}/invitations/{invitationId}", s.invitationH.RetractHousehold)
	mux.HandleFunc("POST /api/invitations/household/accept", s.invitationH.AcceptHousehold)
	mux.HandleFunc("POST /api/invitations/household/decline", s.invitationH.DeclineHousehold)

	// Store invitations
	mux.HandleFunc("POST /api/stores/{id}/invitations", s.invitationH.CreateForStore)
	mux.HandleFunc("GET /api/stores/{id}/invitations", s.invitationH.ListForStore)
	mux.HandleFunc("DELETE /api/stores/{id}/invitations/{invitationId}", s.invitationH.RetractStore)
	mux.HandleFunc("POST /api/invitations/store/accept", s.invitationH.AcceptStore)
	mux.HandleFunc("POST /api/invitations/store/decline", s.invitationH.DeclineStore)

	// Pending invitations + notification badge
	mux.HandleFunc("GET /api/invitations/pending", s.invitationH.ListPendingForMe)
	mux.HandleFunc("GET /api/notifications/counts", s.invitationH.NotificationCounts)

	// Stores
	mux.HandleFunc("POST /api/stores", s.storeH.Create)
	mux.HandleFunc("GET /api/stores", s.storeH.List)
	mux.HandleFunc("GET /api/stores/{id}", s.storeH.Get)
	mux.HandleFunc("PUT /api/stores/{id}", s.storeH.Update)
	mux.HandleFunc("DELETE /api/stores/{id}", s.storeH.Delete)
	mux.HandleFunc("GET /api/stores/{id}/role", s.storeH.MyRole)
	mux.HandleFunc("GET /api/stores/{id}/collaborators", s.storeH.ListCollaborators)
	mux.HandleFunc("PUT /api/stores/{id}/collaborators/{userId}", s.storeH.SetCollaboratorRole)
	mux.HandleFunc("DELETE /api/stores/{id}/collaborators/{userId}", s.storeH.RemoveCollaborator)
	mux.HandleFunc("POST /api/stores/{id}/leave", s.storeH.Leave)

	// Aisles and sections
	mux.HandleFunc("POST /api/stores/{id}/aisles", s.storeH.CreateAisle)
	mux.HandleFunc("GET /api/stores/{id}/aisles", s.storeH.ListAisles)
	mux.HandleFunc("PUT /api/stores/{id}/aisles/{aisleId}", s.storeH.UpdateAisle)
	mux.HandleFunc("DELETE /api/stores/{id}/aisles/{aisleId}", s.storeH.DeleteAisle)
	mux.HandleFunc("PUT /api/stores/{id}/aisles/sort", s.storeH.ReorderAisles)
	mux.HandleFunc("POST /api/stores/{id}/sections", s.storeH.CreateSection)
	mux.HandleFunc("GET /api/stores/{id}/sections", s.storeH.ListSections)
	mux.HandleFunc("PUT /api/stores/{id}/sections/{sectionId}", s.storeH.UpdateSection)
	mux.HandleFunc("DELETE /api/stores/{id}/sections/{sectionId}", s.storeH.DeleteSection)
	mux.HandleFunc("PUT /api/stores/{id}/sections/sort", s.storeH.ReorderSections)

	// Catalog items
	mux.HandleFunc("POST /api/stores/{id}/items", s.itemH.Create)
	mux.HandleFunc("GET /api/stores/{id}/items", s.itemH.Search)
	mux.HandleFunc("PUT /api/stores/{id}/items/{itemId}", s.itemH.Update)
	mux.HandleFunc("PUT /api/stores/{id}/items/{itemId}/favorite", s.itemH.SetFavorite)
	mux.HandleFunc("PUT /api/stores/{id}/items/{itemId}/hidden", s.itemH.SetHidden)
	mux.HandleFunc("DELETE /api/stores/{id}/items/{itemId}", s.itemH.Delete)
	mux.HandleFunc("GET /api/units", s.itemH.ListUnits)

	// Shopping list
	mux.HandleFunc("POST /api/stores/{id}/list", s.listH.Upsert)
	mux.HandleFunc("GET /api/stores/{id}/list", s.listH.List)
	mux.HandleFunc("PUT /api/stores/{id}/list/{entryId}/check", s.listH.SetChecked)
	mux.HandleFunc("PUT /api/stores/{id}/list/{entryId}/snooze", s.listH.Snooze)
	mux.HandleFunc("DELETE /api/stores/{id}/list/{entryId}", s.listH.Delete)
	mux.HandleFunc("POST /api/stores/{id}/list/clear-checked", s.listH.ClearChecked)

	// Recipes
	mux.HandleFunc("POST /api/households/{id}/recipes", s.recipeH.Create)
	mux.HandleFunc("GET /api/households/{id}/recipes", s.recipeH.ListForHousehold)
	mux.HandleFunc("GET /api/recipes/{recipeId}", s.recipeH.Get)
	mux.HandleFunc("GET /api/recipes/{recipeId}/ingredients", s.recipeH.ListIngredients)
	mux.HandleFunc("PUT /api/recipes/{recipeId}", s.recipeH.Update)
	mux.HandleFunc("DELETE /api/recipes/{recipeId}", s.recipeH.Delete)
	mux.HandleFunc("POST /api/recipes/{recipeId}/add-to-list", s.recipeH.AddToList)

	// Backups (admin only)
	mux.Handle("GET /api/admin/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.List)))
	mux.Handle("GET /api/admin/backups/status", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Status)))
	mux.Handle("POST /api/admin/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.RunNow)))
	mux.Handle("POST /api/admin/backups/{backupId}/restore", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Restore)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.storeStore))
}
