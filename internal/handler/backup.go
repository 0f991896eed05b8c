package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rsheldon/bramble/internal/backup"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
	"github.com/rsheldon/bramble/internal/store"
)

// BackupHandler exposes admin-only backup operations. Routes are expected
// to be wrapped in RequireAdmin.
type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		manager: m,
		backups: bs,
		logger:  logger.With("component", "backup"),
	}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List(50)
	if err != nil {
		writeError(w, err)
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, errs.Validation("backups are not configured"))
		return
	}
	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual backup failed", "error", err)
		writeError(w, err)
		return
	}
	b, err := h.backups.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Restore replaces the live database with the named backup and exits the
// process so the supervisor restarts it on the restored file.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, errs.Validation("backups are not configured"))
		return
	}
	backupID := r.PathValue("backupId")
	b, err := h.backups.GetByID(backupID)
	if err != nil {
		writeError(w, err)
		return
	}
	if b == nil {
		writeError(w, errs.NotFound("backup not found"))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restoring"})
	// Detached from the request context: the restore outlives the response
	// and ends with os.Exit.
	go func() {
		if err := h.manager.Restore(context.Background(), backupID); err != nil {
			h.logger.Error("restore failed", "backup_id", backupID, "error", err)
		}
	}()
}
