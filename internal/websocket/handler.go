package websocket

import (
	"log"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/store"
)

// HandleWebSocket upgrades the connection and runs it as a hub client
// watching the store named in the store_id query parameter. The caller must
// have a role on the store; requests without one look like an unknown
// store.
func HandleWebSocket(hub *Hub, stores *store.StoreStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID := r.URL.Query().Get("store_id")
		if storeID == "" {
			http.Error(w, "store_id required", http.StatusBadRequest)
			return
		}

		role, err := stores.ResolveRole(storeID, auth.UserID(r.Context()))
		if err != nil || role == nil {
			http.Error(w, "store not found", http.StatusNotFound)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			log.Printf("websocket: accept: %v", err)
			return
		}

		client := NewClient(hub, conn, storeID)
		client.Run(r.Context())
	}
}
