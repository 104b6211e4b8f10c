package http

import (
	"net/http"

	"finsync/internal/core"
	"finsync/internal/http/respond"
	"finsync/internal/realtime"
)

// handleRealtime upgrades the connection to a websocket. Every client joins
// its own user room; admins may additionally join the admin room with
// ?room=admin.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	rooms := []string{realtime.UserRoom(user.ID)}

	if r.URL.Query().Get("room") == "admin" {
		if user.Role != core.RoleAdmin {
			respond.Error(w, http.StatusForbidden, "admin role required")
			return
		}
		rooms = append(rooms, realtime.AdminRoom)
	}

	realtime.ServeWS(s.hub, s.allowedOrigins, rooms, w, r)
}
