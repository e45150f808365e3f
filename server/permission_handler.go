package server

import "net/http"

// getPermissions returns the full permission catalog.
// Output: 200 OK (JSON list) | 500 Internal Error
func (s *Server) getPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := s.perms.List()
	if err != nil {
		writeError(w, ModulePermission, err)
		return
	}
	writeJSON(w, http.StatusOK, permissions)
}

// getPermission fetches one permission.
// Output: 200 OK (Permission) | 404 Not Found
func (s *Server) getPermission(w http.ResponseWriter, r *http.Request) {
	permission, err := s.perms.ById(r.PathValue("id"))
	if err != nil {
		writeError(w, ModulePermission, err)
		return
	}
	writeJSON(w, http.StatusOK, permission)
}
