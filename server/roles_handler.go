package server

import (
	"fmt"
	"log"
	"net/http"

	"vesseladmin/internal/models"
)

// getRoles lists roles matching the search filter, permissions included.
// Input:  ?searchTerm=&pageNumber=1&pageSize=10
// Output: 200 OK {"roles": [...], "total": n} | 500 Internal Error
func (s *Server) getRoles(w http.ResponseWriter, r *http.Request) {
	searchTerm, pageNumber, pageSize := listFilter(r)

	roles, total, err := s.roles.List(searchTerm, pageNumber, pageSize)
	if err != nil {
		writeError(w, ModuleRole, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"roles": roles,
		"total": total,
	})
}

// getRole fetches one role with its permissions.
// Output: 200 OK (Role) | 404 Not Found
func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.roles.ById(r.PathValue("id"))
	if err != nil {
		writeError(w, ModuleRole, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// createRole adds a role bundling the given permissions.
// Input:  {"name": "auditor", "permissionIds": ["2", "6"]}
// Output: 201 Created (Role) | 400 Bad Request (duplicate name)
func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string   `json:"name"`
		PermissionIds []string `json:"permissionIds"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleRole, err)
		return
	}
	if req.Name == "" {
		writeError(w, ModuleRole, fmt.Errorf("%w: role name is required", ErrValidation))
		return
	}

	// Only known permissions end up linked; unknown ids fall out of the batch
	// fetch, matching the original lookup semantics.
	permissions, err := s.perms.ByIds(req.PermissionIds)
	if err != nil {
		writeError(w, ModuleRole, err)
		return
	}
	permissionIds := make([]string, 0, len(permissions))
	for _, p := range permissions {
		permissionIds = append(permissionIds, p.Id)
	}

	role := &models.Role{Name: req.Name}
	if err := s.roles.Create(role, permissionIds); err != nil {
		writeError(w, ModuleRole, err)
		return
	}

	created, err := s.roles.ById(role.Id)
	if err != nil {
		writeError(w, ModuleRole, err)
		return
	}

	log.Printf("[roles] created role %s (%s)", created.Id, created.Name)
	writeJSON(w, http.StatusCreated, created)
}

// updateRole renames a role and/or replaces its permission set. The two
// system roles are immutable.
// Input:  {"name": "auditor", "permissionIds": ["2"]}
// Output: 200 OK (Role) | 404 Not Found | 400 Bad Request (system role)
func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          *string  `json:"name"`
		PermissionIds []string `json:"permissionIds"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleRole, err)
		return
	}

	role, err := s.roles.ById(r.PathValue("id"))
	if err != nil {
		writeError(w, ModuleRole, err)
		return
	}
	if req.Name != nil {
		role.Name = *req.Name
	}

	var permissionIds []string
	if req.PermissionIds != nil {
		permissions, err := s.perms.ByIds(req.PermissionIds)
		if err != nil {
			writeError(w, ModuleRole, err)
			return
		}
		permissionIds = make([]string, 0, len(permissions))
		for _, p := range permissions {
			permissionIds = append(permissionIds, p.Id)
		}
	}

	if err := s.roles.Update(role, permissionIds); err != nil {
		writeError(w, ModuleRole, err)
		return
	}

	updated, err := s.roles.ById(role.Id)
	if err != nil {
		writeError(w, ModuleRole, err)
		return
	}

	log.Printf("[roles] updated role %s", updated.Id)
	writeJSON(w, http.StatusOK, updated)
}

// deleteRole removes a role that is neither a system role nor still assigned.
// Output: 204 No Content | 404 Not Found | 400 Bad Request (system/in use)
func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.roles.Delete(id); err != nil {
		writeError(w, ModuleRole, err)
		return
	}

	log.Printf("[roles] deleted role %s", id)
	w.WriteHeader(http.StatusNoContent)
}
