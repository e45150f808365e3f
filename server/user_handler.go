package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"vesseladmin/internal/models"
	"vesseladmin/internal/utils"
)

// listFilter reads the shared search/pagination query parameters.
func listFilter(r *http.Request) (searchTerm string, pageNumber, pageSize int) {
	query := r.URL.Query()
	searchTerm = query.Get("searchTerm")
	pageNumber, _ = strconv.Atoi(query.Get("pageNumber"))
	pageSize, _ = strconv.Atoi(query.Get("pageSize"))
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return searchTerm, pageNumber, pageSize
}

// getUsers lists users matching the search filter, newest first.
// Input:  ?searchTerm=&pageNumber=1&pageSize=10
// Output: 200 OK {"users": [...], "total": n} | 500 Internal Error
func (s *Server) getUsers(w http.ResponseWriter, r *http.Request) {
	searchTerm, pageNumber, pageSize := listFilter(r)

	users, total, err := s.users.List(searchTerm, pageNumber, pageSize)
	if err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
	})
}

// getUser fetches one user with roles.
// Output: 200 OK (User) | 404 Not Found
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.ById(r.PathValue("id"))
	if err != nil {
		writeError(w, ModuleUser, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// createUser provisions an account from the admin panel, with explicit role
// assignments.
// Input:  {"email": "a@b.c", "userName": "Ada", "password": "...", "roleIds": ["2"]}
// Output: 201 Created (User) | 400 Bad Request
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string   `json:"email"`
		UserName string   `json:"userName"`
		Password string   `json:"password"`
		RoleIds  []string `json:"roleIds"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleUser, err)
		return
	}
	if req.Email == "" || req.UserName == "" {
		writeError(w, ModuleUser, fmt.Errorf("%w: email and userName are required", ErrValidation))
		return
	}
	if err := utils.ValidatePasswordComplexity(req.Password); err != nil {
		writeError(w, ModuleUser, fmt.Errorf("%w: %v", ErrValidation, err))
		return
	}

	// Resolve requested roles up front so unknown ids are dropped the same way
	// a batch fetch would drop them.
	roleIds := req.RoleIds
	if len(roleIds) == 0 {
		roleIds = []string{models.DefaultRoleId}
	}
	roles, err := s.roles.ByIds(roleIds)
	if err != nil {
		writeError(w, ModuleUser, err)
		return
	}
	resolvedIds := make([]string, 0, len(roles))
	for _, role := range roles {
		resolvedIds = append(resolvedIds, role.Id)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, ModuleUser, err)
		return
	}
	user := &models.User{
		UserName: req.UserName,
		Email:    req.Email,
		Password: hash,
		IsActive: true,
	}
	if err := s.users.Create(user, resolvedIds); err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	created, err := s.users.ById(user.Id)
	if err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	log.Printf("[users] created user %s (%s)", created.Id, created.Email)
	writeJSON(w, http.StatusCreated, created)
}

// updateUser patches profile fields and, when roleIds is present, replaces the
// role assignments.
// Input:  {"userName": "...", "email": "...", "isActive": true, "roleIds": ["..."]}
// Output: 200 OK (User) | 404 Not Found | 400 Bad Request
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName *string  `json:"userName"`
		Email    *string  `json:"email"`
		IsActive *bool    `json:"isActive"`
		RoleIds  []string `json:"roleIds"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	user, err := s.users.ById(r.PathValue("id"))
	if err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	if req.UserName != nil {
		user.UserName = *req.UserName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	var roleIds []string
	if req.RoleIds != nil {
		roles, err := s.roles.ByIds(req.RoleIds)
		if err != nil {
			writeError(w, ModuleUser, err)
			return
		}
		roleIds = make([]string, 0, len(roles))
		for _, role := range roles {
			roleIds = append(roleIds, role.Id)
		}
	}

	if err := s.users.Update(user, roleIds); err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	updated, err := s.users.ById(user.Id)
	if err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	log.Printf("[users] updated user %s", updated.Id)
	writeJSON(w, http.StatusOK, updated)
}

// deleteUser removes a user and its role assignments.
// Output: 204 No Content | 404 Not Found
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.users.Delete(id); err != nil {
		writeError(w, ModuleUser, err)
		return
	}

	log.Printf("[users] deleted user %s", id)
	w.WriteHeader(http.StatusNoContent)
}
