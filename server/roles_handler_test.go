package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"vesseladmin/internal/models"
)

// adminToken creates an admin-role user and returns a valid access token for it.
func adminToken(t *testing.T, env *testEnv) string {
	t.Helper()

	admin := createTestUser(t, env, "admin@example.com", "Secure#Pass123", []string{models.AdminRoleId})
	token, err := env.tokens.IssueAccessToken(admin.Id, admin.UserName)
	if err != nil {
		t.Fatalf("Failed to issue admin token: %v", err)
	}
	return token
}

func TestCreateRole(t *testing.T) {
	env := setupTestServer(t)
	token := adminToken(t, env)

	body := map[string]any{
		"name":          "auditor",
		"permissionIds": []string{"2", "6", "no-such-permission"},
	}
	rec := doJSON(t, env, http.MethodPost, "/roles", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Role
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode role: %v", err)
	}
	if created.Name != "auditor" {
		t.Errorf("Expected name auditor, got %q", created.Name)
	}
	// The unknown permission id falls out of the batch fetch.
	if len(created.Permissions) != 2 {
		t.Errorf("Expected 2 linked permissions, got %d", len(created.Permissions))
	}
}

func TestCreateRoleDuplicateName(t *testing.T) {
	env := setupTestServer(t)
	token := adminToken(t, env)

	body := map[string]any{"name": "auditor"}
	if rec := doJSON(t, env, http.MethodPost, "/roles", body, token); rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}
	if rec := doJSON(t, env, http.MethodPost, "/roles", body, token); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate role name, got %d", rec.Code)
	}
}

func TestUpdateRole(t *testing.T) {
	env := setupTestServer(t)
	token := adminToken(t, env)

	role := &models.Role{Name: "auditor"}
	if err := env.roles.Create(role, []string{"2"}); err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}

	body := map[string]any{"name": "inspector", "permissionIds": []string{"6", "9"}}
	rec := doJSON(t, env, http.MethodPatch, "/roles/"+role.Id, body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated models.Role
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode role: %v", err)
	}
	if updated.Name != "inspector" {
		t.Errorf("Expected renamed role, got %q", updated.Name)
	}
	if len(updated.Permissions) != 2 {
		t.Errorf("Expected replaced permission set of 2, got %d", len(updated.Permissions))
	}
}

func TestSystemRolesAreImmutable(t *testing.T) {
	env := setupTestServer(t)
	token := adminToken(t, env)

	for _, id := range []string{models.AdminRoleId, models.DefaultRoleId} {
		rec := doJSON(t, env, http.MethodDelete, "/roles/"+id, nil, token)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Deleting system role %s: expected 400, got %d", id, rec.Code)
		}

		rec = doJSON(t, env, http.MethodPatch, "/roles/"+id, map[string]any{"name": "renamed"}, token)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Updating system role %s: expected 400, got %d", id, rec.Code)
		}
	}
}

func TestDeleteRoleInUse(t *testing.T) {
	env := setupTestServer(t)
	token := adminToken(t, env)

	role := &models.Role{Name: "auditor"}
	if err := env.roles.Create(role, []string{"2"}); err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	holder := createTestUser(t, env, "holder@example.com", "Secure#Pass123", []string{role.Id})

	rec := doJSON(t, env, http.MethodDelete, "/roles/"+role.Id, nil, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 while role is assigned, got %d", rec.Code)
	}

	if err := env.users.Delete(holder.Id); err != nil {
		t.Fatalf("Failed to delete holder: %v", err)
	}
	rec = doJSON(t, env, http.MethodDelete, "/roles/"+role.Id, nil, token)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 once unassigned, got %d", rec.Code)
	}
}

func TestDeleteRoleNotFound(t *testing.T) {
	env := setupTestServer(t)
	token := adminToken(t, env)

	rec := doJSON(t, env, http.MethodDelete, "/roles/no-such-role", nil, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestListRoles(t *testing.T) {
	env := setupTestServer(t)
	token := adminToken(t, env)

	rec := doJSON(t, env, http.MethodGet, "/roles?searchTerm=admin", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response struct {
		Roles []models.Role `json:"roles"`
		Total int           `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Total != 1 || len(response.Roles) != 1 || response.Roles[0].Name != "admin" {
		t.Errorf("Expected the admin role only, got %+v", response)
	}
}
