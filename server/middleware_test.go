package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vesseladmin/internal/models"
)

func TestGuardMissingCredentials(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"No Authorization header", ""},
		{"Wrong scheme", "Basic dXNlcjpwYXNz"},
		{"Bearer without token", "Bearer "},
		{"Scheme only", "Bearer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.server.Routes().ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestGuardInvalidToken(t *testing.T) {
	env := setupTestServer(t)
	user := createTestUser(t, env, "ada@example.com", "Secure#Pass123", []string{models.DefaultRoleId})

	resetToken, err := env.tokens.IssueResetToken(user.Id, user.UserName)
	if err != nil {
		t.Fatalf("Failed to issue reset token: %v", err)
	}
	refreshToken, err := env.tokens.IssueRefreshToken(user.Id, user.UserName)
	if err != nil {
		t.Fatalf("Failed to issue refresh token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"Garbage token", "not.a.token"},
		{"Reset token as bearer", resetToken},
		{"Refresh token as bearer", refreshToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, env, http.MethodGet, "/users", nil, tt.token)
			// Bad tokens and missing permissions collapse into one denial.
			if rec.Code != http.StatusForbidden {
				t.Errorf("Expected 403, got %d", rec.Code)
			}
		})
	}
}

// A default-role user holds READ_USER only: reading users is allowed, while a
// route requiring CREATE_ROLE yields the uniform denial.
func TestGuardPermissionCheck(t *testing.T) {
	env := setupTestServer(t)
	user := createTestUser(t, env, "u1@example.com", "Secure#Pass123", []string{models.DefaultRoleId})

	accessToken, err := env.tokens.IssueAccessToken(user.Id, user.UserName)
	if err != nil {
		t.Fatalf("Failed to issue access token: %v", err)
	}

	allowed := doJSON(t, env, http.MethodGet, "/users", nil, accessToken)
	if allowed.Code != http.StatusOK {
		t.Errorf("Expected 200 for READ_USER holder on /users, got %d", allowed.Code)
	}

	denied := doJSON(t, env, http.MethodPost, "/roles",
		map[string]any{"name": "newrole"}, accessToken)
	if denied.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for missing CREATE_ROLE, got %d", denied.Code)
	}
}

func TestGuardDeletedUser(t *testing.T) {
	env := setupTestServer(t)
	user := createTestUser(t, env, "gone@example.com", "Secure#Pass123", []string{models.DefaultRoleId})

	accessToken, err := env.tokens.IssueAccessToken(user.Id, user.UserName)
	if err != nil {
		t.Fatalf("Failed to issue access token: %v", err)
	}
	if err := env.users.Delete(user.Id); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	rec := doJSON(t, env, http.MethodGet, "/users", nil, accessToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for a token naming a vanished user, got %d", rec.Code)
	}
}

func TestGuardAdminAccess(t *testing.T) {
	env := setupTestServer(t)
	admin := createTestUser(t, env, "admin@example.com", "Secure#Pass123", []string{models.AdminRoleId})

	accessToken, err := env.tokens.IssueAccessToken(admin.Id, admin.UserName)
	if err != nil {
		t.Fatalf("Failed to issue access token: %v", err)
	}

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/roles"},
		{http.MethodGet, "/permissions"},
	}
	for _, p := range paths {
		rec := doJSON(t, env, p.method, p.path, nil, accessToken)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected admin access to %s %s, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/permissions", nil)
	rec := httptest.NewRecorder()
	env.server.Routes().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("Expected X-Frame-Options DENY, got %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected X-Content-Type-Options nosniff, got %q", got)
	}
}
