package server

import (
	"log"
	"net/http"

	"vesseladmin/database"
	"vesseladmin/internal/models"
	"vesseladmin/internal/oauth"
	"vesseladmin/internal/utils"
)

// notifier is the outbound side channel consumed by the auth flows. Publishes
// are fire-and-forget; the server never inspects their outcome.
type notifier interface {
	Emit(topic string, payload any)
}

// Server wires the HTTP surface to the stores, the token service, the Google
// provider and the notification emitter. All dependencies are handed in by the
// composition root at startup.
type Server struct {
	users  *database.UserStore
	roles  *database.RoleStore
	perms  *database.PermissionStore
	tokens *utils.TokenService
	google *oauth.GoogleProvider
	notify notifier

	dashboardURL string
}

// New builds a Server. google may be nil when OAuth is not configured; the
// Google login routes then answer 501.
func New(users *database.UserStore, roles *database.RoleStore, perms *database.PermissionStore,
	tokens *utils.TokenService, google *oauth.GoogleProvider, notify notifier, dashboardURL string) *Server {
	return &Server{
		users:        users,
		roles:        roles,
		perms:        perms,
		tokens:       tokens,
		google:       google,
		notify:       notify,
		dashboardURL: dashboardURL,
	}
}

// Routes declares the full HTTP surface. Protected routes name their required
// permission right here at registration; the guard middleware enforces it.
// Routes registered without requirePermission are public.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Authentication (public)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/refresh-token", s.refreshToken)
	mux.HandleFunc("POST /auth/forgot-password", s.forgotPassword)
	mux.HandleFunc("POST /auth/reset-password", s.resetPassword)
	mux.HandleFunc("GET /auth/login/google", s.googleLogin)
	mux.HandleFunc("GET /auth/login/google/redirect", s.googleRedirect)

	// User management
	mux.Handle("GET /users", s.requirePermission(models.PermReadUser, s.getUsers))
	mux.Handle("GET /users/{id}", s.requirePermission(models.PermReadUser, s.getUser))
	mux.Handle("POST /users", s.requirePermission(models.PermCreateUser, s.createUser))
	mux.Handle("PATCH /users/{id}", s.requirePermission(models.PermUpdateUser, s.updateUser))
	mux.Handle("DELETE /users/{id}", s.requirePermission(models.PermDeleteUser, s.deleteUser))

	// Roles (RBAC)
	mux.Handle("GET /roles", s.requirePermission(models.PermReadRole, s.getRoles))
	mux.Handle("GET /roles/{id}", s.requirePermission(models.PermReadRole, s.getRole))
	mux.Handle("POST /roles", s.requirePermission(models.PermCreateRole, s.createRole))
	mux.Handle("PATCH /roles/{id}", s.requirePermission(models.PermUpdateRole, s.updateRole))
	mux.Handle("DELETE /roles/{id}", s.requirePermission(models.PermDeleteRole, s.deleteRole))

	// Permission catalog (read-only)
	mux.Handle("GET /permissions", s.requirePermission(models.PermReadPermission, s.getPermissions))
	mux.Handle("GET /permissions/{id}", s.requirePermission(models.PermReadPermission, s.getPermission))

	return securityHeadersMiddleware(mux)
}

// Start runs the HTTP server on the given port. It blocks until the listener
// fails.
func (s *Server) Start(port string) error {
	log.Printf("[server] listening on %s", port)
	return http.ListenAndServe(port, s.Routes())
}
