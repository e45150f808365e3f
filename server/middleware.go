package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"vesseladmin/internal/models"
	"vesseladmin/internal/utils"
)

type contextKey string

// userKey carries the authenticated user's token claims through the request
// context.
const userKey contextKey = "user"

// contextClaims returns the claims injected by the permission guard, or nil on
// an unguarded route.
func contextClaims(r *http.Request) *models.Claims {
	claims, _ := r.Context().Value(userKey).(*models.Claims)
	return claims
}

// extractBearerToken parses the Authorization header. Absence or a non-Bearer
// scheme is treated as missing credentials.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// requirePermission is the request-time authorization gate. It decodes the
// bearer token, resolves the user's permission set from the directory, and
// only then lets the request through. Apart from the missing-credentials case,
// every failure collapses into the same Forbidden response so callers cannot
// distinguish a bad token from a lacking permission.
func (s *Server) requirePermission(required string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := extractBearerToken(r)
		if !ok {
			writeError(w, ModuleGeneric, ErrUnauthorized)
			return
		}

		claims, err := s.tokens.Verify(tokenString, utils.TokenTypeAccess)
		if err != nil {
			// Log the cause internally; the caller only ever sees the uniform denial.
			log.Printf("[guard] token verification failed: %v", err)
			writeError(w, ModuleGeneric, ErrForbidden)
			return
		}

		permissions, err := s.roles.UserPermissions(claims.Subject)
		if err != nil {
			log.Printf("[guard] permission resolution failed for user %s: %v", claims.Subject, err)
			writeError(w, ModuleGeneric, ErrForbidden)
			return
		}

		granted := false
		for _, p := range permissions {
			if p.Name == required {
				granted = true
				break
			}
		}
		if !granted {
			writeError(w, ModuleGeneric, ErrForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// securityHeadersMiddleware adds essential HTTP security headers to every response.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent the site from being embedded in iframes (Clickjacking protection).
		w.Header().Set("X-Frame-Options", "DENY")
		// Prevent browsers from mime-sniffing the response type.
		w.Header().Set("X-Content-Type-Options", "nosniff")

		next.ServeHTTP(w, r)
	})
}
