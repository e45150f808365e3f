package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vesseladmin/database"
	"vesseladmin/internal/models"
	"vesseladmin/internal/notify"
	"vesseladmin/internal/oauth"
	"vesseladmin/internal/utils"
)

// issueTokenPair creates a fresh access + refresh token pair for the user.
func (s *Server) issueTokenPair(user *models.User) (*models.AuthResponse, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.Id, user.UserName)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.Id, user.UserName)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserId:       user.Id,
	}, nil
}

// login authenticates a user by email and password.
// Input:  {"email": "a@b.c", "password": "secret"}
// Output: 200 OK {accessToken, refreshToken, userId} | 404 Not Found | 400 Bad Request
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleAuth, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, ModuleAuth, fmt.Errorf("%w: email and password are required", ErrValidation))
		return
	}

	user, err := s.users.ByEmail(req.Email)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		writeError(w, ModuleAuth, ErrWrongPassword)
		return
	}

	response, err := s.issueTokenPair(user)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	log.Printf("[auth] user %s logged in", user.Id)
	writeJSON(w, http.StatusOK, response)
}

// register creates a new account carrying the default role.
// Input:  {"email": "a@b.c", "userName": "Ada", "password": "secret"}
// Output: 201 Created (User, hash excluded) | 400 Bad Request
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		UserName string `json:"userName"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleAuth, err)
		return
	}
	if req.Email == "" || req.UserName == "" {
		writeError(w, ModuleAuth, fmt.Errorf("%w: email and userName are required", ErrValidation))
		return
	}
	if err := utils.ValidatePasswordComplexity(req.Password); err != nil {
		writeError(w, ModuleAuth, fmt.Errorf("%w: %v", ErrValidation, err))
		return
	}

	user, err := s.createUserWithDefaultRole(req.Email, req.UserName, req.Password)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	log.Printf("[auth] registered user %s (%s)", user.Id, user.Email)
	writeJSON(w, http.StatusCreated, user)
}

// createUserWithDefaultRole hashes the password and persists a new user
// assigned to the default role. A check-then-act guards the unique email; the
// insert's UNIQUE constraint backstops the race window.
func (s *Server) createUserWithDefaultRole(email, userName, password string) (*models.User, error) {
	if _, err := s.users.ByEmail(email); err == nil {
		return nil, database.ErrEmailAlreadyUsed
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserName: userName,
		Email:    email,
		Password: hash,
		IsActive: true,
	}
	if err := s.users.Create(user, []string{models.DefaultRoleId}); err != nil {
		return nil, err
	}
	return s.users.ById(user.Id)
}

// googleLogin redirects the client to the Google consent screen.
// Output: 307 Temporary Redirect | 501 Not Implemented
func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		http.Error(w, "Google login not enabled", http.StatusNotImplemented)
		return
	}

	authURL, err := s.google.AuthCodeURL()
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// googleRedirect handles the OAuth callback: it validates the external
// identity assertion, creates the account on first login, and lands the
// client on the dashboard with the token pair in the query string.
// Output: 302 Found (dashboard redirect) | 400 Bad Request | 501 Not Implemented
func (s *Server) googleRedirect(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		http.Error(w, "Google login not enabled", http.StatusNotImplemented)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	profile, err := s.google.Exchange(r.Context(), state, code)
	if err != nil {
		log.Printf("[auth] google exchange failed: %v", err)
		writeError(w, ModuleAuth, ErrFailedExternalValidation)
		return
	}

	response, err := s.federatedLogin(profile)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	query := url.Values{}
	query.Set("accessToken", response.AccessToken)
	query.Set("refreshToken", response.RefreshToken)
	query.Set("userId", response.UserId)
	http.Redirect(w, r, s.dashboardURL+"?"+query.Encode(), http.StatusFound)
}

// federatedLogin logs in a Google-asserted identity. Unknown emails get a
// fresh account with the default role and a temporary password delivered via
// the welcome mail topic; known emails log straight in.
func (s *Server) federatedLogin(profile *oauth.Profile) (*models.AuthResponse, error) {
	if profile == nil || profile.Email == "" {
		return nil, ErrFailedExternalValidation
	}

	user, err := s.users.ByEmail(profile.Email)
	if errors.Is(err, database.ErrUserNotFound) {
		temporaryPassword, err := utils.GenerateTemporaryPassword()
		if err != nil {
			return nil, err
		}
		userName := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
		user, err = s.createUserWithDefaultRole(profile.Email, userName, temporaryPassword)
		if err != nil {
			return nil, err
		}

		s.notify.Emit(notify.TopicSendWelcomeMail, notify.WelcomeMail{
			Email:    profile.Email,
			Password: temporaryPassword,
		})
		log.Printf("[auth] created account %s for federated login", user.Id)
	} else if err != nil {
		return nil, err
	}

	return s.issueTokenPair(user)
}

// refreshToken exchanges a valid refresh token for a fresh token pair. The
// refresh token is rotated on every use; the presented one is never echoed
// back.
// Input:  {"refreshToken": "..."}
// Output: 200 OK {accessToken, refreshToken, userId} | 400 Bad Request | 404 Not Found
func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	claims, err := s.tokens.Verify(req.RefreshToken, utils.TokenTypeRefresh)
	if err != nil {
		writeError(w, ModuleAuth, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err))
		return
	}

	user, err := s.users.ById(claims.Subject)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	response, err := s.issueTokenPair(user)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	log.Printf("[auth] rotated refresh token for user %s", user.Id)
	writeJSON(w, http.StatusOK, response)
}

// forgotPassword issues a single-purpose reset token, persists it with a
// matching expiry, and publishes the reset mail event.
// Input:  {"email": "a@b.c"}
// Output: 204 No Content | 404 Not Found
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	user, err := s.users.ByEmail(req.Email)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	resetToken, err := s.tokens.IssueResetToken(user.Id, user.UserName)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}
	expires := time.Now().UTC().Add(s.tokens.ResetTokenTTL())
	if err := s.users.SetResetToken(user.Id, resetToken, expires); err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	s.notify.Emit(notify.TopicSendResetPasswordMail, notify.ResetPasswordMail{
		Email: user.Email,
		Token: resetToken,
	})

	log.Printf("[auth] reset token issued for user %s", user.Id)
	w.WriteHeader(http.StatusNoContent)
}

// resetPassword sets a new password for the holder of a live reset token.
// Both reset columns are cleared atomically with the password swap. No
// old-password verification is required.
// Input:  {"resetToken": "...", "newPassword": "..."}
// Output: 204 No Content | 404 Not Found | 400 Bad Request (expired/weak)
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetToken  string `json:"resetToken"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, ModuleAuth, err)
		return
	}
	if req.ResetToken == "" {
		writeError(w, ModuleAuth, fmt.Errorf("%w: resetToken is required", ErrValidation))
		return
	}

	user, err := s.users.ByResetToken(req.ResetToken)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	if user.ResetTokenExpires == nil || user.ResetTokenExpires.Before(time.Now()) {
		writeError(w, ModuleAuth, ErrTokenExpired)
		return
	}

	if err := utils.ValidatePasswordComplexity(req.NewPassword); err != nil {
		writeError(w, ModuleAuth, fmt.Errorf("%w: %v", ErrValidation, err))
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, ModuleAuth, err)
		return
	}
	if err := s.users.ResetPassword(user.Id, hash); err != nil {
		writeError(w, ModuleAuth, err)
		return
	}

	log.Printf("[auth] password reset for user %s", user.Id)
	w.WriteHeader(http.StatusNoContent)
}
