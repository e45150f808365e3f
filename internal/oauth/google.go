package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Profile is the validated external identity assertion extracted from a
// Google ID token.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
}

// ErrStateMismatch is returned when the callback state nonce is unknown or
// already expired.
var ErrStateMismatch = errors.New("invalid or expired oauth state")

const stateLifetime = 10 * time.Minute

// GoogleProvider drives the Google OIDC authorization-code flow: redirect URL
// generation with CSRF state, code exchange, and ID-token verification.
type GoogleProvider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier

	mu     sync.Mutex
	states map[string]time.Time
}

// NewGoogleProvider initializes the Google OIDC provider. ClientID and secret
// come from process configuration.
func NewGoogleProvider(ctx context.Context, clientId, clientSecret, redirectURL string) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google OIDC provider: %w", err)
	}

	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientId}),
		states:   make(map[string]time.Time),
	}
	log.Printf("[oauth] Google OIDC provider initialized")
	return p, nil
}

// AuthCodeURL generates a CSRF state nonce and returns the Google consent URL
// to redirect the client to.
func (p *GoogleProvider) AuthCodeURL() (string, error) {
	state, err := generateState()
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.states[state] = time.Now().Add(stateLifetime)
	p.cleanExpiredStatesLocked()
	p.mu.Unlock()

	return p.config.AuthCodeURL(state), nil
}

// Exchange validates the state nonce, trades the authorization code for
// tokens, verifies the ID token and extracts the federated profile.
func (p *GoogleProvider) Exchange(ctx context.Context, state, code string) (*Profile, error) {
	p.mu.Lock()
	expiry, ok := p.states[state]
	delete(p.states, state)
	p.mu.Unlock()

	if !ok || time.Now().After(expiry) {
		return nil, ErrStateMismatch
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}
	if claims.Email == "" {
		return nil, errors.New("ID token carries no email claim")
	}

	return &Profile{
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	}, nil
}

// cleanExpiredStatesLocked drops expired state nonces. Caller holds p.mu.
func (p *GoogleProvider) cleanExpiredStatesLocked() {
	now := time.Now()
	for state, expiry := range p.states {
		if now.After(expiry) {
			delete(p.states, state)
		}
	}
}

// generateState creates a random URL-safe state nonce.
func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
