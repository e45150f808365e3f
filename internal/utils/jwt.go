package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vesseladmin/internal/models"
)

// Token types carried in the "typ" claim. Each issued token is single-purpose:
// the verifier rejects a token presented for a different purpose, so a leaked
// reset token can never authenticate a request.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

const tokenIssuer = "vessel-admin-user-service"

// ErrInvalidToken is returned for any verification failure: bad signature,
// expired token, or wrong token type.
var ErrInvalidToken = errors.New("token is invalid")

// TokenService signs and verifies the three token kinds with a process-wide
// HS256 secret. Tokens are self-contained; verification never touches storage.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenService creates a token service keyed by the shared signing secret.
func NewTokenService(secret []byte, accessTTL, refreshTTL, resetTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// IssueAccessToken creates a short-lived access token for the given user.
func (s *TokenService) IssueAccessToken(userId, userName string) (string, error) {
	return s.issue(TokenTypeAccess, userId, userName, s.accessTTL)
}

// IssueRefreshToken creates a long-lived refresh token for the given user.
func (s *TokenService) IssueRefreshToken(userId, userName string) (string, error) {
	return s.issue(TokenTypeRefresh, userId, userName, s.refreshTTL)
}

// IssueResetToken creates a single-purpose password-reset token.
func (s *TokenService) IssueResetToken(userId, userName string) (string, error) {
	return s.issue(TokenTypeReset, userId, userName, s.resetTTL)
}

// ResetTokenTTL exposes the reset-token lifetime so callers can persist a
// matching expiry next to the token.
func (s *TokenService) ResetTokenTTL() time.Duration {
	return s.resetTTL
}

func (s *TokenService) issue(tokenType, userId, userName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		UserName:  userName,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses and validates a token string, requiring it to be of the given
// type. Any failure (signature, expiry, wrong type) collapses to ErrInvalidToken.
func (s *TokenService) Verify(tokenString, wantType string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.TokenType)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims, nil
}
