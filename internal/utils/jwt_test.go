package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vesseladmin/internal/models"
)

func testTokenService() *TokenService {
	return NewTokenService([]byte("test-secret-key"), 15*time.Minute, 7*24*time.Hour, time.Hour)
}

func TestIssueAndVerifyTokenTypes(t *testing.T) {
	svc := testTokenService()

	issuers := map[string]func(string, string) (string, error){
		TokenTypeAccess:  svc.IssueAccessToken,
		TokenTypeRefresh: svc.IssueRefreshToken,
		TokenTypeReset:   svc.IssueResetToken,
	}

	for tokenType, issue := range issuers {
		t.Run(tokenType, func(t *testing.T) {
			tokenString, err := issue("user-1", "ada")
			if err != nil {
				t.Fatalf("Failed to issue %s token: %v", tokenType, err)
			}

			claims, err := svc.Verify(tokenString, tokenType)
			if err != nil {
				t.Fatalf("Failed to verify %s token: %v", tokenType, err)
			}
			if claims.Subject != "user-1" {
				t.Errorf("Expected subject user-1, got %q", claims.Subject)
			}
			if claims.UserName != "ada" {
				t.Errorf("Expected userName ada, got %q", claims.UserName)
			}
			if claims.TokenType != tokenType {
				t.Errorf("Expected token type %q, got %q", tokenType, claims.TokenType)
			}
		})
	}
}

// A token of one purpose must never verify as another: a leaked reset token
// cannot be replayed as an access token.
func TestVerifyRejectsWrongTokenType(t *testing.T) {
	svc := testTokenService()

	resetToken, err := svc.IssueResetToken("user-1", "ada")
	if err != nil {
		t.Fatalf("Failed to issue reset token: %v", err)
	}

	for _, wantType := range []string{TokenTypeAccess, TokenTypeRefresh} {
		if _, err := svc.Verify(resetToken, wantType); err == nil {
			t.Errorf("Reset token verified as %s token", wantType)
		}
	}
}

func TestVerifyFailures(t *testing.T) {
	svc := testTokenService()
	otherSvc := NewTokenService([]byte("another-secret"), 15*time.Minute, time.Hour, time.Hour)

	validToken, err := svc.IssueAccessToken("user-1", "ada")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	expiredSvc := NewTokenService([]byte("test-secret-key"), -time.Minute, time.Hour, time.Hour)
	expiredToken, err := expiredSvc.IssueAccessToken("user-1", "ada")
	if err != nil {
		t.Fatalf("Failed to issue expired token: %v", err)
	}

	// None-algorithm token, to confirm the signing-method check holds.
	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, &models.Claims{
		UserName:  "ada",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noneTokenString, err := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to create none token: %v", err)
	}

	wrongKeyToken, err := otherSvc.IssueAccessToken("user-1", "ada")
	if err != nil {
		t.Fatalf("Failed to issue token with other key: %v", err)
	}

	tests := []struct {
		name        string
		tokenString string
		shouldError bool
	}{
		{"Valid token", validToken, false},
		{"Expired token", expiredToken, true},
		{"Wrong signing key", wrongKeyToken, true},
		{"None algorithm", noneTokenString, true},
		{"Malformed token", "not.a.token", true},
		{"Empty token", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.tokenString, TokenTypeAccess)
			if tt.shouldError && err == nil {
				t.Error("Expected verification error, got none")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected verification error: %v", err)
			}
		})
	}
}
