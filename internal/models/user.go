package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents a directory user with credentials and assigned roles.
// The password hash and reset-token columns never leave the server; they are
// excluded at the serialization boundary.
type User struct {
	Id                string     `json:"id"`
	UserName          string     `json:"userName"`
	Email             string     `json:"email"`
	Password          string     `json:"-"`
	IsActive          bool       `json:"isActive"`
	ResetToken        *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	Roles             []Role     `json:"roles,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Claims defines the custom JWT claims structure, embedding standard registered
// claims and adding the user name and the token type ("access", "refresh" or
// "reset"). The user id travels in the registered Subject claim.
type Claims struct {
	UserName  string `json:"userName"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// AuthResponse is returned from the login, OAuth and refresh flows.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserId       string `json:"userId"`
}
