package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// HashingCost defines the computational complexity (logarithmic) for bcrypt.
	// Cost 12 is currently considered secure against brute-force attacks on modern hardware.
	HashingCost = 12
	// BcryptMaxBytes is the hard limit for password length in bcrypt (72 bytes).
	BcryptMaxBytes = 72
	// TemporaryPasswordLength is the length of generated first-login passwords.
	TemporaryPasswordLength = 16
)

// HashPassword generates a secure bcrypt hash of the provided plain-text password.
// It returns an error if the password length exceeds the bcrypt maximum.
func HashPassword(password string) (string, error) {
	// Bcrypt truncates passwords longer than 72 bytes. We explicitly reject them
	// to prevent users from thinking their long password is fully used.
	if len(password) > BcryptMaxBytes {
		return "", fmt.Errorf("password exceeds maximum allowed length of %d bytes", BcryptMaxBytes)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashingCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash securely compares a plain-text password with a bcrypt hash.
// It returns true only if the password matches the hash. Mismatches are never
// surfaced as errors.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePasswordComplexity validates a user-chosen password.
// It enforces: 8-32 chars, 1 upper, 1 lower, 1 number, 1 special.
func ValidatePasswordComplexity(password string) error {
	if len(password) < 8 || len(password) > 32 {
		return errors.New("password length must be between 8 and 32 characters")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber || !hasSpecial {
		return errors.New("password must contain at least one uppercase, one lowercase, one number, and one special character")
	}

	return nil
}

const (
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars   = "abcdefghijkmnpqrstuvwxyz"
	numberChars  = "23456789"
	specialChars = "!@#$%^&*-_=+"
)

// GenerateTemporaryPassword creates a random password for OAuth first-login
// accounts. The result always satisfies ValidatePasswordComplexity so the
// account stays usable until the user picks their own password.
func GenerateTemporaryPassword() (string, error) {
	all := upperChars + lowerChars + numberChars + specialChars
	buf := make([]byte, TemporaryPasswordLength)

	// Guarantee one character of every class, fill the rest from the full set.
	classes := []string{upperChars, lowerChars, numberChars, specialChars}
	for i := range buf {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		buf[i] = set[n.Int64()]
	}

	// Shuffle so the class-guaranteed characters are not positionally predictable.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to shuffle password: %w", err)
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}
