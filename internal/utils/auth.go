package utils

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent.
// Returns true if the password and hash match, false otherwise.
func CheckPassword(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[ !@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

// ValidatePasswordPolicy checks a new password against the account policy.
// It returns false and the message shown to the user when the password is rejected.
func ValidatePasswordPolicy(password string) (bool, string) {
	switch {
	case len(password) < 8:
		return false, "A senha deve ter pelo menos 8 caracteres."
	case !upperRe.MatchString(password):
		return false, "A senha deve conter pelo menos uma letra maiúscula."
	case !lowerRe.MatchString(password):
		return false, "A senha deve conter pelo menos uma letra minúscula."
	case !digitRe.MatchString(password):
		return false, "A senha deve conter pelo menos um número."
	case !specialRe.MatchString(password):
		return false, "A senha deve conter pelo menos um caractere especial."
	}
	return true, "Senha válida."
}
