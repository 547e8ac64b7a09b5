package utils

import "golang.org/x/crypto/bcrypt"

// Password length bounds. bcrypt refuses inputs longer than 72 bytes.
const (
	MinPasswordLen   = 6
	MaxPasswordBytes = 72
)

// HashPassword hashes a given password using bcrypt at the given cost.
// Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with its hashed version.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
