package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Account numbers are 12-digit integers in [MinAccountNumber, MaxAccountNumber].
const (
	MinAccountNumber int64 = 100000000000
	MaxAccountNumber int64 = 999999999999
)

// GenerateAccountNumber returns a uniformly random 12-digit account number.
func GenerateAccountNumber() (int64, error) {
	span := big.NewInt(MaxAccountNumber - MinAccountNumber + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("failed to generate account number: %w", err)
	}
	return MinAccountNumber + n.Int64(), nil
}

// ValidateAccountNumber reports whether accNo is a 12-digit account number.
func ValidateAccountNumber(accNo int64) bool {
	return accNo >= MinAccountNumber && accNo <= MaxAccountNumber
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
