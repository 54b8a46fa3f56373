// ABOUTME: Password strength checks and bcrypt hashing for ClearML server users
// ABOUTME: Produces the base64 cipher password written by user genpass
package password

import (
	"encoding/base64"
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 12

	// MinLength is the minimum required password length in characters
	MinLength = 8
)

// ErrWeakPassword is returned for passwords failing the strength rules
var ErrWeakPassword = errors.New("password must be at least 8 characters long, must contain a number, and must contain a upper case letter and a lower case letter")

// cost is lowered in tests
var cost = BcryptCost

// Credentials is a username with its encoded bcrypt hash
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that plain has at least MinLength characters and contains
// an upper case letter, a lower case letter and a digit
func Validate(plain string) error {
	if utf8.RuneCountInString(plain) < MinLength {
		return ErrWeakPassword
	}

	var upper, lower, digit bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}

// Hash validates plain and returns its bcrypt hash
func Hash(plain string) ([]byte, error) {
	if err := Validate(plain); err != nil {
		return nil, err
	}
	return bcrypt.GenerateFromPassword([]byte(plain), cost)
}

// NewCredentials hashes plain and base64-encodes the hash
func NewCredentials(username, plain string) (Credentials, error) {
	if username == "" {
		return Credentials{}, errors.New("username is required")
	}
	hash, err := Hash(plain)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Username: username,
		Password: base64.StdEncoding.EncodeToString(hash),
	}, nil
}

// Check reports whether plain matches an encoded cipher password
func Check(plain, encoded string) bool {
	hash, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}
