// Package passwords generates the credentials issued on registration
// approval.
package passwords

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	DefaultLength = 16
	MinLength     = 12

	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%*_-"
)

// Generate returns a random password of the given length drawn from
// letters, digits and a small symbol set. Lengths below MinLength are
// rejected.
func Generate(length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("password length must be at least %d characters", MinLength)
	}

	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateDefault returns a password of DefaultLength.
func GenerateDefault() (string, error) {
	return Generate(DefaultLength)
}
