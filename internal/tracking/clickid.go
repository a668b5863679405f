package tracking

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// charset is the URL-safe alphabet of click and campaign identifiers (64 symbols).
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// ClickIDLength is the number of random characters after the prefix.
const ClickIDLength = 16

// RandomCode returns length random characters from charset.
func RandomCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// NewClickID returns prefix followed by ClickIDLength random characters.
func NewClickID(prefix string) (string, error) {
	code, err := RandomCode(ClickIDLength)
	if err != nil {
		return "", err
	}
	return prefix + code, nil
}
