package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	MinCodeDigits = 4
	MaxCodeDigits = 10
)

// CodeGenerator produces one-time numeric codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// DigitCodeGenerator draws each digit uniformly from a cryptographically secure source.
type DigitCodeGenerator struct {
	digits int
	reader io.Reader
}

// NewDigitCodeGenerator creates a generator for codes of the given length.
func NewDigitCodeGenerator(digits int) (*DigitCodeGenerator, error) {
	if digits < MinCodeDigits || digits > MaxCodeDigits {
		return nil, fmt.Errorf("otp digits must be between %d and %d, got %d", MinCodeDigits, MaxCodeDigits, digits)
	}

	return &DigitCodeGenerator{digits: digits, reader: rand.Reader}, nil
}

// Digits returns the fixed code length.
func (g *DigitCodeGenerator) Digits() int {
	return g.digits
}

func (g *DigitCodeGenerator) Generate() (string, error) {
	var b strings.Builder
	b.Grow(g.digits)

	ten := big.NewInt(10)
	for i := 0; i < g.digits; i++ {
		n, err := rand.Int(g.reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// HashSecret returns the hex encoded SHA-256 digest of a code or token.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// EqualHashes compares two hex digests in constant time.
func EqualHashes(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
