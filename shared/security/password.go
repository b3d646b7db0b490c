package security

import (
	"sync"

	"github.com/matthewhartstonge/argon2"
)

var (
	argon = argon2.DefaultConfig()

	dummyHashOnce sync.Once
	dummyHash     []byte
)

// HashPassword hashes a password with argon2id and returns the PHC encoded hash.
func HashPassword(password string) (string, error) {
	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded argon2 hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}

// VerifyDummyPassword burns the same work as VerifyPassword against a throwaway
// hash so that callers can keep response times uniform for unknown accounts.
func VerifyDummyPassword(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = argon.HashEncoded([]byte("tezrent-dummy-password"))
	})
	if dummyHash == nil {
		return
	}

	_, _ = argon2.VerifyEncoded([]byte(password), dummyHash)
}
