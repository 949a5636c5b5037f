package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// GenerateSecret generates a cryptographically secure random secret
func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashIP returns a salted, keyed digest of an IP address so the registry
// never stores raw addresses. An empty ip hashes to "".
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}

	var key []byte
	if salt != "" {
		key = []byte(salt)
		if len(key) > blake2b.Size {
			key = key[:blake2b.Size]
		}
	}

	h, err := blake2b.New256(key)
	if err != nil {
		// Only reachable with an oversized key, which is truncated above
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}
