// Package pkce implements the Proof Key for Code Exchange parameters
// (RFC 7636) used by the authorization-code flow.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// verifierLength is the number of characters in a generated code
	// verifier, the maximum RFC 7636 permits.
	verifierLength = 128

	// verifierAlphabet is the unreserved character set RFC 7636 allows in a
	// code verifier.
	verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"
)

// Generator produces PKCE material. The zero value is ready to use.
type Generator struct{}

// GenerateCodeVerifier returns a fresh 128-character verifier.
func (Generator) GenerateCodeVerifier() (string, error) {
	return GenerateCodeVerifier()
}

// GenerateCodeChallenge returns the S256 challenge for verifier.
func (Generator) GenerateCodeChallenge(verifier string) string {
	return GenerateCodeChallenge(verifier)
}

// GenerateCodeVerifier returns a 128-character string drawn uniformly at
// random from the RFC 7636 unreserved alphabet. A verifier is scoped to a
// single authentication attempt and must never be persisted or reused.
func GenerateCodeVerifier() (string, error) {
	// Rejection sampling keeps the selection uniform: 198 is the largest
	// multiple of len(verifierAlphabet) that fits in a byte.
	const limit = byte(3 * len(verifierAlphabet))

	out := make([]byte, 0, verifierLength)
	buf := make([]byte, 64)
	for len(out) < verifierLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, verifierAlphabet[int(b)%len(verifierAlphabet)])
			if len(out) == verifierLength {
				break
			}
		}
	}
	return string(out), nil
}

// GenerateCodeChallenge returns the S256 code challenge for verifier: the
// base64url encoding, without padding, of the SHA-256 digest of its bytes.
func GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
