// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Iterations matches the cost used for all stored verification
// code hashes; changing it invalidates outstanding codes.
const pbkdf2Iterations = 100_000

// GenerateToken creates a random auth token. The clear token goes to
// the client; only its HMAC (HashToken) is stored.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex HMAC-SHA256 of a token under the signing
// key. Tokens are looked up by this value, so the database never holds
// anything a thief could replay.
func HashToken(token, signingKey string) string {
	h := hmac.New(sha256.New, []byte(signingKey))
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// NewVerificationCode creates a 6-digit SMS verification code.
func NewVerificationCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	code := make([]byte, 6)
	for i, n := range b {
		code[i] = '0' + n%10
	}
	return string(code), nil
}

// NewCodeSalt creates the per-code salt stored alongside a
// verification code hash.
func NewCodeSalt() ([]byte, error) {
	b := make([]byte, 128)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return b, nil
}

// HashCode derives the stored hash for a verification code.
// PBKDF2-HMAC-SHA512 keeps brute-forcing a 6-digit space expensive.
func HashCode(code string, salt []byte) []byte {
	return pbkdf2.Key([]byte(code), salt, pbkdf2Iterations, sha512.Size, sha512.New)
}

// VerifyCode checks a submitted code against the stored hex salt and
// hash in constant time.
func VerifyCode(code, saltHex, hashHex string) bool {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	stored, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}
	return hmac.Equal(stored, HashCode(code, salt))
}
