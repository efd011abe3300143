// Package identity implements registration, login, node binding, and
// role elevation (§4.5): everything that turns a caller's address and
// typed password into an authenticated, role-bearing Player.
package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/meshbbs/core/internal/config"
)

const saltLen = 16

// HashPassword derives a salted Argon2id hash, encoding the salt and
// the KDF parameters alongside the digest so future logins verify
// correctly even after a config change bumps the cost parameters
// (§4.5: "memory-hard KDF, parameters in config").
func HashPassword(cfg config.IdentityConfig, password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("identity: generate salt: %w", err)
	}
	digest := argon2.IDKey([]byte(password), salt, cfg.Argon2Time, cfg.Argon2MemKB, cfg.Argon2Threads, cfg.Argon2KeyLen)
	return encodeHash(cfg, salt, digest), nil
}

// VerifyPassword reports whether password matches the encoded hash
// produced by HashPassword, re-deriving with the parameters recorded
// in the hash itself rather than the caller's current config — so a
// config change doesn't lock out accounts hashed under old parameters.
func VerifyPassword(encoded, password string) (bool, error) {
	cfg, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, cfg.Argon2Time, cfg.Argon2MemKB, cfg.Argon2Threads, cfg.Argon2KeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// encodeHash serializes as "argon2id$t=<time>,m=<mem>,p=<threads>$<salt>$<digest>",
// both halves base64-raw-url encoded, following the same self-describing
// shape the Argon2 reference implementations use.
func encodeHash(cfg config.IdentityConfig, salt, digest []byte) string {
	return fmt.Sprintf("argon2id$t=%d,m=%d,p=%d$%s$%s",
		cfg.Argon2Time, cfg.Argon2MemKB, cfg.Argon2Threads,
		base64.RawURLEncoding.EncodeToString(salt),
		base64.RawURLEncoding.EncodeToString(digest),
	)
}

func decodeHash(encoded string) (config.IdentityConfig, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != "argon2id" {
		return config.IdentityConfig{}, nil, nil, fmt.Errorf("identity: malformed hash")
	}
	var cfg config.IdentityConfig
	var keyLen int
	if _, err := fmt.Sscanf(parts[1], "t=%d,m=%d,p=%d", &cfg.Argon2Time, &cfg.Argon2MemKB, &cfg.Argon2Threads); err != nil {
		return config.IdentityConfig{}, nil, nil, fmt.Errorf("identity: malformed hash params: %w", err)
	}
	salt, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return config.IdentityConfig{}, nil, nil, fmt.Errorf("identity: malformed salt: %w", err)
	}
	digest, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return config.IdentityConfig{}, nil, nil, fmt.Errorf("identity: malformed digest: %w", err)
	}
	keyLen = len(digest)
	cfg.Argon2KeyLen = uint32(keyLen)
	return cfg, salt, digest, nil
}
