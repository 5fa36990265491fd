package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters for operator API keys. Sized for interactive
// login: the key is hashed once per token grant, not per request.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB, so 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashAPIKey derives an Argon2id hash of an operator API key, encoded as a
// PHC string ($argon2id$v=19$m=...,t=...,p=...$salt$digest). The cost
// parameters travel inside the hash, so they can be raised later without
// invalidating keys already on file.
func HashAPIKey(apiKey string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(apiKey), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// VerifyAPIKey reports whether apiKey matches the stored PHC hash,
// re-deriving with the parameters recorded in the hash itself.
func VerifyAPIKey(apiKey, encoded string) (bool, error) {
	params, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(apiKey), salt, params.time, params.memory, params.threads, uint32(len(want)))

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// DummyVerify burns the same Argon2id work as a real verification. The
// token handler calls it when the operator is unknown or has no key on
// file, so a login probe cannot tell "wrong key" from "no such operator"
// by response timing.
func DummyVerify() {
	argon2.IDKey([]byte("placeholder"), make([]byte, argonSaltLen), argonTime, argonMemory, argonThreads, argonKeyLen)
}

type hashParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

// decodeHash splits a PHC argon2id string into its parameters, salt, and
// digest.
func decodeHash(encoded string) (hashParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	// The leading "$" produces an empty first element.
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return hashParams{}, nil, nil, fmt.Errorf("auth: malformed key hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return hashParams{}, nil, nil, fmt.Errorf("auth: unsupported argon2 version in key hash")
	}

	var p hashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return hashParams{}, nil, nil, fmt.Errorf("auth: malformed key hash parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return hashParams{}, nil, nil, fmt.Errorf("auth: decode salt: %w", err)
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return hashParams{}, nil, nil, fmt.Errorf("auth: decode digest: %w", err)
	}
	return p, salt, digest, nil
}
