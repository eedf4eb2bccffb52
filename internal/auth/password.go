package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/secureleak/report-service/internal/config"
)

// Hasher produces and verifies Argon2id password hashes in the standard
// PHC string format ($argon2id$v=19$m=...,t=...,p=...$salt$hash). The cost
// parameters are embedded in every hash, so verification works across
// parameter changes and NeedsRehash can flag stale hashes.
type Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

// NewHasher builds a hasher with the configured cost parameters.
func NewHasher(cfg config.AuthConfig) *Hasher {
	h := &Hasher{
		time:    cfg.ArgonTime,
		memory:  cfg.ArgonMemory,
		threads: cfg.ArgonThreads,
		keyLen:  cfg.ArgonKeyLen,
		saltLen: cfg.ArgonSaltLen,
	}
	if h.time == 0 {
		h.time = 3
	}
	if h.memory == 0 {
		h.memory = 64 * 1024
	}
	if h.threads == 0 {
		h.threads = 2
	}
	if h.keyLen == 0 {
		h.keyLen = 32
	}
	if h.saltLen == 0 {
		h.saltLen = 16
	}
	return h
}

// Hash derives an Argon2id hash for the password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether password matches the stored hash. Malformed
// stored hashes count as a mismatch; this never returns an error so
// callers cannot leak failure detail.
func (h *Hasher) Verify(encoded, password string) bool {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// NeedsRehash reports whether the stored hash was produced with cost
// parameters different from the currently configured ones.
func (h *Hasher) NeedsRehash(encoded string) bool {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	return params.time != h.time ||
		params.memory != h.memory ||
		params.threads != h.threads ||
		uint32(len(salt)) != h.saltLen ||
		uint32(len(key)) != h.keyLen
}

type hashParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

var errMalformedHash = errors.New("malformed argon2id hash")

func decodeHash(encoded string) (hashParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return hashParams{}, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}
	if version != argon2.Version {
		return hashParams{}, nil, nil, errMalformedHash
	}

	var params hashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}
	if len(salt) == 0 || len(key) == 0 {
		return hashParams{}, nil, nil, errMalformedHash
	}
	return params, salt, key, nil
}
