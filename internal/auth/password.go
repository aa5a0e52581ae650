package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns a plaintext secret into a one-way digest and checks candidates
// against it. Verify must compare in constant time.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// ErrMalformedDigest is returned by Verify when the stored digest cannot be parsed.
var ErrMalformedDigest = errors.New("malformed secret digest")

// ErrSecretTooLong is returned by BcryptHasher.Hash for input longer than
// MaxBcryptSecretBytes.
var ErrSecretTooLong = errors.New("secret exceeds the bcrypt input limit")

// MaxBcryptSecretBytes is the longest input bcrypt accepts.
const MaxBcryptSecretBytes = 72

// Argon2Params are the Argon2id cost parameters.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLength uint32
	SaltLen   uint32
}

// DefaultArgon2Params follows the OWASP 2025 recommendation.
var DefaultArgon2Params = Argon2Params{
	Time:      3,
	MemoryKiB: 64 * 1024,
	Threads:   1,
	KeyLength: 32,
	SaltLen:   16,
}

// Argon2Hasher produces Argon2id digests in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
type Argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher creates an Argon2id hasher. Zero fields fall back to
// DefaultArgon2Params.
func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	if p.Time == 0 {
		p.Time = DefaultArgon2Params.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultArgon2Params.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2Params.Threads
	}
	if p.KeyLength == 0 {
		p.KeyLength = DefaultArgon2Params.KeyLength
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgon2Params.SaltLen
	}
	return &Argon2Hasher{params: p}
}

// Hash hashes a plaintext secret with a fresh random salt.
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks a plaintext secret against an Argon2id PHC digest. The
// parameters embedded in the digest are used, not the hasher's own.
func (h *Argon2Hasher) Verify(plaintext, digest string) (bool, error) {
	salt, hash, params, err := decodePHC(digest)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, params.time, params.memory, params.threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

// decodePHC parses an Argon2id PHC string format into its components.
func decodePHC(encoded string) (salt, hash []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // PHC format has exactly 6 $-delimited parts
		return nil, nil, params, fmt.Errorf("%w: invalid PHC format", ErrMalformedDigest)
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("%w: unsupported algorithm %s", ErrMalformedDigest, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("%w: parsing version: %w", ErrMalformedDigest, err)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("%w: parsing parameters: %w", ErrMalformedDigest, err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("%w: decoding salt: %w", ErrMalformedDigest, err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, nil, params, fmt.Errorf("%w: decoding hash", ErrMalformedDigest)
	}

	return salt, hash, params, nil
}

// BcryptHasher produces bcrypt digests ($2a$...).
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt hasher. A cost outside bcrypt's accepted
// range falls back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash hashes a plaintext secret. bcrypt refuses input over 72 bytes, which
// a 50-character secret can exceed once it leaves ASCII.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxBcryptSecretBytes {
		return "", ErrSecretTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify checks a plaintext secret against a bcrypt digest.
func (h *BcryptHasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedDigest, err)
	}
}

// MultiHasher hashes with a primary algorithm and verifies any digest whose
// format it recognises, so digests created under another algorithm stay valid.
type MultiHasher struct {
	primary Hasher
	argon   *Argon2Hasher
	bcrypt  *BcryptHasher
}

// NewMultiHasher builds a MultiHasher. primary is "argon2id" or "bcrypt".
func NewMultiHasher(primary string, argonParams Argon2Params, bcryptCost int) (*MultiHasher, error) {
	m := &MultiHasher{
		argon:  NewArgon2Hasher(argonParams),
		bcrypt: NewBcryptHasher(bcryptCost),
	}
	switch primary {
	case "argon2id", "":
		m.primary = m.argon
	case "bcrypt":
		m.primary = m.bcrypt
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", primary)
	}
	return m, nil
}

// Hash hashes with the primary algorithm.
func (m *MultiHasher) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

// Verify dispatches on the digest prefix.
func (m *MultiHasher) Verify(plaintext, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return m.argon.Verify(plaintext, digest)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return m.bcrypt.Verify(plaintext, digest)
	default:
		return false, fmt.Errorf("%w: unrecognised digest format", ErrMalformedDigest)
	}
}
