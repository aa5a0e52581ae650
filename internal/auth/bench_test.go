package auth

import (
	"testing"
	"time"
)

// ─── Secret hashing (Argon2id, intentionally slow) ─────────────────

func BenchmarkArgon2Hash(b *testing.B) {
	h := NewArgon2Hasher(DefaultArgon2Params)
	for i := 0; i < b.N; i++ {
		h.Hash("correct-horse-battery-staple") //nolint:errcheck // benchmark
	}
}

func BenchmarkArgon2Verify(b *testing.B) {
	h := NewArgon2Hasher(DefaultArgon2Params)
	digest, err := h.Hash("correct-horse-battery-staple")
	if err != nil {
		b.Fatalf("Hash: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Verify("correct-horse-battery-staple", digest) //nolint:errcheck // benchmark
	}
}

// ─── Session tokens (per-request hot path) ──────────────────────────

func BenchmarkVerifyToken(b *testing.B) {
	issuer, err := NewTokenIssuer("benchmark-secret-key-32-bytes-xx", time.Hour)
	if err != nil {
		b.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := issuer.Issue(Caller{AccountID: "acc-bench", PermissionLevel: LevelElevated})
	if err != nil {
		b.Fatalf("Issue: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		issuer.Verify(token) //nolint:errcheck // benchmark
	}
}

// ─── Policy (pure, called on every request) ─────────────────────────

func BenchmarkAuthorizeAccountEdit(b *testing.B) {
	caller := Caller{AccountID: "acc-a", PermissionLevel: LevelStandard}
	changes := NewFieldSet(FieldGivenName, FieldFamilyName)
	for i := 0; i < b.N; i++ {
		AuthorizeAccountEdit(caller, "acc-a", changes) //nolint:errcheck // benchmark
	}
}
