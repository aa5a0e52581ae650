// Package auth provides authentication primitives and the access policy for
// ProjectHub.
//
// It implements a two-tier permission model (standard and elevated) with:
//   - Argon2id secret hashing, with bcrypt digests accepted on verify
//   - Stateless HS256 session tokens carrying sub, email and permissionLevel
//   - A route gate, an ownership gate and an account field gate, all pure
//     functions over a Caller
//
// The token's embedded permission level is advisory. Every decision uses a
// Caller built from the live account record.
package auth
