// Package account manages ProjectHub accounts: registration, lookup, partial
// edits and removal, each gated by the auth policy.
//
// The store's UNIQUE constraint on email_address is authoritative. Services
// pre-check for a duplicate to return a friendly conflict, and map a
// constraint violation from a concurrent writer to the same ErrEmailExists.
package account
