package model

import "time"

// RevokedToken models an entry in the `revoked_tokens` table, the ledger of
// session tokens invalidated by logout before their natural expiry. Only a
// SHA-256 digest of the token is stored; the digest column carries a unique
// index so revoking the same token twice cannot create a second row. Entries
// are never updated or pruned.
type RevokedToken struct {
	ID          uint64    // revoked_tokens.id
	TokenDigest string    // revoked_tokens.token_digest (SHA-256 hex)
	RevokedAt   time.Time // revoked_tokens.revoked_at
}
