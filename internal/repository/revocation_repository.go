package repository

import (
	"context"
	"database/sql"
)

// RevocationRepo persists the ledger of logged-out session tokens. Rows are
// keyed by the SHA-256 digest of the token (single unique 'token_digest'
// column) and are never updated or deleted; the guard consults the ledger
// on every protected request.
type RevocationRepo struct{ DB *sql.DB }

func NewRevocationRepo(db *sql.DB) *RevocationRepo { return &RevocationRepo{DB: db} }

// Revoke inserts a ledger row for the digest. Revoking a digest that is
// already present is a no-op success, so a double logout cannot surface a
// confusing failure. The insert is committed before this returns, which is
// what guarantees a replayed token is rejected on the very next request.
func (r *RevocationRepo) Revoke(ctx context.Context, digest string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO revoked_tokens (token_digest) VALUES (?)", digest)
	if err != nil && isDuplicateKey(err) {
		return nil
	}
	return err
}

// IsRevoked reports whether the digest appears in the ledger.
func (r *RevocationRepo) IsRevoked(ctx context.Context, digest string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token_digest=?)", digest).Scan(&exists)
	return exists, err
}
