// Package session implements the token-to-user mapping behind every
// authenticated call. Tokens are opaque 128-bit random values stored in a
// TTL key-value store; an absent token is always reported as unauthorized,
// never distinguishing "expired" from "never existed".
package session

import "context"

// Store issues, resolves and revokes session tokens.
type Store interface {
	// Issue generates a fresh token for the user and stores it with the
	// configured TTL.
	Issue(ctx context.Context, userID string) (string, error)

	// Resolve returns the user id behind a live token. It does not refresh
	// the TTL. A missing or expired token yields common.ErrorUnauthorized.
	Resolve(ctx context.Context, token string) (string, error)

	// Revoke deletes the token unconditionally. Revoking an absent token is
	// a no-op success.
	Revoke(ctx context.Context, token string) error
}
