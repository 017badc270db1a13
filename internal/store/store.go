// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
)

// CredentialKey is the fixed name the bearer credential is persisted under.
const CredentialKey = "claudehaus_token"

// CredentialStore holds the current bearer credential. At most one credential
// is current; writes are last-write-wins.
type CredentialStore interface {
	// GetCredential returns the stored credential and whether one exists.
	GetCredential(ctx context.Context) (string, bool, error)

	// SetCredential replaces the stored credential.
	SetCredential(ctx context.Context, token string) error

	// ClearCredential removes the stored credential. Clearing an empty store is not an error.
	ClearCredential(ctx context.Context) error

	// Close releases the underlying storage.
	Close() error
}
