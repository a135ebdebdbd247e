package secrets

import (
	"context"
	"errors"
)

// Sentinel errors for the managed secret store.
var (
	ErrSecretNotFound   = errors.New("secret not found")
	ErrPermissionDenied = errors.New("secret access denied")
)

// Store is the managed secret store consumed by the resolver.
// Implementations must be safe for concurrent use.
type Store interface {
	// Fetch returns the secret value for a reference. Returns
	// ErrSecretNotFound or ErrPermissionDenied as appropriate.
	Fetch(ctx context.Context, ref string) (string, error)

	// CreateOrUpdate writes a secret value under the given reference,
	// creating it if absent. Labels are attached on creation.
	CreateOrUpdate(ctx context.Context, ref, value string, labels map[string]string) error
}
