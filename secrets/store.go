package secrets

import "context"

// Store is the backing secret store the key cache reads through.
// Implementations must fail when the identifier is absent or access is denied.
type Store interface {
	Fetch(ctx context.Context, secretID string) ([]byte, error)
}
