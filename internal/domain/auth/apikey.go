// Package auth defines the API key identity used to authenticate requests.
// A key's ID doubles as the storefront user identifier: carts and orders are
// scoped to it.
package auth

import "context"

// Scope names understood by the HTTP layer.
const (
	ScopeUser  = "user"
	ScopeAdmin = "admin"
)

// Identity holds the identity and permission data for a validated API key.
type Identity struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the identity carries the given scope.
func (i *Identity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Identity, error)
}
