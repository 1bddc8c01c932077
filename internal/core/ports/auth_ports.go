package ports

import (
	"context"

	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

// TokenStore persists the bearer tokens. The client mirrors them into more
// than one store (a script-readable file and the cookie pair).
type TokenStore interface {
	Load(ctx context.Context) (domain.Tokens, error)
	Save(ctx context.Context, tokens domain.Tokens) error
	Clear(ctx context.Context) error
}

// AuthProvider is the external OAuth provider.
type AuthProvider interface {
	AuthorizeURL(redirectTo string) (string, error)
	SignOut(ctx context.Context, tokens domain.Tokens) error
}
