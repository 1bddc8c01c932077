package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

type UserAPI interface {
	// CurrentUser resolves the owner of accessToken. An empty token falls
	// back to whatever the client's token store holds.
	CurrentUser(ctx context.Context, accessToken string) domain.Envelope[domain.User]
}

// UserCache memoises token to user lookups.
type UserCache interface {
	Get(ctx context.Context, accessToken string) (*domain.User, bool)
	Set(ctx context.Context, accessToken string, user domain.User, ttl time.Duration) error
	Delete(ctx context.Context, accessToken string) error
}
