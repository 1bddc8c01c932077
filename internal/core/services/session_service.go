package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
)

const (
	defaultUserCacheTTL = 5 * time.Minute
	revokeTimeout       = 10 * time.Second
)

// LoginCallback is what the provider hands back after a successful sign in.
type LoginCallback struct {
	Tokens   domain.Tokens
	ReturnTo string
}

type SessionService struct {
	users    ports.UserAPI
	provider ports.AuthProvider
	cache    ports.UserCache
	cacheTTL time.Duration
	log      zerolog.Logger

	revoking sync.WaitGroup
}

type SessionOption func(*SessionService)

func WithUserCache(cache ports.UserCache, ttl time.Duration) SessionOption {
	return func(s *SessionService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(s *SessionService) { s.log = log }
}

func NewSessionService(users ports.UserAPI, provider ports.AuthProvider, opts ...SessionOption) *SessionService {
	s := &SessionService{
		users:    users,
		provider: provider,
		cacheTTL: defaultUserCacheTTL,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve turns whatever tokens the store holds into a session. A missing
// token is an anonymous session, not an error. A token the backend refuses
// signs the caller out.
func (s *SessionService) Resolve(ctx context.Context, store ports.TokenStore) (domain.Session, error) {
	tokens, err := store.Load(ctx)
	if err != nil || !tokens.Valid() {
		return domain.Session{}, nil
	}

	if user, ok := s.cachedUser(ctx, tokens.AccessToken); ok {
		return domain.Session{}.Login(*user, tokens), nil
	}

	env := s.users.CurrentUser(ctx, tokens.AccessToken)
	if !env.Success {
		s.log.Warn().Int("status", env.Status).Str("message", env.Message).Msg("Stored session rejected, signing out.")
		s.SignOut(ctx, store, domain.Session{Tokens: tokens})
		return domain.Session{}, fmt.Errorf("failed to resolve session: %w", env.Err())
	}

	s.remember(ctx, tokens.AccessToken, env.Data)
	return domain.Session{}.Login(env.Data, tokens), nil
}

// CompleteLogin verifies the tokens from the provider callback, persists them
// and returns where the browser should go next.
func (s *SessionService) CompleteLogin(ctx context.Context, store ports.TokenStore, cb LoginCallback) (domain.Session, string, error) {
	if cb.Tokens.AccessToken == "" || cb.Tokens.RefreshToken == "" {
		return domain.Session{}, "", ErrMissingTokens
	}

	env := s.users.CurrentUser(ctx, cb.Tokens.AccessToken)
	if !env.Success {
		return domain.Session{}, "", fmt.Errorf("failed to fetch current user: %w", env.Err())
	}

	if err := store.Save(ctx, cb.Tokens); err != nil {
		return domain.Session{}, "", fmt.Errorf("failed to save tokens: %w", err)
	}
	s.remember(ctx, cb.Tokens.AccessToken, env.Data)

	s.log.Info().Str("email", env.Data.Email).Msg("Signed in.")
	return domain.Session{}.Login(env.Data, cb.Tokens), SafeReturnPath(cb.ReturnTo), nil
}

// SignOut clears the store right away. Revoking the refresh token with the
// provider happens in the background.
func (s *SessionService) SignOut(ctx context.Context, store ports.TokenStore, session domain.Session) domain.Session {
	if err := store.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear stored tokens.")
	}

	tokens := session.Tokens
	if s.cache != nil && tokens.AccessToken != "" {
		if err := s.cache.Delete(ctx, tokens.AccessToken); err != nil {
			s.log.Debug().Err(err).Msg("Failed to evict cached user.")
		}
	}

	if s.provider != nil && tokens.Valid() {
		s.revoking.Add(1)
		go func() {
			defer s.revoking.Done()

			revokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
			defer cancel()

			if err := s.provider.SignOut(revokeCtx, tokens); err != nil {
				s.log.Warn().Err(err).Msg("Failed to revoke session with provider.")
				return
			}
			s.log.Debug().Msg("Session revoked with provider.")
		}()
	}

	return session.Logout()
}

// Wait blocks until every background revocation has finished.
func (s *SessionService) Wait() {
	s.revoking.Wait()
}

func (s *SessionService) cachedUser(ctx context.Context, accessToken string) (*domain.User, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, accessToken)
}

func (s *SessionService) remember(ctx context.Context, accessToken string, user domain.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, accessToken, user, s.cacheTTL); err != nil {
		s.log.Debug().Err(err).Msg("Failed to cache user.")
	}
}

// SafeReturnPath keeps only local absolute paths so a callback parameter
// cannot send the browser to another host.
func SafeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return raw
}
