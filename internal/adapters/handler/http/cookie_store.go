package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/vncsmyrnk/campuspoll/internal/adapters/storage"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	refreshTokenMaxAge = 7 * 24 * 60 * 60
)

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

var _ ports.TokenStore = (*cookieStore)(nil)

// cookieStore is the token pair carried by one browser request. Writes go
// to the response and are visible to later Loads in the same request.
type cookieStore struct {
	r      *http.Request
	w      http.ResponseWriter
	config CookieConfig

	written *domain.Tokens
}

func newCookieStore(w http.ResponseWriter, r *http.Request, config CookieConfig) *cookieStore {
	return &cookieStore{r: r, w: w, config: config}
}

func (s *cookieStore) Load(context.Context) (domain.Tokens, error) {
	if s.written != nil {
		if !s.written.Valid() {
			return domain.Tokens{}, storage.ErrNoTokens
		}
		return *s.written, nil
	}

	access, err := s.r.Cookie(accessTokenCookie)
	if err != nil || access.Value == "" {
		return domain.Tokens{}, storage.ErrNoTokens
	}
	tokens := domain.Tokens{AccessToken: access.Value}
	if refresh, err := s.r.Cookie(refreshTokenCookie); err == nil {
		tokens.RefreshToken = refresh.Value
	}
	return tokens, nil
}

func (s *cookieStore) Save(_ context.Context, tokens domain.Tokens) error {
	accessMaxAge := 0
	if secs, err := strconv.Atoi(tokens.ExpiresIn); err == nil && secs > 0 {
		accessMaxAge = secs
	}

	http.SetCookie(s.w, s.cookie(accessTokenCookie, tokens.AccessToken, accessMaxAge))
	http.SetCookie(s.w, s.cookie(refreshTokenCookie, tokens.RefreshToken, refreshTokenMaxAge))
	s.written = &tokens
	return nil
}

func (s *cookieStore) Clear(context.Context) error {
	http.SetCookie(s.w, s.cookie(accessTokenCookie, "", -1))
	http.SetCookie(s.w, s.cookie(refreshTokenCookie, "", -1))
	s.written = &domain.Tokens{}
	return nil
}

func (s *cookieStore) cookie(name, value string, maxAge int) *http.Cookie {
	sameSite := s.config.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.config.Domain,
		HttpOnly: true,
		Secure:   s.config.Secure,
		SameSite: sameSite,
		MaxAge:   maxAge,
	}
}
