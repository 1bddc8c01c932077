// Package supabase drives the hosted auth service: building the provider
// sign-in URL and revoking sessions on sign out.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
)

const DefaultProvider = "google"

// RefusedError is returned when the provider redirects back with an error
// instead of tokens.
type RefusedError struct {
	Reason string
}

func (e *RefusedError) Error() string {
	return "provider refused sign in: " + e.Reason
}

var _ ports.AuthProvider = (*Provider)(nil)

type Provider struct {
	baseURL  string
	anonKey  string
	provider string
	http     *http.Client
	log      zerolog.Logger
}

type Option func(*Provider)

func WithHTTPClient(h *http.Client) Option {
	return func(p *Provider) { p.http = h }
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// WithOAuthProvider picks the upstream identity provider (google by
// default).
func WithOAuthProvider(name string) Option {
	return func(p *Provider) {
		if name != "" {
			p.provider = name
		}
	}
}

func NewProvider(baseURL, anonKey string, opts ...Option) (*Provider, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse auth url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("auth url %q must be absolute", baseURL)
	}

	p := &Provider{
		baseURL:  strings.TrimRight(parsed.String(), "/"),
		anonKey:  anonKey,
		provider: DefaultProvider,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AuthorizeURL is where the browser goes to sign in. The provider sends it
// back to redirectTo with the tokens in the URL fragment.
func (p *Provider) AuthorizeURL(redirectTo string) (string, error) {
	if _, err := url.ParseRequestURI(redirectTo); err != nil {
		return "", fmt.Errorf("invalid redirect url: %w", err)
	}

	query := url.Values{}
	query.Set("provider", p.provider)
	query.Set("redirect_to", redirectTo)
	return p.baseURL + "/auth/v1/authorize?" + query.Encode(), nil
}

// SignOut revokes the session the access token belongs to.
func (p *Provider) SignOut(ctx context.Context, tokens domain.Tokens) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to build logout request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call logout: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// An already expired session is as good as revoked.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		p.log.Debug().Int("status", resp.StatusCode).Msg("Session already gone at provider.")
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout rejected with status %d", resp.StatusCode)
	}
	return nil
}

// ParseFragment reads the tokens the provider appends to the callback URL
// after "#".
func ParseFragment(fragment string) (domain.Tokens, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to parse callback fragment: %w", err)
	}
	if msg := values.Get("error_description"); msg != "" {
		return domain.Tokens{}, &RefusedError{Reason: msg}
	}
	if code := values.Get("error"); code != "" {
		return domain.Tokens{}, &RefusedError{Reason: code}
	}
	return domain.Tokens{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
		ExpiresIn:    values.Get("expires_in"),
	}, nil
}
