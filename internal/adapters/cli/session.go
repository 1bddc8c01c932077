package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	httpadapter "github.com/vncsmyrnk/campuspoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/oauth/supabase"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

var ErrSignInDisabled = errors.New("sign in is not configured")

type loginResult struct {
	session domain.Session
	next    string
	err     error
}

// login runs the provider flow against a loopback listener. The provider
// redirects the browser to /auth/callback, the relay page posts the URL
// fragment back and the tokens land in the token store.
func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	callback := fs.String("callback", "", "path to report after signing in")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	if a.provider == nil {
		return ErrSignInDisabled
	}

	listener, err := net.Listen("tcp", a.loginAddr)
	if err != nil {
		return fmt.Errorf("failed to listen for the sign in callback: %w", err)
	}

	results := make(chan loginResult, 1)
	router := chi.NewRouter()
	router.Get("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		if err := httpadapter.WriteCallbackPage(w, r.URL.Query().Get("callback")); err != nil {
			a.log.Error().Err(err).Msg("Failed to render callback page.")
		}
	})
	router.Post("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		var (
			session domain.Session
			next    string
		)
		callback, err := httpadapter.ReadCallback(r)
		if err == nil {
			session, next, err = a.sessions.CompleteLogin(r.Context(), a.tokens, callback)
		}

		var refused *supabase.RefusedError
		switch {
		case errors.As(err, &refused):
			http.Error(w, "Sign in failed: "+refused.Reason, http.StatusUnauthorized)
		case err != nil:
			http.Error(w, "Sign in failed, return to the terminal.", http.StatusUnauthorized)
		default:
			fmt.Fprintln(w, "Signed in, you can close this tab.")
		}

		select {
		case results <- loginResult{session: session, next: next, err: err}:
		default:
		}
	})

	server := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("Sign in listener stopped.")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	redirectTo := "http://" + listener.Addr().String() + "/auth/callback"
	if *callback != "" {
		redirectTo += "?callback=" + url.QueryEscape(*callback)
	}
	target, err := a.provider.AuthorizeURL(redirectTo)
	if err != nil {
		return fmt.Errorf("failed to build sign in url: %w", err)
	}

	fmt.Fprintln(a.out, "Open this URL in your browser to sign in:")
	fmt.Fprintln(a.out)
	cyan.Fprintln(a.out, "  "+target)
	fmt.Fprintln(a.out)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-results:
		if res.err != nil {
			return res.err
		}
		fmt.Fprintf(a.out, "Signed in as %s.\n", green.Sprint(res.session.User.Email))
		if res.next != "/" {
			fmt.Fprintf(a.out, "Continue at %s%s\n", a.frontendURL, res.next)
		}
		return nil
	}
}

func (a *App) logout(ctx context.Context, args []string) error {
	if _, err := parse(a.flagSet("logout"), args); err != nil {
		return err
	}

	tokens, _ := a.tokens.Load(ctx)
	a.sessions.SignOut(ctx, a.tokens, domain.Session{Tokens: tokens})
	a.sessions.Wait()

	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	if _, err := parse(a.flagSet("whoami"), args); err != nil {
		return err
	}

	session, err := a.sessions.Resolve(ctx, a.tokens)
	if err != nil {
		return fmt.Errorf("session expired, sign in again: %w", err)
	}
	if !session.Authenticated() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	user := session.User
	fmt.Fprintf(a.out, "%s <%s>\n", bold.Sprint(user.FullName), user.Email)
	if user.Roll != 0 {
		fmt.Fprintf(a.out, "roll %d\n", user.Roll)
	}
	return nil
}

// requireSession resolves the stored session and fails when nobody is
// signed in.
func (a *App) requireSession(ctx context.Context) (domain.Session, error) {
	session, err := a.sessions.Resolve(ctx, a.tokens)
	if err != nil {
		return session, fmt.Errorf("session expired, sign in again: %w", err)
	}
	if !session.Authenticated() {
		return session, domain.ErrNotAuthenticated
	}
	return session, nil
}
