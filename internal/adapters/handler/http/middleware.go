package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

var (
	publicPaths = map[string]bool{
		"/":              true,
		"/terms":         true,
		"/privacy":       true,
		"/auth/callback": true,
	}
	authPaths = map[string]bool{
		"/login": true,
	}
)

// RequireSession gates every page on the presence of an access token
// cookie. The token itself is checked by the backend, not here.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		loggedIn := false
		if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
			loggedIn = true
		}

		if loggedIn && authPaths[path] {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		if !loggedIn && !publicPaths[path] && !authPaths[path] {
			callback := path
			if r.URL.RawQuery != "" {
				callback += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, "/login?callback="+url.QueryEscape(callback), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestLogger writes one line per request with its status and duration.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request served.")
		})
	}
}
