package http

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/oauth/supabase"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

// callbackPage moves the tokens from the URL fragment, which never reaches
// the server, into a form post.
var callbackPage = template.Must(template.New("callback").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Signing in</title></head>
<body>
<form id="relay" method="post" action="/auth/callback">
<input type="hidden" name="callback" value="{{.Callback}}">
</form>
<script>
(function () {
  var form = document.getElementById("relay");
  var params = new URLSearchParams(window.location.hash.slice(1));
  params.forEach(function (value, key) {
    var input = document.createElement("input");
    input.type = "hidden";
    input.name = key;
    input.value = value;
    form.appendChild(input);
  });
  form.submit();
})();
</script>
<noscript>JavaScript is required to finish signing in.</noscript>
</body>
</html>
`))

type AuthHandler struct {
	sessions    *services.SessionService
	provider    ports.AuthProvider
	frontendURL string
	cookies     CookieConfig
	log         zerolog.Logger
}

func NewAuthHandler(sessions *services.SessionService, provider ports.AuthProvider, frontendURL string, cookies CookieConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		provider:    provider,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		cookies:     cookies,
		log:         log,
	}
}

// Login sends the browser to the identity provider. The return path rides
// along in the callback URL.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.Error(w, "Sign in is not configured", http.StatusServiceUnavailable)
		return
	}

	redirectTo := h.frontendURL + "/auth/callback"
	if callback := r.URL.Query().Get("callback"); callback != "" {
		redirectTo += "?callback=" + url.QueryEscape(callback)
	}

	target, err := h.provider.AuthorizeURL(redirectTo)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build authorize url.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// WriteCallbackPage renders the page that posts the provider's fragment to
// /auth/callback on the same origin.
func WriteCallbackPage(w http.ResponseWriter, callback string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	return callbackPage.Execute(w, struct{ Callback string }{Callback: callback})
}

func (h *AuthHandler) CallbackPage(w http.ResponseWriter, r *http.Request) {
	if err := WriteCallbackPage(w, r.URL.Query().Get("callback")); err != nil {
		h.log.Error().Err(err).Msg("Failed to render callback page.")
	}
}

// ReadCallback decodes the fragment fields posted by the callback page. A
// provider error comes back as *supabase.RefusedError.
func ReadCallback(r *http.Request) (services.LoginCallback, error) {
	if err := r.ParseForm(); err != nil {
		return services.LoginCallback{}, err
	}
	tokens, err := supabase.ParseFragment(r.PostForm.Encode())
	if err != nil {
		return services.LoginCallback{}, err
	}
	return services.LoginCallback{Tokens: tokens, ReturnTo: r.PostForm.Get("callback")}, nil
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	callback, err := ReadCallback(r)
	var refused *supabase.RefusedError
	if errors.As(err, &refused) {
		h.log.Warn().Str("reason", refused.Reason).Msg("Provider refused sign in.")
		http.Error(w, "Sign in failed: "+refused.Reason, http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	store := newCookieStore(w, r, h.cookies)
	_, next, err := h.sessions.CompleteLogin(r.Context(), store, callback)
	if err != nil {
		h.log.Warn().Err(err).Msg("Sign in callback failed.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store := newCookieStore(w, r, h.cookies)
	tokens, _ := store.Load(r.Context())

	h.sessions.SignOut(r.Context(), store, domain.Session{Tokens: tokens})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
