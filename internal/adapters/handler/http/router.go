package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func NewHandler(authHandler *AuthHandler, userHandler *UserHandler, pollHandler *PollHandler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(RequireSession)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("welcome"))
	})

	r.Get("/login", authHandler.Login)
	r.Get("/auth/callback", authHandler.CallbackPage)
	r.Post("/auth/callback", authHandler.Callback)
	r.Post("/logout", authHandler.Logout)

	r.Get("/profile", userHandler.GetMe)

	r.Route("/polls", func(r chi.Router) {
		r.Post("/create", pollHandler.CreatePoll)
		r.Get("/vote/{id}", pollHandler.GetPoll)
		r.Post("/vote/{id}", pollHandler.Vote)
		r.Get("/{slug}", pollHandler.ListPolls)
		r.Delete("/{slug}", pollHandler.DeletePoll)
	})

	return r
}
