package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/char-projects/PokeAPI/internal/config"
	"github.com/char-projects/PokeAPI/internal/handler"
	"github.com/char-projects/PokeAPI/internal/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	OAuth    *handler.OAuthHandler
	Creature *handler.CreatureHandler
	Generate *handler.GenerateHandler

	// HealthCheck reports backing-store reachability; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.GenerateRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(middleware.BodyLimit(cfg.MaxBodySize))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.HealthCheck != nil {
			if err := h.HealthCheck(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(cfg.RequestTimeout))

			g.Post("/login", h.Auth.Login)
			g.Post("/register", h.Auth.Register)
			g.Post("/logout", h.Auth.Logout)
			g.Get("/logout/clear", h.Auth.LogoutClear)
			g.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)

			g.Route("/oauth", func(oauth chi.Router) {
				oauth.Get("/start", h.OAuth.Start)
				oauth.Get("/callback", h.OAuth.Callback)
				oauth.Post("/exchange", h.OAuth.Exchange)
				oauth.Post("/refresh", h.OAuth.Refresh)
				oauth.Post("/complete", h.OAuth.Complete)
			})

			g.Get("/pokemons", h.Creature.List)
			g.With(authMiddleware.RequireAuth).Post("/pokemons", h.Creature.Create)
			g.With(authMiddleware.RequireAuth).Post("/pokemons/{id}/image", h.Creature.AttachImage)
			g.Get("/pokemons/{id}/image", h.Creature.Image)
		})

		// Image generation waits on the upstream model and gets its own,
		// longer deadline.
		api.With(middleware.Timeout(cfg.GenerateTimeout), authMiddleware.RequireAuth).
			Post("/generate", h.Generate.Generate)
	})

	return r
}
