package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/notes-be/internal/api/handlers"
	"github.com/isdelr/notes-be/internal/api/response"
	"github.com/isdelr/notes-be/internal/apperrors"
	"github.com/isdelr/notes-be/internal/services"
	"github.com/isdelr/notes-be/internal/validation"
)

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	handlers.TokenIssuer
	TokenVerifier
}

// RouterConfig carries everything the router wires into handlers.
type RouterConfig struct {
	Users  services.UserServiceProvider
	Notes  services.NoteServiceProvider
	Tokens TokenService
	DB     handlers.Pinger

	// AuthLimiter throttles register and login per client; nil disables it.
	AuthLimiter        *IPRateLimiter
	CORSAllowedOrigins []string
}

var errRouteNotFound = apperrors.NotFound("route not found")

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, errRouteNotFound)
	})

	// Initialize handlers
	validate := validation.New()
	userHandler := handlers.NewUserHandler(cfg.Users, cfg.Tokens, validate)
	noteHandler := handlers.NewNoteHandler(cfg.Notes, validate)
	tagHandler := handlers.NewTagHandler(cfg.Notes)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	requireAuth := RequireAuth(cfg.Tokens)

	r.Get("/healthz", healthHandler.Check)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(cfg.AuthLimiter.Middleware)
			}
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
		})
		r.With(requireAuth).Get("/me", userHandler.GetMe)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.List)
			r.Post("/", noteHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", noteHandler.Get)
				r.Put("/", noteHandler.Update)
				r.Delete("/", noteHandler.Delete)
			})
		})
		r.Get("/tags", tagHandler.List)
	})

	return r
}
