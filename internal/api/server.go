// Package api provides the HTTP API server and handlers for raidboard.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/raidboard/raidboard-server/internal/gym"
	"github.com/raidboard/raidboard-server/internal/ratelimit"
	"github.com/raidboard/raidboard-server/internal/service"
	"github.com/raidboard/raidboard-server/internal/sse"
	"github.com/raidboard/raidboard-server/internal/validation"
)

// Services groups the components the API server calls into.
type Services struct {
	Raids *service.RaidService
	// Gyms is optional; without it gym search and location queries are unavailable.
	Gyms   *gym.Directory
	Events *sse.Manager
}

// Options tunes the HTTP surface.
type Options struct {
	// CORSOrigins lists allowed browser origins; empty allows any.
	CORSOrigins []string
	// Limiter is optional; nil disables rate limiting.
	Limiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	validator  *validation.Validator
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, sseHandler *sse.Handler, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:   services,
		sseHandler: sseHandler,
		router:     chi.NewRouter(),
		validator:  validation.New(),
		limiter:    opts.Limiter,
		logger:     logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Raidboard API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"member": {
			Type: "apiKey",
			In:   "header",
			Name: MemberHeader,
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()
	s.api.UseMiddleware(s.memberContext, s.rateLimit)

	s.registerHealthRoutes()
	s.registerRaidRoutes()
	s.registerGymRoutes()

	if sseHandler != nil {
		s.router.Get("/api/v1/events", sseHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(traceRequests)
	s.router.Use(logRequests(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", MemberHeader},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}
