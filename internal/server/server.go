package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/metrics"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/sharing"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

// Config holds what the router needs beyond the database.
type Config struct {
	JWTSecret           string
	JWTIssuer           string
	RecipeRatePerMinute int
	WSOriginPatterns    []string
}

type Server struct {
	db            *sql.DB
	cfg           Config
	hub           *ws.Hub
	pantryH       *handler.PantryHandler
	contributionH *handler.ContributionHandler
	recipeH       *handler.RecipeHandler
	recipeLimiter *middleware.RateLimiter
	logger        *slog.Logger
}

// New wires the stores, hub and handlers. gen may be nil when recipe
// generation is not configured.
func New(db *sql.DB, cfg Config, gen handler.RecipeGenerator, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	pantryStore := store.NewPantryStore(db)
	contributionStore := store.NewContributionStore(db)
	recipeStore := store.NewRecipeStore(db)

	svc := sharing.NewService(db, logger.With("component", "sharing"), sharing.WithNotifier(hub))

	return &Server{
		db:            db,
		cfg:           cfg,
		hub:           hub,
		pantryH:       handler.NewPantryHandler(pantryStore, svc, hub, logger.With("component", "pantry")),
		contributionH: handler.NewContributionHandler(contributionStore, svc, logger.With("component", "contribution")),
		recipeH:       handler.NewRecipeHandler(gen, pantryStore, recipeStore, logger.With("component", "recipe")),
		recipeLimiter: middleware.NewRateLimiter(cfg.RecipeRatePerMinute),
		logger:        logger,
	}
}

// RateLimiter returns the recipe rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.recipeLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", metrics.Handler())

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.cfg.JWTSecret, s.cfg.JWTIssuer)
	outerMux.Handle("/", authMiddleware(protectedMux))

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recover(httpLogger)(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	code := http.StatusOK

	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		status["status"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	status["websocket_clients"] = s.hub.ClientCount()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.recipeLimiter, middleware.UserOrIP)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Pantry API routes
	mux.HandleFunc("GET /api/pantry", s.pantryH.List)
	mux.HandleFunc("POST /api/pantry", s.pantryH.Create)
	mux.HandleFunc("DELETE /api/pantry", s.pantryH.Clear)
	mux.HandleFunc("POST /api/pantry/bulk-delete", s.pantryH.BulkDelete)
	mux.HandleFunc("GET /api/pantry/{id}", s.pantryH.Get)
	mux.HandleFunc("PUT /api/pantry/{id}", s.pantryH.Update)
	mux.HandleFunc("DELETE /api/pantry/{id}", s.pantryH.Delete)
	mux.HandleFunc("POST /api/pantry/{id}/share", s.pantryH.Share)
	mux.HandleFunc("GET /api/categories/suggest", s.pantryH.SuggestCategory)

	// Contribution API routes
	mux.HandleFunc("GET /api/contributions", s.contributionH.Community)
	mux.HandleFunc("GET /api/contributions/mine", s.contributionH.Mine)
	mux.HandleFunc("GET /api/contributions/claimed", s.contributionH.Claimed)
	mux.HandleFunc("GET /api/contributions/{id}", s.contributionH.Get)
	mux.HandleFunc("PUT /api/contributions/{id}", s.contributionH.Update)
	mux.HandleFunc("POST /api/contributions/{id}/claim", s.contributionH.Claim)
	mux.HandleFunc("POST /api/contributions/{id}/collect", s.contributionH.Collect)
	mux.HandleFunc("POST /api/contributions/{id}/stop", s.contributionH.Stop)

	// Recipe API routes
	mux.Handle("POST /api/recipes/generate", s.rateLimited(s.recipeH.Generate))
	mux.HandleFunc("GET /api/recipes", s.recipeH.List)
	mux.HandleFunc("POST /api/recipes", s.recipeH.Create)
	mux.HandleFunc("DELETE /api/recipes/{id}", s.recipeH.Delete)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.cfg.WSOriginPatterns, s.logger.With("component", "websocket")))
}
