package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Dan9191/world-service/internal/middleware"
	"github.com/Dan9191/world-service/internal/models"
	"github.com/Dan9191/world-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AuthService is the part of service.AuthService used by handlers
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	VerifyToken(token string) (*service.Identity, error)
}

// WorldService is the part of service.WorldService used by handlers
type WorldService interface {
	ListWorlds(ctx context.Context, userID string) ([]models.World, error)
	CreateWorld(ctx context.Context, userID, name string, description *string) (*models.World, error)
	GetWorld(ctx context.Context, userID, worldID string) (*models.WorldDetail, error)
	UpdateWorld(ctx context.Context, userID, worldID string, patch models.WorldPatch) (*models.World, error)
	DeleteWorld(ctx context.Context, userID, worldID string) error
	ExportWorld(ctx context.Context, userID, worldID string) ([]byte, error)
}

type Handler struct {
	auth   AuthService
	worlds WorldService
	log    *logrus.Logger
	now    func() time.Time
}

func NewHandler(auth AuthService, worlds WorldService, log *logrus.Logger) *Handler {
	return &Handler{auth: auth, worlds: worlds, log: log, now: time.Now}
}

// Router builds the HTTP routes wrapped in the standard middleware chain
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.NotFound)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Public routes
	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/register", h.Register).Methods(http.MethodPost)

	// Protected routes
	worldRouter := r.PathPrefix("/api/worlds").Subrouter()
	worldRouter.Use(mux.MiddlewareFunc(middleware.Auth(h.auth, h.log)))
	worldRouter.HandleFunc("", h.ListWorlds).Methods(http.MethodGet)
	worldRouter.HandleFunc("", h.CreateWorld).Methods(http.MethodPost)
	worldRouter.HandleFunc("/{id}", h.GetWorld).Methods(http.MethodGet)
	worldRouter.HandleFunc("/{id}", h.UpdateWorld).Methods(http.MethodPut)
	worldRouter.HandleFunc("/{id}", h.DeleteWorld).Methods(http.MethodDelete)
	worldRouter.HandleFunc("/{id}/export", h.ExportWorld).Methods(http.MethodGet)

	return middleware.Chain(r,
		middleware.RequestID,
		middleware.Logger(h.log),
		middleware.Recovery(h.log),
		middleware.CORS(allowedOrigins),
	)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// NotFound answers every unknown route
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}
