package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vaughan-dsouza/BeAuth/internal/metrics"
	"github.com/vaughan-dsouza/BeAuth/internal/middleware"
	"github.com/vaughan-dsouza/BeAuth/internal/session"
	"github.com/vaughan-dsouza/BeAuth/internal/utils"
)

type Handler struct {
	Auth  *AuthHandler
	Users *UserHandler

	svc       AuthService
	transport *session.Transport
	metrics   *metrics.Metrics
	logger    *slog.Logger
	started   time.Time
}

func NewHandler(svc AuthService, transport *session.Transport, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc, transport, m, logger),
		Users:     NewUserHandler(svc, logger),
		svc:       svc,
		transport: transport,
		metrics:   m,
		logger:    logger,
		started:   time.Now(),
	}
}

// Routes builds the full HTTP surface.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimw.Recoverer)
	if h.metrics != nil {
		r.Use(middleware.Instrument(h.metrics))
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/auth/sign-up", h.Auth.SignUp)
		r.Post("/auth/sign-in", h.Auth.SignIn)
		r.Post("/auth/sign-out", h.Auth.SignOut)

		// TODO: gate behind an admin role check once role enforcement is in scope.
		r.Get("/users", h.Users.FetchAllUsers)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(h.svc, h.transport))

			r.Get("/auth/me", h.Auth.Me)
		})
	})

	return r
}

type healthResp struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, healthResp{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Seconds(),
	})
}
