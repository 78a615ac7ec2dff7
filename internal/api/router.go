package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-booking/internal/auth"
	"github.com/clinicore/clinic-booking/internal/clinic"
)

type RouterConfig struct {
	Service   ClinicService
	Gate      *AuthGate
	Revoker   auth.Revoker
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    zerolog.Logger
	JWTSecret string
	TokenTTL  time.Duration
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public auth endpoints
	r.Post("/auth/register", registerHandler(cfg.Service, cfg.JWTSecret, cfg.TokenTTL))
	r.Post("/auth/login", loginHandler(cfg.Service, cfg.JWTSecret, cfg.TokenTTL))

	// Any authenticated identity
	r.Group(func(r chi.Router) {
		r.Use(cfg.Gate.Require())
		r.Post("/auth/logout", logoutHandler(cfg.Revoker))
		r.Get("/doctors", listDoctorsHandler(cfg.Service))
		r.Get("/doctors/{id}/availability", availabilityHandler(cfg.Service))
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
	})

	// Patients only
	r.Group(func(r chi.Router) {
		r.Use(cfg.Gate.Require(clinic.RolePatient))
		r.Post("/appointments", createAppointmentHandler(cfg.Service))
	})

	return r
}
