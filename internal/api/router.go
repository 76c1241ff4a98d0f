package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/careloop/appointment-reminders/internal/reminder"
)

// Runner is the slice of the scheduler the HTTP trigger needs.
type Runner interface {
	Run(ctx context.Context) (reminder.RunResult, error)
}

type RouterConfig struct {
	Scheduler Runner
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Log       *logrus.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Reminder sweep trigger
	r.Post("/reminders/run", triggerRunHandler(cfg.Scheduler, cfg.Log))

	return r
}
