package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter monta as rotas da API. Tudo sob /api, exceto o login, exige sessão.
func NewRouter(h *RecordsHandler, ah *AuthHandler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LogMiddleware)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", ah.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(ah.Auth))

			r.Route("/records", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Put("/status", h.BulkStatus)
				r.Post("/delete", h.BulkDelete)
				r.Patch("/{id}/status", h.SetStatus)
				r.Delete("/{id}", h.Delete)
			})
			r.Get("/deadlines/overdue", h.Overdue)
			r.Route("/reports", func(r chi.Router) {
				r.Get("/summary", h.Summary)
				r.Get("/export", h.Export)
			})
		})
	})
	return r
}

// LogMiddleware registra método, rota, status, bytes e duração de cada requisição.
func LogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http_request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
