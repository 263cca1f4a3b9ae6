package http

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"heybuddy/contract"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	AllowedOrigins []string
	StaticDir      string
}

// NewRouter mounts the websocket endpoint, the admin API and, when present, the client build.
func NewRouter(log *slog.Logger, orchestrator contract.IOrchestrator, socket http.Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	api := &adminHandler{orchestrator: orchestrator}
	r.Get("/healthz", api.Health)
	r.Get("/socket", socket.ServeHTTP)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rooms", api.Rooms)
	})

	if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
		log.Info("Serving client build", "dir", opts.StaticDir)
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}
	return r
}

// requestLogger is middleware.Logger writing to slog instead of the standard logger.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("HTTP request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
