package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Werneck0live/cadastro-clientes/internal/broker"
	"github.com/Werneck0live/cadastro-clientes/internal/config"
	"github.com/Werneck0live/cadastro-clientes/internal/handlers"
	"github.com/Werneck0live/cadastro-clientes/internal/utils"
	"github.com/Werneck0live/cadastro-clientes/internal/ws"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("dotenv_error", "err", err)
	}
	cfg := config.LoadWSConfig()
	log := config.InitLogger(cfg.LogLevel).With("svc", "ws")

	hub := ws.NewHub(log)
	go hub.Run()

	cons, err := broker.NewConsumer(cfg.RabbitURI, cfg.RabbitQueue, "ws-consumer", cfg.Prefetch)
	if err != nil {
		log.Error("rabbit_consumer_start_error", "err", err)
		os.Exit(1)
	}
	defer func() { _ = cons.Close() }()
	log.Info("rabbit_consumer_started", "queue", cfg.RabbitQueue, "prefetch", cfg.Prefetch)

	go func() {
		for d := range cons.Deliveries {
			hub.Publish(ws.EventFromDelivery(d.Body, d.Headers))
		}
		log.Warn("deliveries_channel_closed")
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(hub, cfg.AllowedOrigins, log),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	go func() {
		log.Info("ws_listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	hub.Stop()
	log.Info("stopped")
}

// /ws fica fora do LogMiddleware: o upgrade precisa do ResponseWriter original.
func newRouter(hub *ws.Hub, origins []string, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", ws.ServeWS(hub, ws.NewUpgrader(origins), log))
	r.Group(func(r chi.Router) {
		r.Use(handlers.LogMiddleware)
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			utils.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": hub.Len()})
		})
	})
	return r
}
