package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Werneck0live/cadastro-clientes/internal/admin"
	"github.com/Werneck0live/cadastro-clientes/internal/app"
	"github.com/Werneck0live/cadastro-clientes/internal/auth"
	"github.com/Werneck0live/cadastro-clientes/internal/config"
	"github.com/Werneck0live/cadastro-clientes/internal/handlers"
)

func main() {
	// HOOK: admin job (one-off)
	task := flag.String("task", "", "admin task: seed")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("dotenv_error", "err", err)
	}
	cfg := config.Load()

	// Logger JSON "global" - slog.Info/slog.Error/Warn em qualquer lugar
	log := config.InitLogger(cfg.LogLevel)
	log.Info("starting", "port", cfg.Port, "backend", cfg.StoreBackend)

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open_store_failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if *task != "" {
		switch *task {
		case "seed":
			if _, err := admin.SeedRecords(ctx, a.Service, log); err != nil {
				log.Error("seed_failed", "err", err)
				_ = a.Close()
				os.Exit(1)
			}
			log.Info("seed_done")
			return // encerra o processo sem subir HTTP
		default:
			log.Error("unknown_admin_task", "task", *task)
			_ = a.Close()
			os.Exit(2)
		}
	}

	if len(cfg.Users) == 0 {
		log.Warn("no_users_configured", "hint", "set AUTH_USERS=user:pass")
	}
	authn := auth.NewAuthenticator(cfg.Users, []byte(cfg.JWTSecret), cfg.SessionTTL)

	router := handlers.NewRouter(handlers.NewRecordsHandler(a.Service, log), handlers.NewAuthHandler(authn), cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	go func() {
		log.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful_shutdown_error", "err", err)
	}
	log.Info("stopped")
}
