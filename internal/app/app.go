// Package app wires config into the store, publisher and records service
// shared by the API and casectl.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Werneck0live/cadastro-clientes/internal/broker"
	"github.com/Werneck0live/cadastro-clientes/internal/config"
	"github.com/Werneck0live/cadastro-clientes/internal/db"
	"github.com/Werneck0live/cadastro-clientes/internal/records"
	"github.com/Werneck0live/cadastro-clientes/internal/repository"
)

type App struct {
	Store   repository.Store
	Service *records.Service

	closers []func() error
}

// Open builds the store selected by STORE_BACKEND. Events are optional:
// without RABBIT_URI, or when the broker is down, the service runs with no
// publisher.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{}

	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := db.NewMongoClient(cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		})
		ms := repository.NewMongoStore(client.Database(cfg.MongoDB), cfg.SkipMalformed, log)
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		a.Store = ms
	default:
		a.Store = repository.NewFileStore(cfg.StorePath,
			repository.WithSkipMalformed(cfg.SkipMalformed),
			repository.WithLogger(log),
		)
	}

	var pub records.Publisher
	if cfg.RabbitURI != "" {
		p, err := broker.NewPublisher(cfg.RabbitURI, cfg.RabbitQueue)
		if err != nil {
			log.Warn("rabbitmq_unavailable", "err", err)
		} else {
			pub = p
			a.closers = append(a.closers, p.Close)
		}
	}

	a.Service = records.NewService(a.Store, pub, log)
	log.Info("store_opened", "backend", cfg.StoreBackend, "events", pub != nil)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
