package repository

import (
	"context"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

// Store is the record store contract shared by the CSV file and Mongo backends.
type Store interface {
	LoadAll(ctx context.Context) (models.RecordSet, error)
	// Append sets r.ID on success.
	Append(ctx context.Context, r *models.Record) error
	UpdateStatuses(ctx context.Context, changes map[string]models.Status) error
	// Delete returns the removed records in store order.
	Delete(ctx context.Context, ids ...string) ([]models.Record, error)
}
