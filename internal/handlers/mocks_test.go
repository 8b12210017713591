package handlers

import (
	"context"
	"errors"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

type storeMock struct {
	LoadAllFn        func(ctx context.Context) (models.RecordSet, error)
	AppendFn         func(ctx context.Context, r *models.Record) error
	UpdateStatusesFn func(ctx context.Context, changes map[string]models.Status) error
	DeleteFn         func(ctx context.Context, ids ...string) ([]models.Record, error)
}

func (m *storeMock) LoadAll(ctx context.Context) (models.RecordSet, error) {
	if m.LoadAllFn == nil {
		return models.RecordSet{}, errors.New("LoadAllFn not set")
	}
	return m.LoadAllFn(ctx)
}
func (m *storeMock) Append(ctx context.Context, r *models.Record) error {
	if m.AppendFn == nil {
		return errors.New("AppendFn not set")
	}
	return m.AppendFn(ctx, r)
}
func (m *storeMock) UpdateStatuses(ctx context.Context, changes map[string]models.Status) error {
	if m.UpdateStatusesFn == nil {
		return errors.New("UpdateStatusesFn not set")
	}
	return m.UpdateStatusesFn(ctx, changes)
}
func (m *storeMock) Delete(ctx context.Context, ids ...string) ([]models.Record, error) {
	if m.DeleteFn == nil {
		return nil, errors.New("DeleteFn not set")
	}
	return m.DeleteFn(ctx, ids...)
}

type pubMock struct {
	PublishFn func(ctx context.Context, body string, headers amqp091.Table) error
}

func (p *pubMock) Publish(ctx context.Context, body string, headers amqp091.Table) error {
	if p.PublishFn == nil {
		return nil
	}
	return p.PublishFn(ctx, body, headers)
}
