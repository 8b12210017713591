package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Werneck0live/cadastro-clientes/internal/auth"
	"github.com/Werneck0live/cadastro-clientes/internal/format"
	"github.com/Werneck0live/cadastro-clientes/internal/models"
	"github.com/Werneck0live/cadastro-clientes/internal/reports"
	"github.com/Werneck0live/cadastro-clientes/internal/repository"
)

type Publisher interface {
	Publish(ctx context.Context, body string, headers amqp.Table) error
}

// Service is the entry point used by the HTTP handlers, the CLI and the
// seed job. Pub may be nil.
type Service struct {
	Store repository.Store
	Pub   Publisher
	Log   *slog.Logger
	Now   func() time.Time
}

func NewService(store repository.Store, pub Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Store: store, Pub: pub, Log: log.With("cmp", "records"), Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Service) LoadAll(ctx context.Context) (models.RecordSet, error) {
	return s.Store.LoadAll(ctx)
}

// Normalize deixa identificadores só com dígitos (CPF/CNPJ com zeros à
// esquerda) e aplica o status inicial.
func Normalize(r models.Record) models.Record {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = format.Digits(r.Phone)
	if d := format.Digits(r.CPF); d != "" {
		r.CPF = format.PadDigits(d, format.CPFLength)
	} else {
		r.CPF = ""
	}
	if d := format.Digits(r.CNPJ); d != "" {
		r.CNPJ = format.PadDigits(d, format.CNPJLength)
	} else {
		r.CNPJ = ""
	}
	r.InfractionCode = strings.TrimSpace(r.InfractionCode)
	r.ProcessNumber = strings.TrimSpace(r.ProcessNumber)
	r.Status = models.Status(strings.TrimSpace(string(r.Status)))
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	r.ID = ""
	r.Issues = nil
	return r
}

// Append registers a new client. Validation failures never write.
func (s *Service) Append(ctx context.Context, r models.Record) (models.Record, error) {
	r = Normalize(r)
	if err := s.Store.Append(ctx, &r); err != nil {
		return models.Record{}, err
	}
	s.publishEvent(ctx, "Cadastro", r)
	return r, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status models.Status) error {
	return s.UpdateStatuses(ctx, map[string]models.Status{id: status})
}

func (s *Service) UpdateStatuses(ctx context.Context, changes map[string]models.Status) error {
	clean := make(map[string]models.Status, len(changes))
	for id, st := range changes {
		st = models.Status(strings.TrimSpace(string(st)))
		if st == "" {
			return &repository.ValidationError{Fields: []string{"status"}}
		}
		clean[id] = st
	}
	if err := s.Store.UpdateStatuses(ctx, clean); err != nil {
		return err
	}

	set, err := s.Store.LoadAll(ctx)
	if err != nil {
		s.logger().Warn("reload_after_update_failed", "err", err)
		return nil
	}
	for _, r := range set.Records {
		if _, ok := clean[r.ID]; ok {
			s.publishEvent(ctx, "Edição", r)
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	removed, err := s.Store.Delete(ctx, ids...)
	if err != nil {
		return err
	}
	for _, r := range removed {
		s.publishEvent(ctx, "Exclusão", r)
	}
	return nil
}

// DeleteAt removes records by their position in the current snapshot.
func (s *Service) DeleteAt(ctx context.Context, positions ...int) error {
	set, err := s.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p >= set.Len() {
			return fmt.Errorf("%w: position %d", repository.ErrNotFound, p)
		}
		ids = append(ids, set.Records[p].ID)
	}
	return s.Delete(ctx, ids...)
}

// Search filtra por nome, sem diferenciar maiúsculas. Consulta vazia devolve tudo.
func (s *Service) Search(ctx context.Context, query string) ([]models.Record, error) {
	set, err := s.Store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByName(set.Records, query), nil
}

func FilterByName(recs []models.Record, query string) []models.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Record{}
	for _, r := range recs {
		if q == "" || strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// Overdue returns the views of the records whose deadline already passed.
func (s *Service) Overdue(ctx context.Context) ([]View, error) {
	set, err := s.Store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []View{}
	for _, r := range set.Records {
		if v := ViewOf(r, now); v.Prazo.Kind == format.Overdue {
			out = append(out, v)
		}
	}
	return out, nil
}

// Summary aggregates the records contracted in [from, to].
func (s *Service) Summary(ctx context.Context, from, to time.Time) (reports.Summary, error) {
	set, err := s.Store.LoadAll(ctx)
	if err != nil {
		return reports.Summary{}, err
	}
	return reports.Build(set.Records, from, to, s.now()), nil
}

// Views formats records against the service clock.
func (s *Service) Views(recs []models.Record) []View {
	return ViewsOf(recs, s.now())
}

func (s *Service) publishEvent(ctx context.Context, acao string, r models.Record) {
	if s.Pub == nil {
		return
	}
	msg := fmt.Sprintf("%s de CLIENTE %s", acao, r.Name)

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := s.Pub.Publish(pctx, msg, amqp.Table{
		"action":    strings.ToLower(acao), // cadastro|edição|exclusão
		"record_id": r.ID,
		"nome":      r.Name,
		"status":    string(r.Status),
		"user":      auth.Username(ctx),
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger().Warn("publish_event_failed", "action", acao, "id", r.ID, "err", err)
	}
}
