package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
	"github.com/Werneck0live/cadastro-clientes/internal/records"
	"github.com/Werneck0live/cadastro-clientes/internal/reports"
	"github.com/Werneck0live/cadastro-clientes/internal/repository"
	"github.com/Werneck0live/cadastro-clientes/internal/utils"
)

const (
	requestTimeout = 5 * time.Second
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type RecordsHandler struct {
	Svc      *records.Service
	Validate *validator.Validate
	Log      *slog.Logger
}

func NewRecordsHandler(svc *records.Service, log *slog.Logger) *RecordsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &RecordsHandler{Svc: svc, Validate: NewValidator(), Log: log.With("cmp", "handlers")}
}

type ListResponse struct {
	Records []records.View `json:"records"`
	Skipped int            `json:"skipped"`
}

func (h *RecordsHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/records?q=
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	set, err := h.Svc.LoadAll(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	recs := records.FilterByName(set.Records, r.URL.Query().Get("q"))
	utils.WriteJSON(w, http.StatusOK, ListResponse{Records: h.Svc.Views(recs), Skipped: set.Skipped})
}

// POST /api/records
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto RecordCreateDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatDecodeError(err))
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", invalidFields(err)...)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	rec, err := h.Svc.Append(ctx, dto.toRecord())
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, h.Svc.Views([]models.Record{rec})[0])
}

// PATCH /api/records/{id}/status
func (h *RecordsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var dto StatusDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatDecodeError(err))
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", invalidFields(err)...)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.Svc.SetStatus(ctx, id, models.Status(dto.Status)); err != nil {
		h.writeError(w, err)
		return
	}

	// devolve o registro atualizado
	set, err := h.Svc.LoadAll(ctx)
	if err == nil {
		if i := set.Find(id); i >= 0 {
			utils.WriteJSON(w, http.StatusOK, h.Svc.Views(set.Records[i:i+1])[0])
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": dto.Status})
}

// PUT /api/records/status
func (h *RecordsHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var dto BulkStatusDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatDecodeError(err))
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", invalidFields(err)...)
		return
	}

	changes := make(map[string]models.Status, len(dto.Changes))
	for id, st := range dto.Changes {
		changes[id] = models.Status(st)
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.Svc.UpdateStatuses(ctx, changes); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/records/{id}
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.Svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/records/delete
func (h *RecordsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var dto BulkDeleteDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatDecodeError(err))
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", invalidFields(err)...)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.Svc.Delete(ctx, dto.IDs...); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/deadlines/overdue
func (h *RecordsHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	views, err := h.Svc.Overdue(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

// GET /api/reports/summary?from=&to=
func (h *RecordsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.buildSummary(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, s)
}

// GET /api/reports/export?from=&to=
func (h *RecordsHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.buildSummary(w, r)
	if !ok {
		return
	}
	// gera em memória para poder responder 500 se falhar
	var buf bytes.Buffer
	if err := reports.WriteXLSX(&buf, s); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="relatorio_financeiro.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *RecordsHandler) buildSummary(w http.ResponseWriter, r *http.Request) (reports.Summary, bool) {
	from, to, err := parseRange(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return reports.Summary{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	s, err := h.Svc.Summary(ctx, from, to)
	if err != nil {
		h.writeError(w, err)
		return reports.Summary{}, false
	}
	return s, true
}

var errBadRange = errors.New("invalid date range")

func parseRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	f, err := models.ParseDate(q.Get("from"))
	if err != nil {
		return from, to, errors.New("invalid from date")
	}
	t, err := models.ParseDate(q.Get("to"))
	if err != nil {
		return from, to, errors.New("invalid to date")
	}
	from, to = f.Time, t.Time
	if f.Valid && t.Valid && to.Before(from) {
		return time.Time{}, time.Time{}, errBadRange
	}
	return from, to, nil
}

func (h *RecordsHandler) writeError(w http.ResponseWriter, err error) {
	var ve *repository.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.WriteError(w, http.StatusBadRequest, "validation failed", ve.Fields...)
	case errors.Is(err, repository.ErrValidation):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrStale):
		utils.WriteError(w, http.StatusConflict, "records changed since last load, reload and retry")
	case errors.Is(err, context.DeadlineExceeded):
		utils.WriteError(w, http.StatusGatewayTimeout, "timeout")
	default:
		h.Log.Error("request_failed", "err", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
