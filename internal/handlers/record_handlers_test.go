package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/Werneck0live/cadastro-clientes/internal/auth"
	"github.com/Werneck0live/cadastro-clientes/internal/models"
	"github.com/Werneck0live/cadastro-clientes/internal/records"
	"github.com/Werneck0live/cadastro-clientes/internal/reports"
	"github.com/Werneck0live/cadastro-clientes/internal/repository"
)

/*
RODAR TODOS OS TESTES:

go test -v ./internal/handlers -count=1
*/

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local)

func sampleSet() models.RecordSet {
	amount, _ := models.ParseAmount("1500")
	return models.RecordSet{
		Records: []models.Record{
			{
				ID: "r1", Name: "Maria Souza", Phone: "62999998888", CPF: "12345678901",
				ContractDate: models.NewDate(2026, time.February, 1), ProcessType: models.ProcessJARI,
				Authority: models.AuthorityDETRAN, Payment: models.PaymentPix, Amount: amount,
				SuspensiveDate: models.NewDate(2026, time.March, 5), Status: models.StatusPending,
			},
			{
				ID: "r2", Name: "João Lima", ContractDate: models.NewDate(2026, time.March, 2),
				ProcessType: models.ProcessCETRAN, Payment: models.PaymentCash, Status: models.StatusGranted,
			},
		},
		Skipped: 1,
	}
}

type testServer struct {
	srv   *httptest.Server
	token string
}

func newTestServer(t *testing.T, store *storeMock, pub *pubMock) *testServer {
	t.Helper()
	svc := records.NewService(store, pub, nil)
	svc.Now = func() time.Time { return testNow }

	authn := auth.NewAuthenticator(map[string]string{"admin": "123"}, []byte("test-secret"), time.Hour)
	router := NewRouter(NewRecordsHandler(svc, nil), NewAuthHandler(authn), nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	token, _, err := authn.Login("admin", "123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return &testServer{srv: srv, token: token}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return v
}

func wantStatus(t *testing.T, resp *http.Response, code int) {
	t.Helper()
	if resp.StatusCode != code {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, code, buf.String())
	}
}

func loadSample(context.Context) (models.RecordSet, error) { return sampleSet(), nil }

// go test -run 'TestHealth|TestAuth_' -v ./internal/handlers -count=1

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &storeMock{}, &pubMock{})
	ts.token = ""
	wantStatus(t, ts.do(t, http.MethodGet, "/healthz", ""), http.StatusOK)
}

func TestAuth_RequiresToken(t *testing.T) {
	ts := newTestServer(t, &storeMock{LoadAllFn: loadSample}, &pubMock{})
	ts.token = ""
	resp := ts.do(t, http.MethodGet, "/api/records", "")
	wantStatus(t, resp, http.StatusUnauthorized)
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("missing WWW-Authenticate header")
	}

	ts.token = "garbage"
	wantStatus(t, ts.do(t, http.MethodGet, "/api/records", ""), http.StatusUnauthorized)
}

func TestAuth_Login(t *testing.T) {
	ts := newTestServer(t, &storeMock{LoadAllFn: loadSample}, &pubMock{})
	ts.token = ""

	wantStatus(t, ts.do(t, http.MethodPost, "/api/login", `{"username":"admin","password":"errada"}`), http.StatusUnauthorized)
	wantStatus(t, ts.do(t, http.MethodPost, "/api/login", `{"username":"admin"}`), http.StatusBadRequest)

	resp := ts.do(t, http.MethodPost, "/api/login", `{"username":"admin","password":"123"}`)
	wantStatus(t, resp, http.StatusOK)
	got := decode[LoginResponse](t, resp)
	if got.Token == "" || got.Session.Username != "admin" {
		t.Fatalf("unexpected login response: %#v", got)
	}

	ts.token = got.Token
	wantStatus(t, ts.do(t, http.MethodGet, "/api/records", ""), http.StatusOK)
}

// go test -run 'TestRecords_' -v ./internal/handlers -count=1

func TestRecords_List(t *testing.T) {
	ts := newTestServer(t, &storeMock{LoadAllFn: loadSample}, &pubMock{})

	resp := ts.do(t, http.MethodGet, "/api/records", "")
	wantStatus(t, resp, http.StatusOK)
	got := decode[ListResponse](t, resp)
	if len(got.Records) != 2 || got.Skipped != 1 {
		t.Fatalf("unexpected payload: %#v", got)
	}
	m := got.Records[0]
	if m.Telefone != "(62) 99999-8888" || m.CPF != "123.456.789-01" || m.Valor != "R$ 1.500,00" {
		t.Fatalf("formatting: %#v", m)
	}
	if m.Prazo.String() != "Vencido há 5 dias" {
		t.Fatalf("prazo=%q", m.Prazo)
	}
	if got.Records[1].Prazo.String() != "Não há Prazo" {
		t.Fatalf("terminal prazo=%q", got.Records[1].Prazo)
	}
}

func TestRecords_ListSearch(t *testing.T) {
	ts := newTestServer(t, &storeMock{LoadAllFn: loadSample}, &pubMock{})

	resp := ts.do(t, http.MethodGet, "/api/records?q=JO%C3%83O", "")
	wantStatus(t, resp, http.StatusOK)
	got := decode[ListResponse](t, resp)
	if len(got.Records) != 1 || got.Records[0].ID != "r2" {
		t.Fatalf("search: %#v", got.Records)
	}

	resp = ts.do(t, http.MethodGet, "/api/records?q=ninguem", "")
	if body := strings.TrimSpace(readAll(t, resp)); !strings.Contains(body, `"records":[]`) {
		t.Fatalf("empty search must return an empty list: %s", body)
	}
}

func TestRecords_ListStoreError(t *testing.T) {
	ts := newTestServer(t, &storeMock{
		LoadAllFn: func(context.Context) (models.RecordSet, error) { return models.RecordSet{}, errors.New("boom") },
	}, &pubMock{})
	wantStatus(t, ts.do(t, http.MethodGet, "/api/records", ""), http.StatusInternalServerError)
}

func TestRecords_Create(t *testing.T) {
	var (
		stored models.Record
		events []string
	)
	store := &storeMock{
		AppendFn: func(_ context.Context, r *models.Record) error {
			r.ID = "new-id"
			stored = *r
			return nil
		},
	}
	pub := &pubMock{PublishFn: func(_ context.Context, body string, h amqp091.Table) error {
		events = append(events, body)
		if h["user"] != "admin" {
			t.Errorf("event user=%v", h["user"])
		}
		return nil
	}}
	ts := newTestServer(t, store, pub)

	body := `{
		"nome": "Ana Paula",
		"telefone": "(62) 3222-1111",
		"cpf": "123",
		"cnpj": "11.222.333/0001-81",
		"dt_contrato": "05/03/2026",
		"tipo_de_processo": "DEFESA PRÉVIA",
		"orgao": "GOINFRA",
		"auto_infracao": "A123",
		"numero_processo": "P-9",
		"pagamento": "CARTAO",
		"valor": 1234.5,
		"dt_efeito_susp": "20/03/2026"
	}`
	resp := ts.do(t, http.MethodPost, "/api/records", body)
	wantStatus(t, resp, http.StatusCreated)
	v := decode[records.View](t, resp)

	if v.ID != "new-id" || v.Status != "PENDENTE" || v.Valor != "R$ 1.234,50" {
		t.Fatalf("view: %#v", v)
	}
	if v.CPF != "000.000.001-23" || v.Telefone != "(62) 3222-1111" {
		t.Fatalf("formatted ids: %#v", v)
	}
	if v.Prazo.String() != "Faltam 9 dias" {
		t.Fatalf("prazo=%q", v.Prazo)
	}
	if stored.Phone != "6232221111" || stored.CNPJ != "11222333000181" || stored.Authority != models.AuthorityGOINFRA {
		t.Fatalf("stored: %#v", stored)
	}
	if len(events) != 1 || events[0] != "Cadastro de CLIENTE Ana Paula" {
		t.Fatalf("events: %v", events)
	}
}

func TestRecords_CreateValidation(t *testing.T) {
	called := false
	store := &storeMock{AppendFn: func(context.Context, *models.Record) error { called = true; return nil }}
	ts := newTestServer(t, store, &pubMock{})

	cases := []struct {
		name, body string
		fields     []string
	}{
		{"missing nome and date", `{"telefone":"62999998888"}`, []string{"nome", "dt_contrato"}},
		{"blank nome", `{"nome":"   ","dt_contrato":"01/03/2026"}`, []string{"nome"}},
		{"bad date", `{"nome":"Ana","dt_contrato":"31/02/2026"}`, []string{"dt_contrato"}},
		{"bad enums", `{"nome":"Ana","dt_contrato":"01/03/2026","orgao":"PM","pagamento":"BOLETO"}`, []string{"orgao", "pagamento"}},
		{"bad phone", `{"nome":"Ana","dt_contrato":"01/03/2026","telefone":"123"}`, []string{"telefone"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/records", tc.body)
			wantStatus(t, resp, http.StatusBadRequest)
			got := decode[struct {
				Error  string   `json:"error"`
				Fields []string `json:"fields"`
			}](t, resp)
			if fmt.Sprint(got.Fields) != fmt.Sprint(tc.fields) {
				t.Fatalf("fields=%v want=%v", got.Fields, tc.fields)
			}
		})
	}

	wantStatus(t, ts.do(t, http.MethodPost, "/api/records", `{"nome":"Ana","dt_contrato":"01/03/2026","foo":1}`), http.StatusBadRequest)
	wantStatus(t, ts.do(t, http.MethodPost, "/api/records", `{"nome":"Ana","dt_contrato":"01/03/2026","valor":"cem"}`), http.StatusBadRequest)

	if called {
		t.Fatalf("store must not be called on invalid input")
	}
}

func TestRecords_CreateStoreValidationError(t *testing.T) {
	store := &storeMock{AppendFn: func(context.Context, *models.Record) error {
		return &repository.ValidationError{Fields: []string{"dt_contrato"}}
	}}
	ts := newTestServer(t, store, &pubMock{})
	resp := ts.do(t, http.MethodPost, "/api/records", `{"nome":"Ana","dt_contrato":"01/03/2026"}`)
	wantStatus(t, resp, http.StatusBadRequest)
}

func TestRecords_SetStatus(t *testing.T) {
	var got map[string]models.Status
	store := &storeMock{
		LoadAllFn: func(context.Context) (models.RecordSet, error) {
			set := sampleSet()
			if st, ok := got["r1"]; ok {
				set.Records[0].Status = st
			}
			return set, nil
		},
		UpdateStatusesFn: func(_ context.Context, changes map[string]models.Status) error {
			if _, ok := changes["nope"]; ok {
				return fmt.Errorf("%w: nope", repository.ErrNotFound)
			}
			got = changes
			return nil
		},
	}
	ts := newTestServer(t, store, &pubMock{})

	resp := ts.do(t, http.MethodPatch, "/api/records/r1/status", `{"status":"DEFERIDO"}`)
	wantStatus(t, resp, http.StatusOK)
	v := decode[records.View](t, resp)
	if v.Status != "DEFERIDO" || v.Prazo.String() != "Não há Prazo" {
		t.Fatalf("view: %#v", v)
	}

	wantStatus(t, ts.do(t, http.MethodPatch, "/api/records/nope/status", `{"status":"NEGADO"}`), http.StatusNotFound)
	wantStatus(t, ts.do(t, http.MethodPatch, "/api/records/r1/status", `{"status":"ARQUIVADO"}`), http.StatusBadRequest)
	wantStatus(t, ts.do(t, http.MethodPatch, "/api/records/r1/status", `{}`), http.StatusBadRequest)
}

func TestRecords_StaleIsConflict(t *testing.T) {
	store := &storeMock{
		LoadAllFn:        loadSample,
		UpdateStatusesFn: func(context.Context, map[string]models.Status) error { return repository.ErrStale },
		DeleteFn:         func(context.Context, ...string) ([]models.Record, error) { return nil, repository.ErrStale },
	}
	ts := newTestServer(t, store, &pubMock{})
	wantStatus(t, ts.do(t, http.MethodPut, "/api/records/status", `{"changes":{"r1":"NEGADO"}}`), http.StatusConflict)
	wantStatus(t, ts.do(t, http.MethodDelete, "/api/records/r1", ""), http.StatusConflict)
}

func TestRecords_BulkStatus(t *testing.T) {
	var got map[string]models.Status
	store := &storeMock{
		LoadAllFn: loadSample,
		UpdateStatusesFn: func(_ context.Context, changes map[string]models.Status) error {
			got = changes
			return nil
		},
	}
	ts := newTestServer(t, store, &pubMock{})

	wantStatus(t, ts.do(t, http.MethodPut, "/api/records/status", `{"changes":{"r1":"NEGADO","r2":"PENDENTE"}}`), http.StatusNoContent)
	if got["r1"] != models.StatusDenied || got["r2"] != models.StatusPending {
		t.Fatalf("changes: %v", got)
	}
	wantStatus(t, ts.do(t, http.MethodPut, "/api/records/status", `{"changes":{}}`), http.StatusBadRequest)
	wantStatus(t, ts.do(t, http.MethodPut, "/api/records/status", `{"changes":{"r1":"talvez"}}`), http.StatusBadRequest)
}

func TestRecords_Delete(t *testing.T) {
	var (
		deleted []string
		events  []string
	)
	store := &storeMock{
		LoadAllFn: loadSample,
		DeleteFn: func(_ context.Context, ids ...string) ([]models.Record, error) {
			set := sampleSet()
			var removed []models.Record
			for _, id := range ids {
				i := set.Find(id)
				if i < 0 {
					return nil, repository.ErrNotFound
				}
				removed = append(removed, set.Records[i])
			}
			deleted = append(deleted, ids...)
			return removed, nil
		},
	}
	pub := &pubMock{PublishFn: func(_ context.Context, body string, _ amqp091.Table) error {
		events = append(events, body)
		return nil
	}}
	ts := newTestServer(t, store, pub)

	wantStatus(t, ts.do(t, http.MethodDelete, "/api/records/r2", ""), http.StatusNoContent)
	wantStatus(t, ts.do(t, http.MethodDelete, "/api/records/nope", ""), http.StatusNotFound)
	wantStatus(t, ts.do(t, http.MethodPost, "/api/records/delete", `{"ids":["r1"]}`), http.StatusNoContent)
	wantStatus(t, ts.do(t, http.MethodPost, "/api/records/delete", `{"ids":[]}`), http.StatusBadRequest)

	if fmt.Sprint(deleted) != "[r2 r1]" {
		t.Fatalf("deleted=%v", deleted)
	}
	if len(events) != 2 || events[0] != "Exclusão de CLIENTE João Lima" {
		t.Fatalf("events=%v", events)
	}
}

func TestRecords_Overdue(t *testing.T) {
	ts := newTestServer(t, &storeMock{LoadAllFn: loadSample}, &pubMock{})
	resp := ts.do(t, http.MethodGet, "/api/deadlines/overdue", "")
	wantStatus(t, resp, http.StatusOK)
	got := decode[[]records.View](t, resp)
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("overdue: %#v", got)
	}
}

// go test -run 'TestReports_' -v ./internal/handlers -count=1

func TestReports_Summary(t *testing.T) {
	ts := newTestServer(t, &storeMock{LoadAllFn: loadSample}, &pubMock{})

	resp := ts.do(t, http.MethodGet, "/api/reports/summary", "")
	wantStatus(t, resp, http.StatusOK)
	s := decode[reports.Summary](t, resp)
	if s.Records != 2 || s.Overdue != 1 || len(s.Monthly) != 2 {
		t.Fatalf("summary: %#v", s)
	}

	resp = ts.do(t, http.MethodGet, "/api/reports/summary?from=01/03/2026&to=31/03/2026", "")
	wantStatus(t, resp, http.StatusOK)
	s = decode[reports.Summary](t, resp)
	if s.Records != 1 || s.From != "01/03/2026" {
		t.Fatalf("filtered summary: %#v", s)
	}

	wantStatus(t, ts.do(t, http.MethodGet, "/api/reports/summary?from=ontem", ""), http.StatusBadRequest)
	wantStatus(t, ts.do(t, http.MethodGet, "/api/reports/summary?from=10/03/2026&to=01/03/2026", ""), http.StatusBadRequest)
}

func TestReports_Export(t *testing.T) {
	ts := newTestServer(t, &storeMock{LoadAllFn: loadSample}, &pubMock{})

	resp := ts.do(t, http.MethodGet, "/api/reports/export", "")
	wantStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != xlsxType {
		t.Fatalf("content-type=%q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Fatalf("content-disposition=%q", cd)
	}
	if body := readAll(t, resp); !strings.HasPrefix(body, "PK") {
		t.Fatalf("body is not a zip container")
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}
