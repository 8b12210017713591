package admin

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
	"github.com/Werneck0live/cadastro-clientes/internal/records"
)

//go:embed seeds/clients.json
var clientsJSON []byte

type seedItem struct {
	Nome           string        `json:"nome"`
	Telefone       string        `json:"telefone"`
	CPF            string        `json:"cpf"`
	CNPJ           string        `json:"cnpj"`
	DTContrato     models.Date   `json:"dt_contrato"`
	TipoDeProcesso string        `json:"tipo_de_processo"`
	Orgao          string        `json:"orgao"`
	AutoInfracao   string        `json:"auto_infracao"`
	NumeroProcesso string        `json:"numero_processo"`
	Pagamento      string        `json:"pagamento"`
	Valor          models.Amount `json:"valor"`
	DTEntradaCT    models.Date   `json:"dt_entrada_ct"`
	DTEfeitoSusp   models.Date   `json:"dt_efeito_susp"`
	Status         string        `json:"status"`
}

func (s seedItem) record() models.Record {
	return models.Record{
		Name:           s.Nome,
		Phone:          s.Telefone,
		CPF:            s.CPF,
		CNPJ:           s.CNPJ,
		ContractDate:   s.DTContrato,
		ProcessType:    models.ProcessType(s.TipoDeProcesso),
		Authority:      models.Authority(s.Orgao),
		InfractionCode: s.AutoInfracao,
		ProcessNumber:  s.NumeroProcesso,
		Payment:        models.PaymentMethod(s.Pagamento),
		Amount:         s.Valor,
		IntakeDate:     s.DTEntradaCT,
		SuspensiveDate: s.DTEfeitoSusp,
		Status:         models.Status(s.Status),
	}
}

// seedKey identifica um registro já semeado: nome + data de contrato.
func seedKey(name string, d models.Date) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + d.String()
}

// SeedRecords é idempotente: cria o que não existir; o que já existe é ignorado.
func SeedRecords(ctx context.Context, svc *records.Service, log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.Default()
	}
	var items []seedItem
	if err := json.Unmarshal(clientsJSON, &items); err != nil {
		return 0, fmt.Errorf("seed file: %w", err)
	}

	set, err := svc.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]bool, set.Len())
	for _, r := range set.Records {
		existing[seedKey(r.Name, r.ContractDate)] = true
	}

	created := 0
	for _, s := range items {
		key := seedKey(s.Nome, s.DTContrato)
		if existing[key] {
			log.Info("seed_record_exists", "nome", s.Nome)
			continue
		}

		// timeout curto por item pra não travar
		ictx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rec, err := svc.Append(ictx, s.record())
		cancel()
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", s.Nome, err)
		}
		existing[key] = true
		created++
		log.Info("seed_record_created", "id", rec.ID, "nome", rec.Name)
	}

	log.Info("seed_records_done", "count", len(items), "created", created)
	return created, nil
}
