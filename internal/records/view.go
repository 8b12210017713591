package records

import (
	"time"

	"github.com/Werneck0live/cadastro-clientes/internal/format"
	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

// View é o registro pronto para exibição: identificadores formatados e prazo calculado.
type View struct {
	ID             string          `json:"id"`
	Nome           string          `json:"nome"`
	Telefone       string          `json:"telefone"`
	CPF            string          `json:"cpf"`
	CNPJ           string          `json:"cnpj"`
	DTContrato     string          `json:"dt_contrato"`
	TipoDeProcesso string          `json:"tipo_de_processo"`
	Orgao          string          `json:"orgao"`
	AutoInfracao   string          `json:"auto_infracao"`
	NumeroProcesso string          `json:"numero_processo"`
	Pagamento      string          `json:"pagamento"`
	Valor          string          `json:"valor"`
	DTEntradaCT    string          `json:"dt_entrada_ct"`
	DTEfeitoSusp   string          `json:"dt_efeito_susp"`
	Status         string          `json:"status"`
	Prazo          format.Deadline `json:"prazo"`
	Issues         []models.Issue  `json:"issues,omitempty"`
}

func ViewOf(r models.Record, now time.Time) View {
	return View{
		ID:             r.ID,
		Nome:           r.Name,
		Telefone:       format.Phone(r.Phone),
		CPF:            identifier(r.CPF, format.CPF),
		CNPJ:           identifier(r.CNPJ, format.CNPJ),
		DTContrato:     format.Date(r.ContractDate),
		TipoDeProcesso: string(r.ProcessType),
		Orgao:          string(r.Authority),
		AutoInfracao:   r.InfractionCode,
		NumeroProcesso: r.ProcessNumber,
		Pagamento:      string(r.Payment),
		Valor:          format.Amount(r.Amount),
		DTEntradaCT:    format.Date(r.IntakeDate),
		DTEfeitoSusp:   format.Date(r.SuspensiveDate),
		Status:         string(r.Status),
		Prazo:          format.ClassifyDeadline(r.Status, r.SuspensiveDate, now),
		Issues:         r.Issues,
	}
}

func ViewsOf(recs []models.Record, now time.Time) []View {
	out := make([]View, 0, len(recs))
	for _, r := range recs {
		out = append(out, ViewOf(r, now))
	}
	return out
}

// identificador ausente fica vazio em vez de virar só zeros
func identifier(digits string, mask func(string) string) string {
	if format.Digits(digits) == "" {
		return ""
	}
	return mask(digits)
}
