package models

// Status do processo. Armazenado como texto livre; só DEFERIDO e NEGADO são terminais.
type Status string

const (
	StatusPending Status = "PENDENTE"
	StatusGranted Status = "DEFERIDO"
	StatusDenied  Status = "NEGADO"
)

var Statuses = []Status{StatusPending, StatusGranted, StatusDenied}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no deadline applies to the case anymore.
func (s Status) Terminal() bool {
	return s == StatusGranted || s == StatusDenied
}

type ProcessType string

const (
	ProcessJARI         ProcessType = "JARI"
	ProcessCETRAN       ProcessType = "CETRAN"
	ProcessDefesaPrevia ProcessType = "DEFESA PRÉVIA"
)

var ProcessTypes = []ProcessType{ProcessJARI, ProcessCETRAN, ProcessDefesaPrevia}

func (p ProcessType) Valid() bool {
	for _, v := range ProcessTypes {
		if p == v {
			return true
		}
	}
	return false
}

// Orgão autuador
type Authority string

const (
	AuthorityDNIT    Authority = "DNIT"
	AuthorityGOINFRA Authority = "GOINFRA"
	AuthoritySMM     Authority = "SMM"
	AuthorityDETRAN  Authority = "DETRAN"
	AuthorityPRF     Authority = "PRF"
)

var Authorities = []Authority{AuthorityDNIT, AuthorityGOINFRA, AuthoritySMM, AuthorityDETRAN, AuthorityPRF}

func (a Authority) Valid() bool {
	for _, v := range Authorities {
		if a == v {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "DINHEIRO"
	PaymentCard PaymentMethod = "CARTAO"
	PaymentPix  PaymentMethod = "PIX"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentPix}

func (p PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if p == v {
			return true
		}
	}
	return false
}

// Issue registra um campo que não pôde ser interpretado na carga.
type Issue struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Record é uma linha do cadastro de clientes.
// CPF/CNPJ/Telefone ficam só com dígitos; a formatação é feita na leitura.
type Record struct {
	ID             string        `json:"id"`
	Name           string        `json:"nome"`
	Phone          string        `json:"telefone"`
	CPF            string        `json:"cpf"`
	CNPJ           string        `json:"cnpj"`
	ContractDate   Date          `json:"dt_contrato"`
	ProcessType    ProcessType   `json:"tipo_de_processo"`
	Authority      Authority     `json:"orgao"`
	InfractionCode string        `json:"auto_infracao"`
	ProcessNumber  string        `json:"numero_processo"`
	Payment        PaymentMethod `json:"pagamento"`
	Amount         Amount        `json:"valor"`
	IntakeDate     Date          `json:"dt_entrada_ct"`
	SuspensiveDate Date          `json:"dt_efeito_susp"`
	Status         Status        `json:"status"`
	Issues         []Issue       `json:"issues,omitempty"`
}

// RecordSet is a materialized snapshot of the store, in load order.
type RecordSet struct {
	Records []Record `json:"records"`
	Skipped int      `json:"skipped"`
}

func (s RecordSet) Len() int { return len(s.Records) }

// Find returns the position of the record with the given id, or -1.
func (s RecordSet) Find(id string) int {
	for i := range s.Records {
		if s.Records[i].ID == id {
			return i
		}
	}
	return -1
}
