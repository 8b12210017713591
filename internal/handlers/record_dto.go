package handlers

import "github.com/Werneck0live/cadastro-clientes/internal/models"

// somente os campos do formulário de cadastro; id e status vêm do servidor
type RecordCreateDTO struct {
	Nome           string        `json:"nome" validate:"required,notblank"`
	Telefone       string        `json:"telefone" validate:"omitempty,phone"`
	CPF            string        `json:"cpf" validate:"omitempty,cpf"`
	CNPJ           string        `json:"cnpj" validate:"omitempty,cnpj"`
	DTContrato     string        `json:"dt_contrato" validate:"required,date_br"`
	TipoDeProcesso string        `json:"tipo_de_processo" validate:"omitempty,process_type"`
	Orgao          string        `json:"orgao" validate:"omitempty,orgao"`
	AutoInfracao   string        `json:"auto_infracao"`
	NumeroProcesso string        `json:"numero_processo"`
	Pagamento      string        `json:"pagamento" validate:"omitempty,pagamento"`
	Valor          models.Amount `json:"valor"`
	DTEntradaCT    string        `json:"dt_entrada_ct" validate:"omitempty,date_br"`
	DTEfeitoSusp   string        `json:"dt_efeito_susp" validate:"omitempty,date_br"`
}

type StatusDTO struct {
	Status string `json:"status" validate:"required,status"`
}

// mapa id -> status
type BulkStatusDTO struct {
	Changes map[string]string `json:"changes" validate:"required,min=1,dive,keys,required,endkeys,required,status"`
}

type BulkDeleteDTO struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
