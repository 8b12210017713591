package models

import (
	"fmt"
	"strings"
)

// Ordem fixa das colunas no arquivo.
const (
	ColName = iota
	ColPhone
	ColCPF
	ColCNPJ
	ColContractDate
	ColProcessType
	ColAuthority
	ColInfractionCode
	ColProcessNumber
	ColPayment
	ColAmount
	ColIntakeDate
	ColSuspensiveDate
	ColStatus

	NumColumns
)

// IntakeColumns é o layout gravado pelo cadastro, antes de existir a coluna Status.
const IntakeColumns = NumColumns - 1

var Header = []string{
	"Nome",
	"Telefone",
	"CPF",
	"CNPJ",
	"DT_contrato",
	"Tipo_de_Processo",
	"Orgao",
	"Auto_Infracao",
	"Numero_Processo",
	"Pagamento",
	"Valor",
	"DT_Entrada_CT",
	"DT_Efeito_Susp",
	"Status",
}

// IsHeader reports whether cols is the full header, with or without the
// Status column. A client named "Nome" is not a header.
func IsHeader(cols []string) bool {
	if !ColumnCountOK(len(cols)) {
		return false
	}
	for i, c := range cols {
		if i == 0 {
			c = strings.TrimPrefix(c, "\ufeff")
		}
		if !strings.EqualFold(strings.TrimSpace(c), Header[i]) {
			return false
		}
	}
	return true
}

func ColumnCountOK(n int) bool {
	return n == NumColumns || n == IntakeColumns
}

// Row encodes the record in column order.
func (r Record) Row() []string {
	row := make([]string, NumColumns)
	row[ColName] = r.Name
	row[ColPhone] = r.Phone
	row[ColCPF] = r.CPF
	row[ColCNPJ] = r.CNPJ
	row[ColContractDate] = r.ContractDate.String()
	row[ColProcessType] = string(r.ProcessType)
	row[ColAuthority] = string(r.Authority)
	row[ColInfractionCode] = r.InfractionCode
	row[ColProcessNumber] = r.ProcessNumber
	row[ColPayment] = string(r.Payment)
	row[ColAmount] = r.Amount.Raw
	row[ColIntakeDate] = r.IntakeDate.String()
	row[ColSuspensiveDate] = r.SuspensiveDate.String()
	row[ColStatus] = string(r.Status)
	return row
}

// DecodeRow builds a record from one row. It never fails: unparseable
// fields become absent values and are listed in Issues.
func DecodeRow(cols []string) Record {
	var issues []Issue
	if !ColumnCountOK(len(cols)) {
		issues = append(issues, Issue{
			Field:  "row",
			Value:  strings.Join(cols, ","),
			Reason: fmt.Sprintf("expected %d or %d columns, got %d", IntakeColumns, NumColumns, len(cols)),
		})
	}
	get := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}
	date := func(i int) Date {
		d, err := ParseDate(get(i))
		if err != nil {
			issues = append(issues, Issue{Field: Header[i], Value: get(i), Reason: err.Error()})
		}
		return d
	}

	r := Record{
		Name:           get(ColName),
		Phone:          get(ColPhone),
		CPF:            get(ColCPF),
		CNPJ:           get(ColCNPJ),
		ContractDate:   date(ColContractDate),
		ProcessType:    ProcessType(get(ColProcessType)),
		Authority:      Authority(get(ColAuthority)),
		InfractionCode: get(ColInfractionCode),
		ProcessNumber:  get(ColProcessNumber),
		Payment:        PaymentMethod(get(ColPayment)),
		IntakeDate:     date(ColIntakeDate),
		SuspensiveDate: date(ColSuspensiveDate),
		Status:         Status(get(ColStatus)),
	}
	amount, err := ParseAmount(get(ColAmount))
	if err != nil {
		issues = append(issues, Issue{Field: Header[ColAmount], Value: get(ColAmount), Reason: err.Error()})
	}
	r.Amount = amount
	r.Issues = issues
	return r
}

// HasIssue reports whether the field had a parse problem on load.
func (r Record) HasIssue(field string) bool {
	for _, is := range r.Issues {
		if is.Field == field {
			return true
		}
	}
	return false
}

// Malformed is true for rows the skip policy drops: wrong column count or
// an amount that is present but not numeric.
func (r Record) Malformed() bool {
	return r.HasIssue("row") || r.HasIssue(Header[ColAmount])
}
