package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Werneck0live/cadastro-clientes/internal/format"
	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

// NewValidator returns a validator that reports json field names and knows
// the intake rules of the registry.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("date_br", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		n := len(format.Digits(fl.Field().String()))
		return n == 10 || n == 11
	})
	_ = v.RegisterValidation("cpf", maxDigits(format.CPFLength))
	_ = v.RegisterValidation("cnpj", maxDigits(format.CNPJLength))
	_ = v.RegisterValidation("process_type", func(fl validator.FieldLevel) bool {
		return models.ProcessType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("orgao", func(fl validator.FieldLevel) bool {
		return models.Authority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("pagamento", func(fl validator.FieldLevel) bool {
		return models.PaymentMethod(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return models.Status(strings.TrimSpace(fl.Field().String())).Valid()
	})
	return v
}

// CPF/CNPJ chegam com ou sem máscara; zeros à esquerda podem faltar.
func maxDigits(n int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d := format.Digits(fl.Field().String())
		return d != "" && len(d) <= n
	}
}

// invalidFields lista os campos reprovados, na ordem da struct.
func invalidFields(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fieldPath(fe.Namespace()))
	}
	return out
}

// "RecordCreateDTO.dt_contrato" -> "dt_contrato"
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func (d RecordCreateDTO) toRecord() models.Record {
	contract, _ := models.ParseDate(d.DTContrato)
	intake, _ := models.ParseDate(d.DTEntradaCT)
	susp, _ := models.ParseDate(d.DTEfeitoSusp)
	return models.Record{
		Name:           d.Nome,
		Phone:          d.Telefone,
		CPF:            d.CPF,
		CNPJ:           d.CNPJ,
		ContractDate:   contract,
		ProcessType:    models.ProcessType(d.TipoDeProcesso),
		Authority:      models.Authority(d.Orgao),
		InfractionCode: d.AutoInfracao,
		ProcessNumber:  d.NumeroProcesso,
		Payment:        models.PaymentMethod(d.Pagamento),
		Amount:         d.Valor,
		IntakeDate:     intake,
		SuspensiveDate: susp,
	}
}
