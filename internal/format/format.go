// Package format turns stored record fields into display values.
// Nothing here returns an error: input that cannot be formatted is
// returned as it came.
package format

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

// Phone formata DDD + número: 11 dígitos (celular) ou 10 (fixo).
func Phone(s string) string {
	r := []rune(s)
	switch len(r) {
	case 11:
		return "(" + string(r[:2]) + ") " + string(r[2:7]) + "-" + string(r[7:])
	case 10:
		return "(" + string(r[:2]) + ") " + string(r[2:6]) + "-" + string(r[6:])
	}
	return s
}

// CPF renders DDD.DDD.DDD-DD after left-padding to 11 digits.
func CPF(s string) string {
	c := []rune(PadDigits(s, CPFLength))
	return string(c[:3]) + "." + string(c[3:6]) + "." + string(c[6:9]) + "-" + string(c[9:])
}

// CNPJ renders DD.DDD.DDD/DDDD-DD after left-padding to 14 digits.
func CNPJ(s string) string {
	c := []rune(PadDigits(s, CNPJLength))
	return string(c[:2]) + "." + string(c[2:5]) + "." + string(c[5:8]) + "/" + string(c[8:12]) + "-" + string(c[12:])
}

// Currency formats a numeric text as BRL ("R$ 1.234,50").
func Currency(value string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return value
	}
	return Money(d)
}

// Amount formats a stored amount; invalid amounts keep their raw text.
func Amount(a models.Amount) string {
	if !a.Valid {
		return a.Raw
	}
	return Money(a.Value)
}

func Money(d decimal.Decimal) string {
	d = d.Round(2)
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	b.WriteString("R$ ")
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// Date renders DD/MM/YYYY, or "" when absent.
func Date(d models.Date) string {
	return d.String()
}
