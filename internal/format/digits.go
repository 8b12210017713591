package format

import (
	"strings"
	"unicode"
)

const (
	CPFLength  = 11
	CNPJLength = 14
)

// remove qualquer coisa que não seja dígito
func Digits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// PadDigits completa com zeros à esquerda até n caracteres.
// Entradas maiores que n voltam sem alteração.
func PadDigits(s string, n int) string {
	if l := len([]rune(s)); l < n {
		return strings.Repeat("0", n-l) + s
	}
	return s
}

// Só confere tamanho (14) e se não são todos dígitos iguais.
func ValidCNPJ(cnpj string) bool {
	if len(cnpj) != CNPJLength {
		return false
	}
	allEq := true
	for i := 1; i < CNPJLength; i++ {
		if cnpj[i] != cnpj[0] {
			allEq = false
			break
		}
	}
	return !allEq
}

// mesma regra para CPF (11)
func ValidCPF(cpf string) bool {
	if len(cpf) != CPFLength {
		return false
	}
	return strings.Count(cpf, cpf[:1]) != CPFLength
}
