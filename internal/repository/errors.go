package repository

import (
	"errors"
	"strings"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("record not found")
	// o arquivo mudou em disco desde a última carga; os IDs foram reemitidos
	ErrStale = errors.New("store changed on disk, reload and retry")
)

// ValidationError lists the required fields that were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": missing " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidateRequired enforces that nome and dt_contrato are present before any write.
func ValidateRequired(r models.Record) error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "nome")
	}
	if !r.ContractDate.Valid {
		missing = append(missing, "dt_contrato")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
