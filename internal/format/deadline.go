package format

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

type DeadlineKind int

const (
	NoDeadline DeadlineKind = iota
	DatesMissing
	Remaining
	Overdue
	ComputationError
)

var kindNames = map[DeadlineKind]string{
	NoDeadline:       "no_deadline",
	DatesMissing:     "dates_missing",
	Remaining:        "remaining",
	Overdue:          "overdue",
	ComputationError: "error",
}

func (k DeadlineKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Deadline é o prazo calculado na leitura; nunca é gravado.
type Deadline struct {
	Kind DeadlineKind
	Days int
}

func (d Deadline) String() string {
	switch d.Kind {
	case NoDeadline:
		return "Não há Prazo"
	case DatesMissing:
		return "Datas ausentes"
	case Overdue:
		return fmt.Sprintf("Vencido há %d dias", d.Days)
	case Remaining:
		return fmt.Sprintf("Faltam %d dias", d.Days)
	default:
		return "Erro no cálculo"
	}
}

func (d Deadline) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Days  int    `json:"days"`
		Label string `json:"label"`
	}{d.Kind.String(), d.Days, d.String()})
}

// UnmarshalJSON reads the kind back; the label is derived and ignored.
func (d *Deadline) UnmarshalJSON(b []byte) error {
	var v struct {
		Kind string `json:"kind"`
		Days int    `json:"days"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	for k, name := range kindNames {
		if name == v.Kind {
			*d = Deadline{Kind: k, Days: v.Days}
			return nil
		}
	}
	return fmt.Errorf("unknown deadline kind %q", v.Kind)
}

const day = 24 * time.Hour

// ClassifyDeadline computes the deadline of a case against now.
// Days are truncated toward zero, so a date later today is "Faltam 0 dias".
func ClassifyDeadline(status models.Status, suspensive models.Date, now time.Time) (d Deadline) {
	defer func() {
		if r := recover(); r != nil {
			d = Deadline{Kind: ComputationError}
		}
	}()

	if status.Terminal() {
		return Deadline{Kind: NoDeadline}
	}
	if !suspensive.Valid {
		return Deadline{Kind: DatesMissing}
	}
	if suspensive.Time.IsZero() || now.IsZero() {
		return Deadline{Kind: ComputationError}
	}

	days := int(suspensive.Time.Sub(now) / day)
	if days < 0 {
		return Deadline{Kind: Overdue, Days: -days}
	}
	return Deadline{Kind: Remaining, Days: days}
}
