package reports

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Werneck0live/cadastro-clientes/internal/format"
	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

// Bucket is one line of a grouped total.
type Bucket struct {
	Key   string          `json:"key"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Month agrega os valores de um mês (YYYY-MM) por forma de pagamento.
type Month struct {
	Month string          `json:"mes_ano"`
	Cash  decimal.Decimal `json:"dinheiro"`
	Pix   decimal.Decimal `json:"pix"`
	Card  decimal.Decimal `json:"cartao"`
	Total decimal.Decimal `json:"total"`
}

type KPIs struct {
	Revenue decimal.Decimal `json:"receita_total"`
	Mean    decimal.Decimal `json:"receita_media"`
	Growth  decimal.Decimal `json:"crescimento"`
	Loss    decimal.Decimal `json:"prejuizo"`
	Granted decimal.Decimal `json:"receita_deferido"`
}

type Summary struct {
	From          string   `json:"from,omitempty"`
	To            string   `json:"to,omitempty"`
	Records       int      `json:"records"`
	ByStatus      []Bucket `json:"by_status"`
	ByPayment     []Bucket `json:"by_payment"`
	ByProcessType []Bucket `json:"by_process_type"`
	Monthly       []Month  `json:"monthly"`
	KPIs          KPIs     `json:"kpis"`
	Overdue       int      `json:"overdue"`
}

// Filter keeps the records whose contract date falls in [from, to], by
// calendar day. A zero bound is open. Records without a contract date
// never match.
func Filter(recs []models.Record, from, to time.Time) []models.Record {
	lo, hi := dayOf(from), dayOf(to)
	out := []models.Record{}
	for _, r := range recs {
		if !r.ContractDate.Valid {
			continue
		}
		d := dayOf(r.ContractDate.Time)
		if !from.IsZero() && d.Before(lo) {
			continue
		}
		if !to.IsZero() && d.After(hi) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func dayOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CountByStatus conta registros por status, na ordem PENDENTE, DEFERIDO,
// NEGADO; outros valores vêm depois, em ordem alfabética.
func CountByStatus(recs []models.Record) []Bucket {
	known := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		known = append(known, string(s))
	}
	return group(recs, known, func(r models.Record) string { return string(r.Status) })
}

func SumByPayment(recs []models.Record) []Bucket {
	known := make([]string, 0, len(models.PaymentMethods))
	for _, p := range models.PaymentMethods {
		known = append(known, string(p))
	}
	return group(recs, known, func(r models.Record) string { return string(r.Payment) })
}

func SumByProcessType(recs []models.Record) []Bucket {
	known := make([]string, 0, len(models.ProcessTypes))
	for _, p := range models.ProcessTypes {
		known = append(known, string(p))
	}
	return group(recs, known, func(r models.Record) string { return string(r.ProcessType) })
}

// group soma Valor por chave. Chaves conhecidas aparecem sempre, mesmo zeradas.
func group(recs []models.Record, known []string, key func(models.Record) string) []Bucket {
	idx := make(map[string]int, len(known))
	out := make([]Bucket, 0, len(known))
	for _, k := range known {
		idx[k] = len(out)
		out = append(out, Bucket{Key: k, Total: decimal.Zero})
	}
	var extra []Bucket
	extraIdx := map[string]int{}
	for _, r := range recs {
		k := key(r)
		if i, ok := idx[k]; ok {
			out[i].Count++
			out[i].Total = out[i].Total.Add(r.Amount.OrZero())
			continue
		}
		i, ok := extraIdx[k]
		if !ok {
			i = len(extra)
			extraIdx[k] = i
			extra = append(extra, Bucket{Key: k, Total: decimal.Zero})
		}
		extra[i].Count++
		extra[i].Total = extra[i].Total.Add(r.Amount.OrZero())
	}
	slices.SortFunc(extra, func(a, b Bucket) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
	return append(out, extra...)
}

// Monthly totals by contract month, ascending.
func Monthly(recs []models.Record) []Month {
	byKey := map[string]*Month{}
	var keys []string
	for _, r := range recs {
		if !r.ContractDate.Valid {
			continue
		}
		k := r.ContractDate.Time.Format("2006-01")
		m, ok := byKey[k]
		if !ok {
			m = &Month{Month: k, Cash: decimal.Zero, Pix: decimal.Zero, Card: decimal.Zero, Total: decimal.Zero}
			byKey[k] = m
			keys = append(keys, k)
		}
		v := r.Amount.OrZero()
		switch r.Payment {
		case models.PaymentCash:
			m.Cash = m.Cash.Add(v)
		case models.PaymentPix:
			m.Pix = m.Pix.Add(v)
		case models.PaymentCard:
			m.Card = m.Card.Add(v)
		}
		m.Total = m.Total.Add(v)
	}
	slices.Sort(keys)
	out := make([]Month, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

var hundred = decimal.NewFromInt(100)

// ComputeKPIs follows the dashboard rules: revenue excludes denied
// appeals, growth compares the last valid amount with the first one.
func ComputeKPIs(recs []models.Record) KPIs {
	k := KPIs{Revenue: decimal.Zero, Mean: decimal.Zero, Growth: decimal.Zero, Loss: decimal.Zero, Granted: decimal.Zero}
	var (
		all         = decimal.Zero
		valid       int
		first, last decimal.Decimal
	)
	for _, r := range recs {
		if !r.Amount.Valid {
			continue
		}
		v := r.Amount.Value
		if valid == 0 {
			first = v
		}
		last = v
		valid++
		all = all.Add(v)
		switch r.Status {
		case models.StatusDenied:
			k.Loss = k.Loss.Add(v)
		case models.StatusGranted:
			k.Granted = k.Granted.Add(v)
		}
	}
	k.Revenue = all.Sub(k.Loss)
	if valid > 0 {
		k.Mean = all.Div(decimal.NewFromInt(int64(valid))).Round(2)
	}
	if valid > 0 && !first.IsZero() {
		k.Growth = last.Sub(first).Div(first).Mul(hundred).Round(2)
	}
	return k
}

// Build filters recs by contract date and computes every aggregate, plus
// how many of the filtered records are overdue at now.
func Build(recs []models.Record, from, to, now time.Time) Summary {
	sel := Filter(recs, from, to)
	s := Summary{
		Records:       len(sel),
		ByStatus:      CountByStatus(sel),
		ByPayment:     SumByPayment(sel),
		ByProcessType: SumByProcessType(sel),
		Monthly:       Monthly(sel),
		KPIs:          ComputeKPIs(sel),
	}
	if !from.IsZero() {
		s.From = from.Format(models.DateLayout)
	}
	if !to.IsZero() {
		s.To = to.Format(models.DateLayout)
	}
	for _, r := range sel {
		if format.ClassifyDeadline(r.Status, r.SuspensiveDate, now).Kind == format.Overdue {
			s.Overdue++
		}
	}
	return s
}
