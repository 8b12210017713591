package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary = "Resumo"
	SheetMonthly = "Mensal"
	SheetKPIs    = "Indicadores"
)

// WriteXLSX writes the summary as a workbook: revenue by process type,
// monthly totals by payment method and the KPIs.
func WriteXLSX(w io.Writer, s Summary) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	rows := [][]any{{"Tipo_de_Processo", "Valor"}}
	for _, b := range s.ByProcessType {
		rows = append(rows, []any{b.Key, b.Total.InexactFloat64()})
	}
	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetMonthly); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	rows = [][]any{{"Mes_Ano", "DINHEIRO", "PIX", "CARTAO", "Total"}}
	for _, m := range s.Monthly {
		rows = append(rows, []any{
			m.Month,
			m.Cash.InexactFloat64(),
			m.Pix.InexactFloat64(),
			m.Card.InexactFloat64(),
			m.Total.InexactFloat64(),
		})
	}
	if err := writeRows(f, SheetMonthly, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetKPIs); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	k := s.KPIs
	rows = [][]any{
		{"Indicador", "Valor"},
		{"Receita Total", k.Revenue.InexactFloat64()},
		{"Receita Média por Transação", k.Mean.InexactFloat64()},
		{"Crescimento (%)", k.Growth.InexactFloat64()},
		{"Prejuízo Total (Negado)", k.Loss.InexactFloat64()},
		{"Receita Deferido", k.Granted.InexactFloat64()},
		{"Processos Vencidos", s.Overdue},
	}
	if err := writeRows(f, SheetKPIs, rows); err != nil {
		return err
	}

	for sheet, cols := range map[string]string{SheetSummary: "B", SheetMonthly: "B:E"} {
		if err := f.SetColStyle(sheet, cols, money); err != nil {
			return fmt.Errorf("xlsx style: %w", err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("xlsx %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
