package handlers

import (
	"bytes"
	"fmt"
	"time"

	"hospital-system/internal/format"

	"github.com/xuri/excelize/v2"
)

var detailedReportHeader = []string{
	"Prontuário",
	"Nome",
	"Data de Nascimento",
	"Sexo",
	"CPF",
	"Convênio",
	"Cidade",
	"Estado",
	"Data de Cadastro",
}

// DetailedReportXLSX renders the detailed patient report as a workbook.
func DetailedReportXLSX(rows []SearchRow, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Pacientes"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	title := fmt.Sprintf("Relatório Detalhado de Pacientes (gerado em %s)", generated.Format("02/01/2006 15:04"))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, err
	}
	for i, h := range detailedReportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(detailedReportHeader), 2)
	if err := f.SetCellStyle(sheet, "A2", last, headerStyle); err != nil {
		return nil, err
	}

	for r, row := range rows {
		values := []any{
			row.Prontuario,
			row.Nome,
			format.FormatDate(row.DataNascimento),
			format.SexLabel(row.Sexo),
			format.MaskCPF(deref(row.CPF)),
			format.PlanLabel(row.Convenio),
			deref(row.Cidade),
			deref(row.Estado),
			row.DataCadastro.Format("02/01/2006 15:04"),
		}
		start, _ := excelize.CoordinatesToCellName(1, r+3)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "I", 18); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
