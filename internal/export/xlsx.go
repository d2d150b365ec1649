package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/BerylCAtieno/document-assistant/internal/models"
)

const (
	HistorySheet = "Historico"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var historyHeaders = []string{
	"Data",
	"Nome Original",
	"Novo Nome",
	"Nome no Servidor",
	"Tipo de Documento",
	"Titulo",
	"Detalhe Principal",
	"Descricao",
	"Modelo",
	"Modo",
}

// HistoryXLSX renders analysis records as a single-sheet workbook, one row per record.
func HistoryXLSX(records []models.AnalysisRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile always starts with Sheet1.
	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(HistorySheet, cell, h)
	}

	for i, rec := range records {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(HistorySheet, cell, v)
		}

		write(1, rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		write(2, rec.OriginalName)
		write(3, rec.NewName)
		write(4, rec.ServerName)
		write(5, rec.DocumentType)
		write(6, rec.Title)
		write(7, rec.PrincipalDetail)
		write(8, rec.Description)
		write(9, rec.Model)
		write(10, rec.ContentMode)
	}

	_ = f.SetColWidth(HistorySheet, "A", "A", 20)
	_ = f.SetColWidth(HistorySheet, "B", "D", 36)
	_ = f.SetColWidth(HistorySheet, "E", "G", 24)
	_ = f.SetColWidth(HistorySheet, "H", "H", 60)
	_ = f.SetColWidth(HistorySheet, "I", "J", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
