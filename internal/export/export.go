// Package export writes the sales ledger and catalog to an XLSX workbook.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"martcli/internal/domain"
	"martcli/internal/logger"
)

const (
	SummarySheet  = "Summary"
	DailySheet    = "Daily"
	ProductsSheet = "Products"
)

type Exporter struct {
	dir string
	log *zap.Logger
}

func NewExporter(dir string, log *zap.Logger) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir, log: logger.OrNop(log)}
}

// FileName is the workbook name for a report dated today.
func FileName(today string) string {
	return "sales-" + today + ".xlsx"
}

// WriteSalesWorkbook writes the earnings summary, the per-day totals and the
// catalog snapshot into one workbook and returns its path. An existing
// workbook for the same day is replaced.
func (e *Exporter) WriteSalesWorkbook(report domain.EarningsReport, products []domain.Product) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	summary := [][]any{
		{"Date", report.Today},
		{"Period", "Amount"},
		{"Weekly", report.Weekly},
		{"Monthly", report.Monthly},
		{"Yearly", report.Yearly},
		{"Balance", report.Balance},
	}
	if err := writeRows(f, SummarySheet, summary, header, 2); err != nil {
		return "", err
	}

	daily := make([][]any, 0, len(report.Daily)+1)
	daily = append(daily, []any{"Date", "Amount"})
	for _, d := range report.Daily {
		daily = append(daily, []any{d.Date, d.Amount})
	}
	if err := writeSheet(f, DailySheet, daily, header); err != nil {
		return "", err
	}

	rows := make([][]any, 0, len(products)+1)
	rows = append(rows, []any{"Name", "Price", "Unit", "Stock", "Sold"})
	for _, p := range products {
		rows = append(rows, []any{p.Name, p.Price, p.Unit, p.Stock, p.SoldToday})
	}
	if err := writeSheet(f, ProductsSheet, rows, header); err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, FileName(report.Today))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.log.Info("sales workbook written",
		zap.String("path", path),
		zap.Int("days", len(report.Daily)),
		zap.Int("products", len(products)),
	)
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, header int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return writeRows(f, sheet, rows, header, 1)
}

// writeRows fills sheet from A1 and bolds the first headerRows rows.
func writeRows(f *excelize.File, sheet string, rows [][]any, header, headerRows int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), min(headerRows, len(rows)))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", "A", 16)
}
