// Package receipts writes an .xlsx receipt for every completed order.
package receipts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheet = "Receipt"

type Line struct {
	Title string
	Price int64
}

type Receipt struct {
	OrderID   string
	ChatID    int64
	CreatedAt time.Time
	Payment   string
	Address   string
	Email     string
	Phone     string
	Lines     []Line
	Total     int64
}

type Exporter struct {
	dir string
}

func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Export writes the receipt into the exporter's directory and returns the
// file path.
func (e *Exporter) Export(r Receipt) (string, error) {
	const operation = "receipts.Export"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", fmt.Errorf("%s: failed to name sheet: %w", operation, err)
	}

	header := [][2]any{
		{"Заказ", r.OrderID},
		{"Дата", r.CreatedAt.Format("2006-01-02 15:04")},
		{"Оплата", paymentLabel(r.Payment)},
		{"Адрес", r.Address},
		{"Email", r.Email},
		{"Телефон", r.Phone},
	}
	for i, row := range header {
		if err := setRow(f, i+1, row[0], row[1]); err != nil {
			return "", fmt.Errorf("%s: %w", operation, err)
		}
	}

	first := len(header) + 2
	if err := setRow(f, first, "№", "Товар", "Цена"); err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	for i, line := range r.Lines {
		if err := setRow(f, first+1+i, i+1, line.Title, line.Price); err != nil {
			return "", fmt.Errorf("%s: %w", operation, err)
		}
	}
	totalRow := first + len(r.Lines) + 1
	if err := setRow(f, totalRow, "", "Итого", r.Total); err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return "", fmt.Errorf("%s: failed to create style: %w", operation, err)
	}
	_ = f.SetCellStyle(sheet, "A1", fmt.Sprintf("A%d", len(header)), style)
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", first), fmt.Sprintf("C%d", first), style)
	_ = f.SetCellStyle(sheet, fmt.Sprintf("B%d", totalRow), fmt.Sprintf("C%d", totalRow), style)
	_ = f.SetColWidth(sheet, "B", "B", 40)

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: failed to create receipts directory: %w", operation, err)
	}

	name := fmt.Sprintf("receipt_%d_%s.xlsx", r.ChatID, r.CreatedAt.Format("20060102_150405"))
	path := filepath.Join(e.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("%s: failed to save Excel file: %w", operation, err)
	}

	return path, nil
}

func setRow(f *excelize.File, row int, values ...any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

func paymentLabel(payment string) string {
	switch payment {
	case "online":
		return "Онлайн"
	case "upon-receipt":
		return "При получении"
	default:
		return payment
	}
}
