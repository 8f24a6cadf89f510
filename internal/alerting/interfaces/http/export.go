package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	alerting "agroalert/internal/alerting/domain"
)

// BuildNotificationsPDF renders a minimal PDF listing of notifications.
func BuildNotificationsPDF(notifications []alerting.Notification) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Alert Notifications")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rows: %d", len(notifications)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(38, 6, "Triggered", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Action", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Probability", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(160, 6, "Message", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, n := range notifications {
		pdf.CellFormat(38, 6, n.TriggeredAt.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, n.Action, "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.2f", n.Probability), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, n.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(160, 6, truncateCell(n.Message, 110), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildNotificationsXLSX renders a minimal XLSX listing of notifications.
func BuildNotificationsXLSX(notifications []alerting.Notification) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "notifications"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "ID")
	_ = f.SetCellValue(sheet, "B1", "Triggered")
	_ = f.SetCellValue(sheet, "C1", "Action")
	_ = f.SetCellValue(sheet, "D1", "Probability")
	_ = f.SetCellValue(sheet, "E1", "Status")
	_ = f.SetCellValue(sheet, "F1", "Alert Config")
	_ = f.SetCellValue(sheet, "G1", "Forecast")
	_ = f.SetCellValue(sheet, "H1", "Previous")
	_ = f.SetCellValue(sheet, "I1", "Message")
	for i, n := range notifications {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), n.ID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), n.TriggeredAt.Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), n.Action)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), n.Probability)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), n.Status)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), n.AlertConfigID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), n.ForecastID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), n.PreviousID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), n.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncateCell shortens a message to max runes; cutting on a byte index
// could split a multibyte character.
func truncateCell(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
