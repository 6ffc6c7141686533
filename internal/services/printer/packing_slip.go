// Package printer renders packing slips for resolved shortages. Each line
// carries a QR code the storekeeper scans to mark it packed.
package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// SlipLine is one printable row of a packing slip.
type SlipLine struct {
	LineID       int64
	ProductName  string
	SupplierName string
	RequestedQty float64
	AvailableQty float64
	Packed       bool
}

// Slip is the data for one packing slip.
type Slip struct {
	MasterID     int64
	OrderNumber  string
	CustomerName string
	ReportedDate string
	Lines        []SlipLine
}

// qr payload scanned by the storekeeper app to pack a line.
func qrContent(lineID int64) string {
	return fmt.Sprintf("FIELDOPS/PACK/%d", lineID)
}

// GeneratePackingSlip renders one A4 packing slip.
func GeneratePackingSlip(slip Slip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Packing Slip", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Shortage #%d", slip.MasterID), "", 1, "L", false, 0, "")
	if slip.OrderNumber != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Order: %s", slip.OrderNumber), "", 1, "L", false, 0, "")
	}
	if slip.CustomerName != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Customer: %s", slip.CustomerName), "", 1, "L", false, 0, "")
	}
	if slip.ReportedDate != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Reported: %s", slip.ReportedDate), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Table header
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(60, 8, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Supplier", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Req.", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 8, "Avail.", "1", 0, "R", true, 0, "")
	pdf.CellFormat(18, 8, "Packed", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 8, "Scan", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	const rowH = 22.0
	for i, line := range slip.Lines {
		qrPng, err := qrcode.Encode(qrContent(line.LineID), qrcode.Low, 128)
		if err != nil {
			return nil, fmt.Errorf("encode QR for line %d: %w", line.LineID, err)
		}

		x, y := pdf.GetXY()
		pdf.CellFormat(60, rowH, line.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, rowH, line.SupplierName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, rowH, fmt.Sprintf("%.0f", line.RequestedQty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, rowH, fmt.Sprintf("%.0f", line.AvailableQty), "1", 0, "R", false, 0, "")
		packed := ""
		if line.Packed {
			packed = "X"
		}
		pdf.CellFormat(18, rowH, packed, "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, rowH, "", "1", 1, "C", false, 0, "")

		imgName := fmt.Sprintf("qr_line_%d_%d", line.LineID, i)
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPng))
		qrSize := rowH - 4
		pdf.ImageOptions(imgName, x+158+(22-qrSize)/2, y+2, qrSize, qrSize, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render packing slip: %w", err)
	}
	return buf.Bytes(), nil
}
