// Package export writes the side outputs of a batch: QR case labels, a PDF
// recap of every output file, and DXF core-cut sheets for the foam shop.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/literie/internal/engine"
	"github.com/piwi3910/literie/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each case label's QR code.
type LabelInfo struct {
	CaseNumber int    `json:"case"`
	File       string `json:"file"`
	Slot       int    `json:"slot"`
	Kind       string `json:"kind"`
	Week       string `json:"week"`
	OrderID    string `json:"order"`
	Client     string `json:"client,omitempty"`
	Type       string `json:"type,omitempty"`
	Dimensions string `json:"dims"`
	Unit       string `json:"unit,omitempty"`
	CoreCut    string `json:"core_cut,omitempty"`
	Literie    string `json:"literie,omitempty"`
}

// Label layout constants for 3 x 10 label sheets on A4 paper.
const (
	labelMarginTop  = 0.0
	labelMarginLeft = 0.0
	labelWidth      = 70.0 // mm per label
	labelHeight     = 29.7 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 22.0 // QR code size in mm
	labelPadding    = 2.5  // mm internal padding
)

// ExportCaseLabels generates a PDF of QR-coded labels, one per written case.
// Each label shows the case number, client and dimensions; the QR code
// carries the label data as JSON.
func ExportCaseLabels(path string, cases []engine.CaseRecord) error {
	labels := CollectLabelInfos(cases)
	if len(labels) == 0 {
		return fmt.Errorf("no cases to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, tr, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for case %d: %w", label.CaseNumber, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.File, info.CaseNumber)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 6, tr(fmt.Sprintf("N° %d", info.CaseNumber)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(textX, y+labelPadding+7)
	pdf.CellFormat(textW, 3.5, tr(truncate(pdf, info.Client, textW)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+11)
	dims := info.Dimensions
	if info.Unit != "" {
		dims += "  (" + info.Unit + ")"
	}
	pdf.CellFormat(textW, 3.5, tr(dims), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+15)
	pdf.CellFormat(textW, 3, tr(truncate(pdf, info.Type, textW)), "", 1, "L", false, 0, "")
	pdf.SetXY(textX, y+labelPadding+18.5)
	pdf.CellFormat(textW, 3, tr(fmt.Sprintf("%s · %s", info.Week, info.OrderID)), "", 1, "L", false, 0, "")

	if info.CoreCut != "" {
		pdf.SetXY(textX, y+labelPadding+22)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "Noyau "+info.CoreCut, "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis so it fits in width.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts label information from written cases.
func CollectLabelInfos(cases []engine.CaseRecord) []LabelInfo {
	labels := make([]LabelInfo, 0, len(cases))
	for _, c := range cases {
		rec := c.Record
		info := LabelInfo{
			CaseNumber: c.CaseNumber,
			File:       c.File,
			Slot:       c.Slot,
			Kind:       rec.Kind.TypeLabel(),
			Week:       rec.WeekCode,
			OrderID:    rec.OrderOrClientID,
			Client:     rec.ClientName,
			Type:       rec.TypeName(),
			Dimensions: fmt.Sprintf("%g x %g", rec.Width, rec.Length),
			CoreCut:    c.Derived.CoreCut.OrElse(""),
			Literie:    c.Derived.Literie.OrElse(""),
		}
		if rec.Quantity > 1 {
			info.Unit = fmt.Sprintf("%d/%d", rec.UnitIndex, rec.Quantity)
		}
		if rec.Kind != model.KindMattress {
			info.CoreCut = ""
		}
		labels = append(labels, info)
	}
	return labels
}
