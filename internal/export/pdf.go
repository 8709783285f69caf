package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/literie/internal/engine"
	"github.com/piwi3910/literie/internal/sheet"
)

// slotColor represents an RGB fill for an occupied slot.
type slotColor struct {
	R, G, B int
}

var (
	writtenColor  = slotColor{R: 76, G: 175, B: 80}  // filled during the run
	existingColor = slotColor{R: 33, G: 150, B: 243} // filled by an earlier run
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 12.0
	marginRight  = 12.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	slotHeight   = 120.0
)

// ExportRecap generates a PDF with one page per output file, showing its
// column pairs left to right (locked ones hatched) with case numbers and
// occupancy, followed by a summary page.
func ExportRecap(path string, report *engine.Report) error {
	if report == nil || (len(report.Files) == 0 && len(report.Failed) == 0) {
		return fmt.Errorf("nothing to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	byFile := casesByFile(report.Cases)
	for _, f := range report.Files {
		layout, err := sheet.LayoutFor(f.Key.Kind)
		if err != nil {
			return err
		}
		pdf.AddPage()
		renderFilePage(pdf, tr, f, layout, byFile[f.Name])
	}

	pdf.AddPage()
	renderSummaryPage(pdf, tr, report)

	return pdf.OutputFileAndClose(path)
}

func casesByFile(cases []engine.CaseRecord) map[string]map[int]engine.CaseRecord {
	out := map[string]map[int]engine.CaseRecord{}
	for _, c := range cases {
		if out[c.File] == nil {
			out[c.File] = map[int]engine.CaseRecord{}
		}
		out[c.File][c.Slot] = c
	}
	return out
}

// renderFilePage draws a single output file on the current PDF page.
func renderFilePage(pdf *fpdf.Fpdf, tr func(string) string, f engine.FileReport, layout sheet.Layout, cases map[int]engine.CaseRecord) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, tr(f.Name), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	state := "nouveau"
	if f.Resumed {
		state = "repris"
	}
	stats := fmt.Sprintf("Semaine %s | Commande %s | Caisses %d-%d | Occupées %d/%d | Ajoutées %d | Fichier %s",
		f.Key.Week, f.Key.OrderID, f.FirstCase, f.LastCase, f.SlotsUsed, len(f.Occupied), f.Written, state)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, tr(stats), "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	pairWidth := drawWidth / float64(len(layout.Pairs))
	slots := layout.Slots()
	slotByPos := map[int]int{}
	for _, s := range slots {
		slotByPos[s.Position] = s.Index
	}

	for pos, pair := range layout.Pairs {
		x := marginLeft + float64(pos)*pairWidth
		y := drawAreaTop

		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(80, 80, 80)
		pdf.SetXY(x, y-5)
		pdf.CellFormat(pairWidth, 4, pair[0]+"/"+pair[1], "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)

		if layout.Locked[pos] {
			pdf.SetFillColor(230, 230, 230)
			pdf.SetDrawColor(120, 120, 120)
			pdf.SetLineWidth(0.3)
			pdf.Rect(x, y, pairWidth, slotHeight, "FD")
			drawHatchPattern(pdf, x, y, pairWidth, slotHeight)
			continue
		}

		idx := slotByPos[pos]
		occupied := idx < len(f.Occupied) && f.Occupied[idx]
		c, writtenNow := cases[idx+1]

		switch {
		case writtenNow:
			pdf.SetFillColor(writtenColor.R, writtenColor.G, writtenColor.B)
		case occupied:
			pdf.SetFillColor(existingColor.R, existingColor.G, existingColor.B)
		default:
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(x, y, pairWidth, slotHeight, "FD")

		number := sheet.CaseNumber(f.Index, idx, len(f.Occupied))
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetXY(x, y+2)
		pdf.CellFormat(pairWidth, 6, fmt.Sprintf("%d", number), "", 0, "C", false, 0, "")

		if writtenNow {
			drawCaseText(pdf, tr, c, x, y+12, pairWidth)
		}
	}

	drawLegend(pdf, tr, drawAreaTop+slotHeight+6)
}

// drawCaseText writes the main fields of a case inside its slot rectangle.
func drawCaseText(pdf *fpdf.Fpdf, tr func(string) string, c engine.CaseRecord, x, y, w float64) {
	rec := c.Record
	lines := []string{
		rec.ClientName,
		fmt.Sprintf("%g x %g", rec.Width, rec.Length),
		rec.TypeName(),
		string(rec.Firmness),
		string(rec.CoverMaterial),
		c.Derived.CoreCut.OrElse(""),
	}
	pdf.SetFont("Helvetica", "", labelFontSize(w, slotHeight))
	for _, line := range lines {
		if line == "" {
			continue
		}
		pdf.SetXY(x+1, y)
		pdf.MultiCell(w-2, 3.5, tr(line), "", "C", false)
		y = pdf.GetY() + 1
	}
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark locked columns.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

func drawLegend(pdf *fpdf.Fpdf, tr func(string) string, y float64) {
	items := []struct {
		color *slotColor
		label string
	}{
		{&writtenColor, "rempli par ce lot"},
		{&existingColor, "déjà rempli"},
		{nil, "colonnes verrouillées"},
	}
	pdf.SetFont("Helvetica", "", 8)
	x := marginLeft
	for _, it := range items {
		if it.color != nil {
			pdf.SetFillColor(it.color.R, it.color.G, it.color.B)
			pdf.Rect(x, y+0.5, 3, 3, "F")
		} else {
			pdf.SetFillColor(230, 230, 230)
			pdf.Rect(x, y+0.5, 3, 3, "FD")
		}
		pdf.SetXY(x+4, y)
		label := tr(it.label)
		w := pdf.GetStringWidth(label) + 2
		pdf.CellFormat(w, 4, label, "", 0, "L", false, 0, "")
		x += w + 10
	}
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, tr func(string) string, report *engine.Report) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, tr("Récapitulatif du lot"), "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	summaryItems := []struct {
		label string
		value string
	}{
		{"Lot", report.RunID},
		{"Fichiers écrits", fmt.Sprintf("%d", len(report.Files))},
		{"Caisses ajoutées", fmt.Sprintf("%d", len(report.Cases))},
		{"Séquences en échec", fmt.Sprintf("%d", len(report.Failed))},
		{"Lignes rejetées", fmt.Sprintf("%d", len(report.Rejected))},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, tr(item.label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(100, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	colWidths := []float64{85, 25, 25, 35, 30, 30, 30}
	headers := []string{"Fichier", "Semaine", "Commande", "Caisses", "Occupées", "Ajoutées", "État"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, tr(header), "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, f := range report.Files {
		if y > pageHeight-marginBottom-10 {
			pdf.AddPage()
			y = marginTop
		}
		state := "nouveau"
		if f.Resumed {
			state = "repris"
		}
		rowData := []string{
			f.Name,
			f.Key.Week,
			f.Key.OrderID,
			fmt.Sprintf("%d-%d", f.FirstCase, f.LastCase),
			fmt.Sprintf("%d/%d", f.SlotsUsed, len(f.Occupied)),
			fmt.Sprintf("%d", f.Written),
			state,
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, tr(cell), "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(report.Failed) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, tr("ATTENTION : séquences interrompues"), "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, fail := range report.Failed {
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s (%d ligne(s) non traitée(s))", fail.Error(), fail.Skipped)
			pdf.CellFormat(260, 5, tr(text), "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4,
		fmt.Sprintf("Lot %s - %s", report.RunID, report.StartedAt.Format("02/01/2006 15:04")), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
