package sheet

import (
	"fmt"
	"unicode/utf8"

	"github.com/piwi3910/literie/internal/measure"
	"github.com/piwi3910/literie/internal/model"
	"github.com/xuri/excelize/v2"
)

// Align is a horizontal cell alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// fieldAlign is the per-field alignment applied before normalization.
var fieldAlign = map[Field]Align{
	FieldClient:   AlignLeft,
	FieldAddress:  AlignLeft,
	FieldDelivery: AlignLeft,
	FieldNotes:    AlignLeft,
}

func alignFor(f Field) Align {
	if a, ok := fieldAlign[f]; ok {
		return a
	}
	return AlignCenter
}

// Writer fills slots and applies the presentation rules.
type Writer struct {
	DecimalSeparator  string
	MinColumnWidth    float64
	ColumnWidthFactor float64
}

// DefaultWriter matches model.DefaultAppConfig.
func DefaultWriter() Writer {
	return Writer{DecimalSeparator: ",", MinColumnWidth: 12, ColumnWidthFactor: 1.3}
}

// SlotValues returns what WriteSlot puts in each row of a slot. Fields the
// layout does not have are omitted; unset derived fields map to "".
func (w Writer) SlotValues(layout Layout, rec model.OrderLineRecord, d model.DerivedFields) map[Field]any {
	sep := w.DecimalSeparator
	values := map[Field]any{
		FieldClient:      rec.ClientName,
		FieldAddress:     rec.Address,
		FieldOrderID:     rec.OrderOrClientID,
		FieldWeek:        rec.WeekCode,
		FieldDates:       productionDates(rec.MondayDate, rec.FridayDate),
		FieldType:        rec.TypeName(),
		FieldFirmness:    rec.Firmness.String(),
		FieldCover:       rec.CoverMaterial.String(),
		FieldHeight:      "",
		FieldDimensions:  measure.FormatCm(rec.Width, sep) + " x " + measure.FormatCm(rec.Length, sep),
		FieldQuantity:    quantityLabel(rec),
		FieldCoverWidth:  d.CoverWidth.OrElse(""),
		FieldCoverLength: d.CoverLength.OrElse(""),
		FieldCoreCut:     d.CoreCut.OrElse(""),
		FieldLiterie:     d.Literie.OrElse(""),
		FieldHandles:     "NON",
		FieldDelivery:    rec.Delivery,
		FieldNotes:       rec.Notes,
	}
	if rec.Height > 0 {
		values[FieldHeight] = measure.FormatCm(rec.Height, sep)
	}
	if rec.Handles {
		values[FieldHandles] = "OUI"
	}
	for f := range values {
		if layout.Row(f) == 0 {
			delete(values, f)
		}
	}
	return values
}

func productionDates(monday, friday string) string {
	switch {
	case monday != "" && friday != "":
		return fmt.Sprintf("du %s au %s", monday, friday)
	case monday != "":
		return monday
	default:
		return friday
	}
}

func quantityLabel(rec model.OrderLineRecord) any {
	if rec.Quantity > 1 {
		return fmt.Sprintf("%d/%d", rec.UnitIndex, rec.Quantity)
	}
	return 1
}

// WriteSlot writes a record and its derived fields into slot, then
// normalizes the slot presentation. Only the in-memory document changes.
func (w Writer) WriteSlot(doc *Document, s Slot, rec model.OrderLineRecord, d model.DerivedFields) error {
	layout := doc.Layout()
	values := w.SlotValues(layout, rec, d)
	for _, f := range layout.Order {
		v, ok := values[f]
		if !ok {
			continue
		}
		row := layout.Row(f)
		if err := doc.SetCell(s.Left, row, v); err != nil {
			return fmt.Errorf("%s %s: %w", s, f.Label(), err)
		}
		style, err := doc.style(styleKey{align: alignFor(f)})
		if err != nil {
			return err
		}
		if err := doc.f.SetCellStyle(doc.sheet, s.Cell(row), fmt.Sprintf("%s%d", s.Right, row), style); err != nil {
			return fmt.Errorf("%s %s: %w", s, f.Label(), err)
		}
	}
	return w.NormalizeSlot(doc, s)
}

// NormalizeSlot applies a uniform centered style over the whole column range
// of a slot. The case number row keeps its header style.
func (w Writer) NormalizeSlot(doc *Document, s Slot) error {
	layout := doc.Layout()
	first := layout.Row(FieldCaseNumber) + 1
	style, err := doc.style(styleKey{align: AlignCenter})
	if err != nil {
		return err
	}
	return doc.f.SetCellStyle(doc.sheet,
		fmt.Sprintf("%s%d", s.Left, first),
		fmt.Sprintf("%s%d", s.Right, layout.LastRow()),
		style)
}

// NumberCases writes the case numbers of file fileIndex (1-based) into every
// usable slot: file i holds cases (i-1)·capacity+1 … i·capacity.
func (w Writer) NumberCases(doc *Document, fileIndex int) error {
	if fileIndex < 1 {
		return fmt.Errorf("file index must be >= 1, got %d", fileIndex)
	}
	layout := doc.Layout()
	row := layout.Row(FieldCaseNumber)
	capacity := layout.Capacity()
	style, err := doc.style(styleKey{align: AlignCenter, bold: true, fill: headerFill})
	if err != nil {
		return err
	}
	for _, s := range layout.Slots() {
		if err := doc.SetCell(s.Left, row, CaseNumber(fileIndex, s.Index, capacity)); err != nil {
			return err
		}
		if err := doc.f.SetCellStyle(doc.sheet, s.Cell(row), fmt.Sprintf("%s%d", s.Right, row), style); err != nil {
			return err
		}
	}
	return nil
}

// CaseNumber is the global number of slot index in file fileIndex.
func CaseNumber(fileIndex, slotIndex, capacity int) int {
	return (fileIndex-1)*capacity + slotIndex + 1
}

// AutoSizeColumns sizes each slot column from the text length of its case
// number cell, never below MinColumnWidth.
func (w Writer) AutoSizeColumns(doc *Document) error {
	layout := doc.Layout()
	row := layout.Row(FieldCaseNumber)
	for _, s := range layout.Slots() {
		text, err := doc.Cell(s.Left, row)
		if err != nil {
			return err
		}
		width := float64(utf8.RuneCountInString(text)) * w.ColumnWidthFactor
		if width < w.MinColumnWidth {
			width = w.MinColumnWidth
		}
		if err := doc.f.SetColWidth(doc.sheet, s.Left, s.Right, width); err != nil {
			return fmt.Errorf("set col width %s:%s: %w", s.Left, s.Right, err)
		}
	}
	return nil
}

const (
	headerFill = "#D9E1F2"
	lockedFill = "#BFBFBF"
)

type styleKey struct {
	align Align
	bold  bool
	fill  string
}

func (d *Document) style(k styleKey) (int, error) {
	if id, ok := d.styles[k]; ok {
		return id, nil
	}
	s := &excelize.Style{
		Font: &excelize.Font{Bold: k.bold, Size: 10},
		Alignment: &excelize.Alignment{
			Horizontal: string(k.align),
			Vertical:   "center",
			WrapText:   true,
		},
		Border: thinBorders(),
	}
	if k.fill != "" {
		s.Fill = excelize.Fill{Type: "pattern", Color: []string{k.fill}, Pattern: 1}
	}
	id, err := d.f.NewStyle(s)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	d.styles[k] = id
	return id, nil
}

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
	}
}
