package sheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Document is an open template instance. It owns the underlying workbook
// until Close is called.
type Document struct {
	f      *excelize.File
	sheet  string
	layout Layout
	styles map[styleKey]int
}

// NewDocument wraps an open workbook. The first sheet holds the slots.
func NewDocument(f *excelize.File, layout Layout) (*Document, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return &Document{f: f, sheet: sheets[0], layout: layout, styles: map[styleKey]int{}}, nil
}

// OpenDocument reads a workbook from its serialized form.
func OpenDocument(data []byte, layout Layout) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	doc, err := NewDocument(f, layout)
	if err != nil {
		f.Close()
		return nil, err
	}
	return doc, nil
}

// Layout returns the document layout.
func (d *Document) Layout() Layout { return d.layout }

// Sheet returns the slot sheet name.
func (d *Document) Sheet() string { return d.sheet }

// File exposes the workbook for callers that need raw excelize access.
func (d *Document) File() *excelize.File { return d.f }

// Slots returns the usable slots in fill order.
func (d *Document) Slots() []Slot { return d.layout.Slots() }

// Cell returns the trimmed text of a cell.
func (d *Document) Cell(col string, row int) (string, error) {
	v, err := d.f.GetCellValue(d.sheet, fmt.Sprintf("%s%d", col, row))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// SetCell writes a value. Empty strings clear the cell.
func (d *Document) SetCell(col string, row int, value any) error {
	return d.f.SetCellValue(d.sheet, fmt.Sprintf("%s%d", col, row), value)
}

// FieldValue reads a slot field.
func (d *Document) FieldValue(s Slot, f Field) (string, error) {
	row := d.layout.Row(f)
	if row == 0 {
		return "", nil
	}
	return d.Cell(s.Left, row)
}

// CaseNumbers reads the case number of every usable slot; 0 means blank or
// non-numeric.
func (d *Document) CaseNumbers() ([]int, error) {
	row := d.layout.Row(FieldCaseNumber)
	slots := d.Slots()
	out := make([]int, len(slots))
	for i, s := range slots {
		v, err := d.Cell(s.Left, row)
		if err != nil {
			return nil, err
		}
		out[i], _ = strconv.Atoi(v)
	}
	return out, nil
}

// Bytes serializes the workbook.
func (d *Document) Bytes() ([]byte, error) {
	buf, err := d.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the workbook.
func (d *Document) Close() error {
	return d.f.Close()
}
