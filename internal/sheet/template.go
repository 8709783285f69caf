package sheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// TemplateSheetName is the name of the slot sheet in generated templates.
const TemplateSheetName = "Caisses"

// NewTemplate builds a blank template workbook for layout: row titles in the
// label column, every column pair merged row by row, locked pairs greyed out,
// and placeholder numbers 1..capacity in the case number row.
func NewTemplate(layout Layout) (*Document, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	doc, err := NewDocument(f, layout)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := buildTemplate(doc); err != nil {
		doc.Close()
		return nil, err
	}
	return doc, nil
}

func buildTemplate(doc *Document) error {
	layout := doc.layout
	sheet := doc.sheet
	last := layout.LastRow()

	labelStyle, err := doc.style(styleKey{align: AlignLeft, bold: true, fill: headerFill})
	if err != nil {
		return err
	}
	for _, f := range layout.Order {
		row := layout.Row(f)
		cell := fmt.Sprintf("%s%d", layout.LabelColumn, row)
		if err := doc.f.SetCellValue(sheet, cell, f.Label()); err != nil {
			return fmt.Errorf("write label %s: %w", cell, err)
		}
		if err := doc.f.SetCellStyle(sheet, cell, cell, labelStyle); err != nil {
			return err
		}
	}
	if err := doc.f.SetColWidth(sheet, layout.LabelColumn, layout.LabelColumn, 18); err != nil {
		return err
	}

	bodyStyle, err := doc.style(styleKey{align: AlignCenter})
	if err != nil {
		return err
	}
	lockedStyle, err := doc.style(styleKey{align: AlignCenter, fill: lockedFill})
	if err != nil {
		return err
	}
	for pos, p := range layout.Pairs {
		for row := 1; row <= last; row++ {
			left := fmt.Sprintf("%s%d", p[0], row)
			right := fmt.Sprintf("%s%d", p[1], row)
			if err := doc.f.MergeCell(sheet, left, right); err != nil {
				return fmt.Errorf("merge %s:%s: %w", left, right, err)
			}
		}
		style := bodyStyle
		if layout.Locked[pos] {
			style = lockedStyle
		}
		if err := doc.f.SetCellStyle(sheet, p[0]+"1", fmt.Sprintf("%s%d", p[1], last), style); err != nil {
			return err
		}
	}

	headerStyle, err := doc.style(styleKey{align: AlignCenter, bold: true, fill: headerFill})
	if err != nil {
		return err
	}
	caseRow := layout.Row(FieldCaseNumber)
	for _, s := range layout.Slots() {
		if err := doc.SetCell(s.Left, caseRow, s.Index+1); err != nil {
			return err
		}
		if err := doc.f.SetCellStyle(sheet, s.Cell(caseRow), fmt.Sprintf("%s%d", s.Right, caseRow), headerStyle); err != nil {
			return err
		}
	}
	if err := doc.f.SetColWidth(sheet, layout.FirstColumn(), layout.LastColumn(), 12); err != nil {
		return err
	}
	return doc.f.SetRowHeight(sheet, caseRow, 22)
}

// WriteTemplate generates a blank template for layout at path, creating
// parent directories as needed.
func WriteTemplate(layout Layout, path string) error {
	doc, err := NewTemplate(layout)
	if err != nil {
		return err
	}
	defer doc.Close()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create template directory: %w", err)
		}
	}
	if err := doc.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}
