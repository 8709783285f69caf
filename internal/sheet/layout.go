// Package sheet models the fixed case-slot layout of the production templates
// and provides slot allocation, slot writing and template generation on top
// of excelize.
package sheet

import (
	"fmt"

	"github.com/piwi3910/literie/internal/model"
)

// Field is a row of a case slot.
type Field int

const (
	FieldCaseNumber Field = iota
	FieldClient
	FieldAddress
	FieldOrderID
	FieldWeek
	FieldDates
	FieldType
	FieldFirmness
	FieldCover
	FieldHeight
	FieldDimensions
	FieldQuantity
	FieldCoverWidth
	FieldCoverLength
	FieldCoreCut
	FieldLiterie
	FieldHandles
	FieldDelivery
	FieldNotes
)

var fieldLabels = map[Field]string{
	FieldCaseNumber:  "N° caisse",
	FieldClient:      "Client",
	FieldAddress:     "Adresse",
	FieldOrderID:     "N° commande",
	FieldWeek:        "Semaine",
	FieldDates:       "Production",
	FieldType:        "Type",
	FieldFirmness:    "Fermeté",
	FieldCover:       "Housse",
	FieldHeight:      "Hauteur",
	FieldDimensions:  "Dimensions",
	FieldQuantity:    "Quantité",
	FieldCoverWidth:  "Housse largeur",
	FieldCoverLength: "Housse longueur",
	FieldCoreCut:     "Découpe noyau",
	FieldLiterie:     "Literie",
	FieldHandles:     "Poignées",
	FieldDelivery:    "Livraison",
	FieldNotes:       "Remarques",
}

// Label returns the row title printed in the label column.
func (f Field) Label() string {
	return fieldLabels[f]
}

// Slot is one usable case position: a pair of adjacent columns.
type Slot struct {
	Index    int    // 0-based among usable slots
	Position int    // 0-based among all column pairs, locked ones included
	Left     string // column letter
	Right    string
}

// Cell returns the reference of the left cell at row.
func (s Slot) Cell(row int) string {
	return fmt.Sprintf("%s%d", s.Left, row)
}

func (s Slot) String() string {
	return fmt.Sprintf("slot %d (%s:%s)", s.Index+1, s.Left, s.Right)
}

// Layout describes where everything lives in a template.
type Layout struct {
	Kind        model.Kind
	LabelColumn string
	Pairs       [][2]string   // every column pair, left to right
	Locked      map[int]bool  // positions in Pairs never written to
	Rows        map[Field]int // 1-based row per field
	Order       []Field       // fields in row order
	KeyFields   []Field       // fields that decide slot occupancy
}

var columnPairs = [][2]string{
	{"C", "D"}, {"E", "F"}, {"G", "H"}, {"I", "J"}, {"K", "L"}, {"M", "N"},
	{"O", "P"}, {"Q", "R"}, {"S", "T"}, {"U", "V"}, {"W", "X"}, {"Y", "Z"},
}

func newLayout(kind model.Kind, order []Field) Layout {
	rows := make(map[Field]int, len(order))
	for i, f := range order {
		rows[f] = i + 1
	}
	return Layout{
		Kind:        kind,
		LabelColumn: "A",
		Pairs:       columnPairs,
		Locked:      map[int]bool{5: true, 11: true},
		Rows:        rows,
		Order:       order,
		KeyFields:   []Field{FieldClient, FieldOrderID, FieldDimensions},
	}
}

// MattressLayout is the layout of the mattress template.
func MattressLayout() Layout {
	return newLayout(model.KindMattress, []Field{
		FieldCaseNumber, FieldClient, FieldAddress, FieldOrderID, FieldWeek, FieldDates,
		FieldType, FieldFirmness, FieldCover, FieldHeight, FieldDimensions, FieldQuantity,
		FieldCoverWidth, FieldCoverLength, FieldCoreCut, FieldLiterie, FieldHandles,
		FieldDelivery, FieldNotes,
	})
}

// BedFrameLayout is the layout of the bed-frame template.
func BedFrameLayout() Layout {
	return newLayout(model.KindBedFrame, []Field{
		FieldCaseNumber, FieldClient, FieldAddress, FieldOrderID, FieldWeek, FieldDates,
		FieldType, FieldHeight, FieldDimensions, FieldQuantity, FieldLiterie,
		FieldDelivery, FieldNotes,
	})
}

// LayoutFor returns the layout of the template for kind.
func LayoutFor(kind model.Kind) (Layout, error) {
	switch kind {
	case model.KindMattress:
		return MattressLayout(), nil
	case model.KindBedFrame:
		return BedFrameLayout(), nil
	default:
		return Layout{}, fmt.Errorf("no layout for kind %s", kind)
	}
}

// Slots returns the usable slots in fill order, locked pairs skipped.
func (l Layout) Slots() []Slot {
	slots := make([]Slot, 0, len(l.Pairs))
	for pos, p := range l.Pairs {
		if l.Locked[pos] {
			continue
		}
		slots = append(slots, Slot{Index: len(slots), Position: pos, Left: p[0], Right: p[1]})
	}
	return slots
}

// Capacity is the number of usable slots.
func (l Layout) Capacity() int {
	return len(l.Pairs) - len(l.Locked)
}

// Row returns the row of f, or 0 when the layout has no such field.
func (l Layout) Row(f Field) int {
	return l.Rows[f]
}

// LastRow is the bottom row of a slot.
func (l Layout) LastRow() int {
	return len(l.Order)
}

// FirstColumn and LastColumn bound the slot area.
func (l Layout) FirstColumn() string { return l.Pairs[0][0] }
func (l Layout) LastColumn() string  { return l.Pairs[len(l.Pairs)-1][1] }
