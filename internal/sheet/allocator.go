package sheet

import (
	"strconv"
)

// IsSlotEmpty reports whether a slot holds no real data. A key cell counts as
// empty when it is blank or holds a small integer up to threshold: templates
// ship with placeholder numbers that are not order data.
func IsSlotEmpty(doc *Document, s Slot, threshold int) (bool, error) {
	for _, f := range doc.Layout().KeyFields {
		v, err := doc.FieldValue(s, f)
		if err != nil {
			return false, err
		}
		if v == "" || isPlaceholder(v, threshold) {
			continue
		}
		return false, nil
	}
	return true, nil
}

func isPlaceholder(v string, threshold int) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n >= 0 && n <= threshold
}

// FindNextEmptySlot returns the first empty slot in fill order. The boolean
// is false when every usable slot is occupied.
func FindNextEmptySlot(doc *Document, threshold int) (Slot, bool, error) {
	for _, s := range doc.Slots() {
		empty, err := IsSlotEmpty(doc, s, threshold)
		if err != nil {
			return Slot{}, false, err
		}
		if empty {
			return s, true, nil
		}
	}
	return Slot{}, false, nil
}

// CountOccupied returns how many usable slots hold data.
func CountOccupied(doc *Document, threshold int) (int, error) {
	n := 0
	for _, s := range doc.Slots() {
		empty, err := IsSlotEmpty(doc, s, threshold)
		if err != nil {
			return 0, err
		}
		if !empty {
			n++
		}
	}
	return n, nil
}
