package engine

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/piwi3910/literie/internal/model"
)

// SequenceKey identifies an output file sequence. Mattresses and bed frames of
// the same order never share files.
type SequenceKey struct {
	Kind    model.Kind `json:"kind"`
	Week    string     `json:"week"`
	OrderID string     `json:"order_id"`
}

// KeyOf returns the sequence a record belongs to.
func KeyOf(rec model.OrderLineRecord) SequenceKey {
	return SequenceKey{
		Kind:    rec.Kind,
		Week:    strings.TrimSpace(rec.WeekCode),
		OrderID: strings.TrimSpace(rec.OrderOrClientID),
	}
}

func (k SequenceKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Week, k.OrderID)
}

// Prefix is the part of every file name of the sequence before the index.
func (k SequenceKey) Prefix() string {
	return fmt.Sprintf("%s_%s_%s_", k.Kind.TypeLabel(), safeName(k.Week), safeName(k.OrderID))
}

// FileName returns <TypeLabel>_<Week>_<OrderID>_<index>.xlsx.
func (k SequenceKey) FileName(index int) string {
	return fmt.Sprintf("%s%d.xlsx", k.Prefix(), index)
}

// safeName replaces characters that cannot appear in a file name.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '-'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '-'
		}
		return r
	}, s)
}
