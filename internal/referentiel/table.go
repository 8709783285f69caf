// Package referentiel holds the read-only dimension tables used to derive
// cover measurements. A table maps an integer dimension (cm) to one value per
// cover material and supports exact and interpolated reads.
package referentiel

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/literie/internal/model"
)

var (
	// ErrOutOfRange is returned when a dimension falls outside the table domain.
	ErrOutOfRange = errors.New("out of referential range")
	// ErrUnknownMaterial is returned when the table has no column for a material.
	ErrUnknownMaterial = errors.New("unknown referential material")
)

// Cell is one referential value, optionally carrying a multiplicity prefix
// such as "2 x" in "2 x 76".
type Cell struct {
	Count int     // 0 when the cell has no prefix
	Value float64 // cm
}

var cellPattern = regexp.MustCompile(`^\s*(\d+)\s*[xX×]\s*(.+?)\s*$`)

// ParseCell reads "2 x 76", "76,5" or "76.5".
func ParseCell(s string) (Cell, error) {
	var c Cell
	raw := strings.TrimSpace(s)
	if m := cellPattern.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Cell{}, fmt.Errorf("invalid multiplicity in %q: %w", s, err)
		}
		c.Count = n
		raw = m[2]
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return Cell{}, fmt.Errorf("invalid referential value %q", s)
	}
	c.Value = v
	return c, nil
}

// Table is an immutable dimension → material → value mapping.
type Table struct {
	name      string
	materials []model.CoverMaterial
	keys      []int
	rows      map[int]map[model.CoverMaterial]Cell
}

// NewTable builds a table from its rows. The rows map is copied.
func NewTable(name string, materials []model.CoverMaterial, rows map[int]map[model.CoverMaterial]Cell) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("referential %s: no rows", name)
	}
	if len(materials) == 0 {
		return nil, fmt.Errorf("referential %s: no material columns", name)
	}
	t := &Table{
		name:      name,
		materials: append([]model.CoverMaterial(nil), materials...),
		rows:      make(map[int]map[model.CoverMaterial]Cell, len(rows)),
	}
	for k, row := range rows {
		cp := make(map[model.CoverMaterial]Cell, len(row))
		for m, c := range row {
			cp[m] = c
		}
		t.rows[k] = cp
		t.keys = append(t.keys, k)
	}
	sort.Ints(t.keys)
	return t, nil
}

// Name returns the table name used in logs.
func (t *Table) Name() string { return t.name }

// Materials returns the material columns in file order.
func (t *Table) Materials() []model.CoverMaterial {
	return append([]model.CoverMaterial(nil), t.materials...)
}

// Keys returns the sorted dimension keys.
func (t *Table) Keys() []int {
	return append([]int(nil), t.keys...)
}

// Domain returns the smallest and largest dimension in the table.
func (t *Table) Domain() (min, max int) {
	return t.keys[0], t.keys[len(t.keys)-1]
}

// HasMaterial reports whether the table has a column for m.
func (t *Table) HasMaterial(m model.CoverMaterial) bool {
	for _, tm := range t.materials {
		if tm == m {
			return true
		}
	}
	return false
}

// Exact returns the stored cell for an integer dimension.
func (t *Table) Exact(key int, m model.CoverMaterial) (Cell, bool) {
	row, ok := t.rows[key]
	if !ok {
		return Cell{}, false
	}
	c, ok := row[m]
	return c, ok
}

// Lookup returns the value for a dimension. Integer dimensions present in the
// table return the stored cell unchanged. Anything else is linearly
// interpolated between the two surrounding keys; with consecutive integer
// keys this is vLow + (vHigh-vLow) × (d - floor(d)). The multiplicity prefix
// is taken from the lower key. Dimensions outside [min, max] fail with
// ErrOutOfRange.
func (t *Table) Lookup(dimension float64, m model.CoverMaterial) (Cell, error) {
	if !t.HasMaterial(m) {
		return Cell{}, fmt.Errorf("%s: %w %q", t.name, ErrUnknownMaterial, m)
	}
	if math.IsNaN(dimension) || math.IsInf(dimension, 0) {
		return Cell{}, fmt.Errorf("%s: dimension %v: %w", t.name, dimension, ErrOutOfRange)
	}

	floor := math.Floor(dimension)
	if floor == dimension {
		if c, ok := t.Exact(int(floor), m); ok {
			return c, nil
		}
	}

	lo, hi, ok := t.bracket(dimension)
	if !ok {
		min, max := t.Domain()
		return Cell{}, fmt.Errorf("%s: dimension %g not in [%d, %d]: %w", t.name, dimension, min, max, ErrOutOfRange)
	}
	low, okLow := t.Exact(lo, m)
	high, okHigh := t.Exact(hi, m)
	if !okLow || !okHigh {
		return Cell{}, fmt.Errorf("%s: no %q value around %g: %w", t.name, m, dimension, ErrOutOfRange)
	}
	if lo == hi {
		return low, nil
	}

	frac := (dimension - float64(lo)) / float64(hi-lo)
	return Cell{
		Count: low.Count,
		Value: low.Value + (high.Value-low.Value)*frac,
	}, nil
}

// bracket finds the keys lo <= d <= hi closest to d.
func (t *Table) bracket(d float64) (lo, hi int, ok bool) {
	min, max := t.Domain()
	if d < float64(min) || d > float64(max) {
		return 0, 0, false
	}
	i := sort.Search(len(t.keys), func(i int) bool { return float64(t.keys[i]) >= d })
	hi = t.keys[i]
	if float64(hi) == d || i == 0 {
		return hi, hi, true
	}
	return t.keys[i-1], hi, true
}
