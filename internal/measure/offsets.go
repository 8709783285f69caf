package measure

import (
	"fmt"

	"github.com/piwi3910/literie/internal/model"
)

// Offset is the correction applied to the raw core dimensions before cutting.
type Offset struct {
	Width  float64 `json:"width"`  // cm, usually in [-2, 0]
	Length float64 `json:"length"` // cm, usually in [-2, 0]
}

// OffsetKey selects a cutting rule.
type OffsetKey struct {
	Family   model.CoreFamily
	Firmness model.Firmness
}

// OffsetRules maps a core family and firmness to the cut offsets.
type OffsetRules map[OffsetKey]Offset

// DefaultOffsetRules returns the workshop cutting rules. Softer cores are cut
// tighter so that the cover stays taut once the core relaxes.
func DefaultOffsetRules() OffsetRules {
	return OffsetRules{
		{model.FamilyLatex, model.FirmnessFerme}:   {Width: -1, Length: -1},
		{model.FamilyLatex, model.FirmnessMedium}:  {Width: -1.5, Length: -1.5},
		{model.FamilyLatex, model.FirmnessConfort}: {Width: -2, Length: -2},
		{model.FamilyFoam, model.FirmnessFerme}:    {Width: 0, Length: 0},
		{model.FamilyFoam, model.FirmnessMedium}:   {Width: -0.5, Length: -1},
		{model.FamilyFoam, model.FirmnessConfort}:  {Width: -1, Length: -1.5},
	}
}

// For returns the offsets for a core type and firmness.
func (r OffsetRules) For(core model.CoreType, firmness model.Firmness) (Offset, error) {
	family := core.Family()
	if family == model.FamilyUnknown {
		return Offset{}, fmt.Errorf("%w %q", ErrUnknownCore, core)
	}
	o, ok := r[OffsetKey{Family: family, Firmness: firmness}]
	if !ok {
		return Offset{}, fmt.Errorf("%w %q for %s core", ErrUnknownFirmness, firmness, family)
	}
	return o, nil
}

// Missing lists the family/firmness pairs that have no rule.
func (r OffsetRules) Missing() []OffsetKey {
	var missing []OffsetKey
	for _, f := range []model.CoreFamily{model.FamilyLatex, model.FamilyFoam} {
		for _, firm := range model.Firmnesses() {
			k := OffsetKey{Family: f, Firmness: firm}
			if _, ok := r[k]; !ok {
				missing = append(missing, k)
			}
		}
	}
	return missing
}
