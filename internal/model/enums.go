package model

import "strings"

// CoreType is the internal material of a mattress.
type CoreType string

const (
	CoreUnknown              CoreType = ""
	CoreLatexNaturel         CoreType = "LATEX NATUREL"
	CoreLatexMixte7Zones     CoreType = "LATEX MIXTE 7 ZONES"
	CoreLatexRenforce        CoreType = "LATEX RENFORCE"
	CoreMousseViscoelastique CoreType = "MOUSSE VISCOELASTIQUE"
	CoreMousseRainuree       CoreType = "MOUSSE RAINUREE 7 ZONES"
	CoreSelectRelax          CoreType = "SELECT 43"
)

// CoreFamily groups core types that share cutting offsets.
type CoreFamily int

const (
	FamilyUnknown CoreFamily = iota
	FamilyLatex
	FamilyFoam
)

func (f CoreFamily) String() string {
	switch f {
	case FamilyLatex:
		return "latex"
	case FamilyFoam:
		return "foam"
	default:
		return "unknown"
	}
}

var coreTypes = []CoreType{
	CoreLatexNaturel,
	CoreLatexMixte7Zones,
	CoreLatexRenforce,
	CoreMousseViscoelastique,
	CoreMousseRainuree,
	CoreSelectRelax,
}

// CoreTypes lists the known core types.
func CoreTypes() []CoreType {
	out := make([]CoreType, len(coreTypes))
	copy(out, coreTypes)
	return out
}

// ParseCoreType maps a free label onto a known core type, or CoreUnknown.
func ParseCoreType(s string) CoreType {
	n := normalizeLabel(s)
	for _, c := range coreTypes {
		if n == string(c) {
			return c
		}
	}
	return CoreUnknown
}

func (c CoreType) String() string { return string(c) }

// Known reports whether c is one of the listed core types.
func (c CoreType) Known() bool {
	return c.Family() != FamilyUnknown
}

// Family returns the cutting family of the core.
func (c CoreType) Family() CoreFamily {
	switch c {
	case CoreLatexNaturel, CoreLatexMixte7Zones, CoreLatexRenforce:
		return FamilyLatex
	case CoreMousseViscoelastique, CoreMousseRainuree, CoreSelectRelax:
		return FamilyFoam
	default:
		return FamilyUnknown
	}
}

// Firmness drives the core-cut offsets.
type Firmness string

const (
	FirmnessNone    Firmness = ""
	FirmnessFerme   Firmness = "FERME"
	FirmnessMedium  Firmness = "MEDIUM"
	FirmnessConfort Firmness = "CONFORT"
	FirmnessUnknown Firmness = "?"
)

// Firmnesses lists the known firmness levels.
func Firmnesses() []Firmness {
	return []Firmness{FirmnessFerme, FirmnessMedium, FirmnessConfort}
}

// ParseFirmness maps a label onto a firmness level. Blank input gives
// FirmnessNone, unrecognized input gives FirmnessUnknown.
func ParseFirmness(s string) Firmness {
	switch normalizeLabel(s) {
	case "":
		return FirmnessNone
	case "FERME", "FIRM":
		return FirmnessFerme
	case "MEDIUM", "MEDIUM FERME":
		return FirmnessMedium
	case "CONFORT", "COMFORT", "SOUPLE":
		return FirmnessConfort
	default:
		return FirmnessUnknown
	}
}

func (f Firmness) String() string { return string(f) }

// CoverMaterial is the fabric of the removable cover.
type CoverMaterial string

const (
	CoverNone         CoverMaterial = ""
	CoverTencel       CoverMaterial = "TENCEL"
	CoverPolyester    CoverMaterial = "POLYESTER"
	CoverTencelLuxe3D CoverMaterial = "TENCEL LUXE 3D"
	CoverUnknown      CoverMaterial = "?"
)

// CoverFamily decides how the cover width multiplicity is displayed.
type CoverFamily int

const (
	CoverFamilyUnknown  CoverFamily = iota
	CoverFamilyStandard             // table prefix kept as is
	CoverFamilyPoly                 // single panel, no prefix
	CoverFamilyPaired               // panels cut in pairs, prefix doubled
)

// CoverMaterials lists the known cover materials in referential column order.
func CoverMaterials() []CoverMaterial {
	return []CoverMaterial{CoverTencel, CoverPolyester, CoverTencelLuxe3D}
}

// ParseCoverMaterial maps a label onto a cover material.
func ParseCoverMaterial(s string) CoverMaterial {
	switch normalizeLabel(s) {
	case "":
		return CoverNone
	case "TENCEL", "TENCEL SIMPLE":
		return CoverTencel
	case "POLYESTER", "POLY", "POLYESTER SIMPLE":
		return CoverPolyester
	case "TENCEL LUXE 3D", "TENCEL LUXE", "LUXE 3D":
		return CoverTencelLuxe3D
	default:
		return CoverUnknown
	}
}

func (m CoverMaterial) String() string { return string(m) }

// Family returns the display family of the material.
func (m CoverMaterial) Family() CoverFamily {
	switch m {
	case CoverTencel:
		return CoverFamilyStandard
	case CoverPolyester:
		return CoverFamilyPoly
	case CoverTencelLuxe3D:
		return CoverFamilyPaired
	default:
		return CoverFamilyUnknown
	}
}

// FrameType is the construction of a bed frame.
type FrameType string

const (
	FrameUnknown    FrameType = ""
	FrameLattes     FrameType = "SOMMIER A LATTES"
	FrameTapissier  FrameType = "SOMMIER TAPISSIER"
	FrameRelaxation FrameType = "SOMMIER RELAXATION"
	FrameBoisMassif FrameType = "SOMMIER BOIS MASSIF"
)

// ParseFrameType maps a label onto a frame type.
func ParseFrameType(s string) FrameType {
	n := normalizeLabel(s)
	for _, f := range []FrameType{FrameLattes, FrameTapissier, FrameRelaxation, FrameBoisMassif} {
		if n == string(f) {
			return f
		}
	}
	return FrameUnknown
}

func (f FrameType) String() string { return string(f) }

var accentReplacer = strings.NewReplacer(
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"À", "A", "Â", "A", "Î", "I", "Ï", "I",
	"Ô", "O", "Ù", "U", "Û", "U", "Ç", "C",
)

// normalizeLabel upper-cases, strips accents and collapses whitespace.
func normalizeLabel(s string) string {
	s = accentReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), " ")
}
