package model

import (
	"fmt"
	"math"
	"strings"
)

// Kind distinguishes the two product families, each with its own template.
type Kind int

const (
	KindUnknown  Kind = iota
	KindMattress      // Matelas
	KindBedFrame      // Sommier
)

func (k Kind) String() string {
	switch k {
	case KindMattress:
		return "mattress"
	case KindBedFrame:
		return "bed-frame"
	default:
		return "unknown"
	}
}

// TypeLabel is the prefix used in output file names.
func (k Kind) TypeLabel() string {
	switch k {
	case KindMattress:
		return "Matelas"
	case KindBedFrame:
		return "Sommier"
	default:
		return "Inconnu"
	}
}

// ParseKind accepts both the French labels and the English identifiers.
func ParseKind(s string) Kind {
	switch normalizeLabel(s) {
	case "MATELAS", "MATTRESS":
		return KindMattress
	case "SOMMIER", "BED-FRAME", "BED_FRAME", "BEDFRAME", "BED FRAME":
		return KindBedFrame
	default:
		return KindUnknown
	}
}

// Kinds lists the known kinds in template order.
func Kinds() []Kind {
	return []Kind{KindMattress, KindBedFrame}
}

// OrderLineRecord is one physical unit to place into a case slot.
// Records are produced upstream and never mutated once handed to the engine.
type OrderLineRecord struct {
	Kind          Kind          `json:"kind"`
	CoreType      CoreType      `json:"core_type,omitempty"`
	FrameType     FrameType     `json:"frame_type,omitempty"`
	Quantity      int           `json:"quantity"`   // quantity of the source line
	UnitIndex     int           `json:"unit_index"` // 1..Quantity once expanded
	Width         float64       `json:"width"`      // cm
	Length        float64       `json:"length"`     // cm
	Height        float64       `json:"height"`     // cm
	Firmness      Firmness      `json:"firmness,omitempty"`
	CoverMaterial CoverMaterial `json:"cover_material,omitempty"`

	WeekCode        string `json:"week_code"`
	OrderOrClientID string `json:"order_id"`
	MondayDate      string `json:"monday_date,omitempty"`
	FridayDate      string `json:"friday_date,omitempty"`

	ClientName string `json:"client_name,omitempty"`
	Address    string `json:"address,omitempty"`
	Handles    bool   `json:"handles,omitempty"`
	Delivery   string `json:"delivery,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Paired reports whether the source line describes a twin set: two units
// laid side by side that form one bedding surface.
func (r OrderLineRecord) Paired() bool {
	return r.Quantity == 2
}

// TypeName returns the core type for mattresses and the frame type for bed frames.
func (r OrderLineRecord) TypeName() string {
	if r.Kind == KindBedFrame {
		return r.FrameType.String()
	}
	return r.CoreType.String()
}

// Validate checks the invariants required before allocation.
func (r OrderLineRecord) Validate() error {
	if r.Kind == KindUnknown {
		return fmt.Errorf("unknown kind")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("quantity must be >= 1, got %d", r.Quantity)
	}
	if !finite(r.Width) || !finite(r.Length) || !finite(r.Height) {
		return fmt.Errorf("dimensions must be finite numbers, got %gx%gx%g", r.Width, r.Length, r.Height)
	}
	if r.Width <= 0 || r.Length <= 0 {
		return fmt.Errorf("width and length must be positive, got %gx%g", r.Width, r.Length)
	}
	if r.Height < 0 {
		return fmt.Errorf("height must not be negative, got %g", r.Height)
	}
	if strings.TrimSpace(r.WeekCode) == "" {
		return fmt.Errorf("missing week code")
	}
	if strings.TrimSpace(r.OrderOrClientID) == "" {
		return fmt.Errorf("missing order or client id")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DerivedFields holds the values computed by the measurement calculator.
// Unset fields were not computed; they are written as blank cells.
type DerivedFields struct {
	CoverWidth  Optional[string]  `json:"cover_width"`
	CoverLength Optional[string]  `json:"cover_length"`
	CoreCut     Optional[string]  `json:"core_cut"`
	CutWidth    Optional[float64] `json:"cut_width"`
	CutLength   Optional[float64] `json:"cut_length"`
	Literie     Optional[string]  `json:"literie"`
}

// MarshalText encodes the kind by name so manifests stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts any label understood by ParseKind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed := ParseKind(string(text))
	if parsed == KindUnknown {
		return fmt.Errorf("unknown kind %q", string(text))
	}
	*k = parsed
	return nil
}
