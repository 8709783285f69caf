package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"Matelas":   KindMattress,
		"mattress":  KindMattress,
		" SOMMIER ": KindBedFrame,
		"bed-frame": KindBedFrame,
		"canapé":    KindUnknown,
	}
	for in, want := range cases {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestKindTypeLabel(t *testing.T) {
	if KindMattress.TypeLabel() != "Matelas" {
		t.Errorf("expected Matelas, got %s", KindMattress.TypeLabel())
	}
	if KindBedFrame.TypeLabel() != "Sommier" {
		t.Errorf("expected Sommier, got %s", KindBedFrame.TypeLabel())
	}
}

func TestKindJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(struct {
		K Kind `json:"k"`
	}{KindBedFrame})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"k":"bed-frame"}` {
		t.Errorf("unexpected encoding %s", data)
	}

	var back struct {
		K Kind `json:"k"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.K != KindBedFrame {
		t.Errorf("expected bed-frame, got %v", back.K)
	}

	if err := json.Unmarshal([]byte(`{"k":"table"}`), &back); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseCoreTypeAccentsAndSpacing(t *testing.T) {
	if got := ParseCoreType("latex  naturel"); got != CoreLatexNaturel {
		t.Errorf("expected LATEX NATUREL, got %q", got)
	}
	if got := ParseCoreType("Mousse viscoélastique"); got != CoreMousseViscoelastique {
		t.Errorf("expected MOUSSE VISCOELASTIQUE, got %q", got)
	}
	if got := ParseCoreType("ressorts ensachés"); got != CoreUnknown {
		t.Errorf("expected unknown core, got %q", got)
	}
}

func TestEveryCoreTypeHasAFamily(t *testing.T) {
	for _, c := range CoreTypes() {
		if c.Family() == FamilyUnknown {
			t.Errorf("core %q has no family", c)
		}
	}
	if CoreUnknown.Known() {
		t.Error("unknown core must not be known")
	}
}

func TestEveryCoverMaterialHasAFamily(t *testing.T) {
	for _, m := range CoverMaterials() {
		if m.Family() == CoverFamilyUnknown {
			t.Errorf("material %q has no family", m)
		}
	}
}

func TestParseFirmness(t *testing.T) {
	cases := map[string]Firmness{
		"":         FirmnessNone,
		"ferme":    FirmnessFerme,
		"Medium":   FirmnessMedium,
		"confort":  FirmnessConfort,
		"moelleux": FirmnessUnknown,
	}
	for in, want := range cases {
		if got := ParseFirmness(in); got != want {
			t.Errorf("ParseFirmness(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseCoverMaterial(t *testing.T) {
	if ParseCoverMaterial("tencel luxe 3d") != CoverTencelLuxe3D {
		t.Error("expected TENCEL LUXE 3D")
	}
	if ParseCoverMaterial("poly") != CoverPolyester {
		t.Error("expected POLYESTER")
	}
	if ParseCoverMaterial("") != CoverNone {
		t.Error("expected no cover")
	}
	if ParseCoverMaterial("coton") != CoverUnknown {
		t.Error("expected unknown cover")
	}
}

func validRecord() OrderLineRecord {
	return OrderLineRecord{
		Kind:            KindMattress,
		CoreType:        CoreLatexNaturel,
		Quantity:        1,
		UnitIndex:       1,
		Width:           140,
		Length:          190,
		Height:          20,
		WeekCode:        "S05",
		OrderOrClientID: "1234",
	}
}

func TestOrderLineRecordValidate(t *testing.T) {
	r := validRecord()
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	bad := []func(*OrderLineRecord){
		func(r *OrderLineRecord) { r.Kind = KindUnknown },
		func(r *OrderLineRecord) { r.Quantity = 0 },
		func(r *OrderLineRecord) { r.Width = 0 },
		func(r *OrderLineRecord) { r.Length = -1 },
		func(r *OrderLineRecord) { r.Width = math.Inf(1) },
		func(r *OrderLineRecord) { r.Length = math.NaN() },
		func(r *OrderLineRecord) { r.Height = math.Inf(-1) },
		func(r *OrderLineRecord) { r.WeekCode = " " },
		func(r *OrderLineRecord) { r.OrderOrClientID = "" },
	}
	for i, mutate := range bad {
		r := validRecord()
		mutate(&r)
		if err := r.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestOrderLineRecordPaired(t *testing.T) {
	r := validRecord()
	if r.Paired() {
		t.Error("single unit must not be paired")
	}
	r.Quantity = 2
	if !r.Paired() {
		t.Error("two units must be paired")
	}
}

func TestTypeNameFollowsKind(t *testing.T) {
	r := validRecord()
	if r.TypeName() != "LATEX NATUREL" {
		t.Errorf("expected core type, got %q", r.TypeName())
	}
	r.Kind = KindBedFrame
	r.FrameType = FrameLattes
	if r.TypeName() != "SOMMIER A LATTES" {
		t.Errorf("expected frame type, got %q", r.TypeName())
	}
}

func TestOptional(t *testing.T) {
	var o Optional[string]
	if o.IsSet() {
		t.Error("zero Optional must be unset")
	}
	if o.OrElse("-") != "-" {
		t.Error("OrElse should return fallback when unset")
	}

	o = Some("")
	v, ok := o.Get()
	if !ok || v != "" {
		t.Error("Some(\"\") must be set and empty, distinct from unset")
	}
}

func TestOptionalJSON(t *testing.T) {
	d := DerivedFields{CoverWidth: Some("2 x 75"), CutWidth: Some(139.0)}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}

	var back DerivedFields
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if v, _ := back.CoverWidth.Get(); v != "2 x 75" {
		t.Errorf("expected cover width to survive, got %q", v)
	}
	if back.CoreCut.IsSet() {
		t.Error("unset field must stay unset")
	}
	if v, _ := back.CutWidth.Get(); v != 139.0 {
		t.Errorf("expected cut width 139, got %v", v)
	}
}
