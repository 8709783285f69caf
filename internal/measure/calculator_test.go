package measure

import (
	"math"
	"testing"

	"github.com/piwi3910/literie/internal/model"
	"github.com/piwi3910/literie/internal/referentiel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testCatalog(t *testing.T) referentiel.Catalog {
	t.Helper()
	materials := []model.CoverMaterial{model.CoverTencel, model.CoverPolyester, model.CoverTencelLuxe3D}
	width, err := referentiel.NewTable("largeur", materials, map[int]map[model.CoverMaterial]referentiel.Cell{
		140: {
			model.CoverTencel:       {Count: 4, Value: 70},
			model.CoverPolyester:    {Count: 1, Value: 154},
			model.CoverTencelLuxe3D: {Count: 1, Value: 77.5},
		},
		150: {
			model.CoverTencel:       {Count: 4, Value: 75},
			model.CoverPolyester:    {Count: 1, Value: 164},
			model.CoverTencelLuxe3D: {Count: 1, Value: 82.5},
		},
	})
	require.NoError(t, err)
	length, err := referentiel.NewTable("longueur", materials, map[int]map[model.CoverMaterial]referentiel.Cell{
		190: {model.CoverTencel: {Value: 202}, model.CoverPolyester: {Value: 204}, model.CoverTencelLuxe3D: {Value: 203.5}},
		200: {model.CoverTencel: {Value: 212}, model.CoverPolyester: {Value: 214}, model.CoverTencelLuxe3D: {Value: 213.5}},
	})
	require.NoError(t, err)
	return referentiel.Catalog{Width: width, Length: length}
}

func newTestCalculator(t *testing.T) *Calculator {
	return New(testCatalog(t), DefaultOffsetRules(), DefaultOptions(), nil)
}

func mattress(w, l float64) model.OrderLineRecord {
	return model.OrderLineRecord{
		Kind:            model.KindMattress,
		CoreType:        model.CoreLatexNaturel,
		Firmness:        model.FirmnessFerme,
		CoverMaterial:   model.CoverTencel,
		Quantity:        1,
		UnitIndex:       1,
		Width:           w,
		Length:          l,
		Height:          20,
		WeekCode:        "S05",
		OrderOrClientID: "1234",
	}
}

// ─── Cover Tests ───────────────────────────────────────────

func TestCoverWidthInterpolatesHalfway(t *testing.T) {
	c := newTestCalculator(t)

	got, err := c.CoverWidth(mattress(145, 190))
	require.NoError(t, err)
	assert.Equal(t, "4 x 72,5", got, "145 is halfway between 4 x 70 and 4 x 75")
}

func TestCoverWidthPolyHasNoPrefix(t *testing.T) {
	c := newTestCalculator(t)
	rec := mattress(140, 190)
	rec.CoverMaterial = model.CoverPolyester

	got, err := c.CoverWidth(rec)
	require.NoError(t, err)
	assert.Equal(t, "154", got)
}

func TestCoverWidthPairedDoublesPrefix(t *testing.T) {
	c := newTestCalculator(t)
	rec := mattress(140, 190)
	rec.CoverMaterial = model.CoverTencelLuxe3D

	got, err := c.CoverWidth(rec)
	require.NoError(t, err)
	assert.Equal(t, "2 x 77,5", got)
}

func TestCoverLength(t *testing.T) {
	c := newTestCalculator(t)

	got, err := c.CoverLength(mattress(140, 195))
	require.NoError(t, err)
	assert.Equal(t, "207", got)
}

func TestCoverOutOfRangeIsReported(t *testing.T) {
	c := newTestCalculator(t)

	_, err := c.CoverWidth(mattress(90, 190))
	assert.ErrorIs(t, err, referentiel.ErrOutOfRange)
	_, err = c.CoverLength(mattress(140, 220))
	assert.ErrorIs(t, err, referentiel.ErrOutOfRange)
}

func TestCoverWithoutMaterial(t *testing.T) {
	c := newTestCalculator(t)
	rec := mattress(140, 190)
	rec.CoverMaterial = model.CoverNone

	_, err := c.CoverWidth(rec)
	assert.ErrorIs(t, err, ErrNoCover)

	rec.CoverMaterial = model.CoverUnknown
	_, err = c.CoverWidth(rec)
	assert.ErrorIs(t, err, referentiel.ErrUnknownMaterial)
}

// ─── Core Cut Tests ────────────────────────────────────────

func TestCoreCutLatexFermeIsDeterministic(t *testing.T) {
	c := newTestCalculator(t)
	rec := mattress(140, 190)

	for i := 0; i < 5; i++ {
		w, l, err := c.CoreCut(rec)
		require.NoError(t, err)
		assert.Equal(t, 139.0, w)
		assert.Equal(t, 189.0, l)
	}
}

func TestCoreCutOffsetsDifferPerAxis(t *testing.T) {
	c := newTestCalculator(t)
	rec := mattress(140, 190)
	rec.CoreType = model.CoreMousseViscoelastique
	rec.Firmness = model.FirmnessMedium

	w, l, err := c.CoreCut(rec)
	require.NoError(t, err)
	assert.Equal(t, 139.5, w)
	assert.Equal(t, 189.0, l)
}

func TestCoreCutUnknownKeys(t *testing.T) {
	c := newTestCalculator(t)

	rec := mattress(140, 190)
	rec.CoreType = model.CoreUnknown
	_, _, err := c.CoreCut(rec)
	assert.ErrorIs(t, err, ErrUnknownCore)

	rec = mattress(140, 190)
	rec.Firmness = model.FirmnessNone
	_, _, err = c.CoreCut(rec)
	assert.ErrorIs(t, err, ErrUnknownFirmness)
}

func TestDefaultOffsetRulesAreExhaustive(t *testing.T) {
	rules := DefaultOffsetRules()
	assert.Empty(t, rules.Missing())

	for _, o := range rules {
		assert.GreaterOrEqual(t, o.Width, -2.0)
		assert.LessOrEqual(t, o.Width, 0.0)
		assert.GreaterOrEqual(t, o.Length, -2.0)
		assert.LessOrEqual(t, o.Length, 0.0)
	}
}

// ─── Literie Tests ─────────────────────────────────────────

func TestRoundLiterie(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{140, 140},
		{137, 140},
		{138.5, 140},
		{136.9, 136.9},
		{131, 131},
		{199, 200},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoundLiterie(tc.in, 3), "in=%g", tc.in)
	}
}

func TestRoundLiterieNeverMovesMoreThanDelta(t *testing.T) {
	for v := 50.0; v <= 220.0; v += 0.1 {
		got := RoundLiterie(v, 3)
		if got != v {
			assert.LessOrEqual(t, got-v, 3.0+1e-9, "v=%g", v)
			assert.GreaterOrEqual(t, got, v)
		}
	}
}

func TestLiteriePairedDoublesWidth(t *testing.T) {
	c := newTestCalculator(t)
	rec := mattress(79, 199)
	rec.Quantity = 2

	assert.Equal(t, "160 x 200", c.Literie(rec))
}

func TestLiterieKeepsOddSizes(t *testing.T) {
	c := newTestCalculator(t)
	assert.Equal(t, "135,5 x 190", c.Literie(mattress(135.5, 190)))
}

// ─── Derive Tests ──────────────────────────────────────────

func TestDeriveMattress(t *testing.T) {
	c := newTestCalculator(t)

	d := c.Derive(mattress(140, 190))

	v, ok := d.CoverWidth.Get()
	assert.True(t, ok)
	assert.Equal(t, "4 x 70", v)
	v, _ = d.CoverLength.Get()
	assert.Equal(t, "202", v)
	v, _ = d.CoreCut.Get()
	assert.Equal(t, "139 x 189", v)
	v, _ = d.Literie.Get()
	assert.Equal(t, "140 x 190", v)
}

func TestDeriveLeavesFailedFieldsUnsetAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := New(testCatalog(t), DefaultOffsetRules(), DefaultOptions(), zap.New(core))
	rec := mattress(170, 190)
	rec.CoreType = model.CoreUnknown

	d := c.Derive(rec)

	assert.False(t, d.CoverWidth.IsSet(), "170 is outside the width table")
	assert.True(t, d.CoverLength.IsSet())
	assert.False(t, d.CoreCut.IsSet())
	assert.False(t, d.CutWidth.IsSet())
	assert.True(t, d.Literie.IsSet())
	assert.Equal(t, 2, logs.FilterField(zap.String("field", "cover_width")).Len()+logs.FilterField(zap.String("field", "core_cut")).Len())
}

func TestDeriveBedFrameOnlyLiterie(t *testing.T) {
	c := newTestCalculator(t)
	rec := mattress(160, 200)
	rec.Kind = model.KindBedFrame

	d := c.Derive(rec)
	assert.True(t, d.Literie.IsSet())
	assert.False(t, d.CoverWidth.IsSet())
	assert.False(t, d.CoreCut.IsSet())
}

func TestFormatCm(t *testing.T) {
	assert.Equal(t, "139", FormatCm(139, ","))
	assert.Equal(t, "139,5", FormatCm(139.5, ","))
	assert.Equal(t, "139.5", FormatCm(139.5, "."))
	assert.Equal(t, "72,33", FormatCm(72.3333, ","))
	assert.Equal(t, "", FormatCm(math.NaN(), ","))
	assert.Equal(t, "", FormatCm(math.Inf(1), ","))
}
