package engine

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/literie/internal/measure"
	"github.com/piwi3910/literie/internal/model"
	"github.com/piwi3910/literie/internal/referentiel"
	"github.com/piwi3910/literie/internal/sheet"
	"github.com/piwi3910/literie/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	opts  Options
	store *store.DirStore
	calc  *measure.Calculator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	paths := model.TemplatePaths{
		Mattress: filepath.Join(dir, "templates", "template_matelas.xlsx"),
		BedFrame: filepath.Join(dir, "templates", "template_sommier.xlsx"),
	}
	require.NoError(t, sheet.WriteTemplate(sheet.MattressLayout(), paths.Mattress))
	require.NoError(t, sheet.WriteTemplate(sheet.BedFrameLayout(), paths.BedFrame))

	st, err := store.NewDirStore(filepath.Join(dir, "output"))
	require.NoError(t, err)
	cat, err := referentiel.Embedded()
	require.NoError(t, err)

	return fixture{
		opts: Options{
			Templates:            paths,
			PlaceholderThreshold: 20,
			SlotsPerFile:         10,
			Writer:               sheet.DefaultWriter(),
		},
		store: st,
		calc:  measure.New(cat, measure.DefaultOffsetRules(), measure.DefaultOptions(), nil),
	}
}

func (f fixture) batch(logger *zap.Logger) *Batch {
	return NewBatch(f.opts, f.store, f.calc, logger)
}

func (f fixture) open(t *testing.T, name string, layout sheet.Layout) *sheet.Document {
	t.Helper()
	data, err := f.store.Load(name)
	require.NoError(t, err)
	doc, err := sheet.OpenDocument(data, layout)
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	return doc
}

func mattresses(n int, week, order, clientPrefix string) []model.OrderLineRecord {
	recs := make([]model.OrderLineRecord, n)
	for i := range recs {
		recs[i] = model.OrderLineRecord{
			Kind:            model.KindMattress,
			CoreType:        model.CoreLatexNaturel,
			Firmness:        model.FirmnessFerme,
			CoverMaterial:   model.CoverTencel,
			Quantity:        1,
			UnitIndex:       1,
			Width:           140,
			Length:          190,
			Height:          20,
			WeekCode:        week,
			OrderOrClientID: order,
			ClientName:      fmt.Sprintf("%s %d", clientPrefix, i+1),
		}
	}
	return recs
}

func occupied(t *testing.T, doc *sheet.Document) int {
	t.Helper()
	n, err := sheet.CountOccupied(doc, 20)
	require.NoError(t, err)
	return n
}

func caseNumbers(t *testing.T, doc *sheet.Document) []int {
	t.Helper()
	got, err := doc.CaseNumbers()
	require.NoError(t, err)
	return got
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// ─── Naming Tests ──────────────────────────────────────────

func TestFileName(t *testing.T) {
	key := SequenceKey{Kind: model.KindMattress, Week: "S05", OrderID: "1234"}
	assert.Equal(t, "Matelas_S05_1234_1.xlsx", key.FileName(1))
	assert.Equal(t, "Matelas_S05_1234_", key.Prefix())

	key = SequenceKey{Kind: model.KindBedFrame, Week: "S05", OrderID: "DUPONT / 12"}
	assert.Equal(t, "Sommier_S05_DUPONT---12_3.xlsx", key.FileName(3))
}

func TestKeyOfTrims(t *testing.T) {
	rec := mattresses(1, " S05 ", "1234 ", "C")[0]
	assert.Equal(t, SequenceKey{Kind: model.KindMattress, Week: "S05", OrderID: "1234"}, KeyOf(rec))
}

// ─── Batch Tests ───────────────────────────────────────────

func TestScenarioTwentyThreeRecordsMakeThreeFiles(t *testing.T) {
	f := newFixture(t)

	report, err := f.batch(nil).Run(mattresses(23, "S05", "1234", "CLIENT"))
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, report.Files, 3)

	layout := sheet.MattressLayout()
	want := []struct {
		used  int
		cases []int
	}{
		{10, seq(1, 10)},
		{10, seq(11, 20)},
		{3, seq(21, 30)},
	}
	for i, w := range want {
		name := fmt.Sprintf("Matelas_S05_1234_%d.xlsx", i+1)
		doc := f.open(t, name, layout)
		assert.Equal(t, w.used, occupied(t, doc), name)
		assert.Equal(t, w.cases, caseNumbers(t, doc), name)

		fr := report.Files[i]
		assert.Equal(t, name, fr.Name)
		assert.Equal(t, w.used, fr.SlotsUsed)
		assert.Equal(t, w.cases[0], fr.FirstCase)
		assert.Equal(t, w.cases[9], fr.LastCase)
	}

	ok, err := f.store.Exists("Matelas_S05_1234_4.xlsx")
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, report.Cases, 23)
	for i, c := range report.Cases {
		assert.Equal(t, i+1, c.CaseNumber)
	}
	assert.NotEmpty(t, report.RunID)
}

func TestScenarioResumeFillsPartialFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.batch(nil).Run(mattresses(23, "S05", "1234", "FIRST"))
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	report, err := f.batch(zap.New(core)).Run(mattresses(2, "S05", "1234", "SECOND"))
	require.NoError(t, err)
	require.True(t, report.OK())

	require.Len(t, report.Files, 1)
	fr := report.Files[0]
	assert.Equal(t, "Matelas_S05_1234_3.xlsx", fr.Name)
	assert.True(t, fr.Resumed)
	assert.Equal(t, 2, fr.Written)
	assert.Equal(t, 5, fr.SlotsUsed)
	assert.Equal(t, []bool{true, true, true, true, true, false, false, false, false, false}, fr.Occupied)

	ok, err := f.store.Exists("Matelas_S05_1234_4.xlsx")
	require.NoError(t, err)
	assert.False(t, ok, "resuming must not create a fourth file")

	doc := f.open(t, "Matelas_S05_1234_3.xlsx", sheet.MattressLayout())
	assert.Equal(t, seq(21, 30), caseNumbers(t, doc), "file 3 keeps its numbering")

	slots := doc.Slots()
	clients := make([]string, 5)
	for i := range clients {
		clients[i], err = doc.FieldValue(slots[i], sheet.FieldClient)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"FIRST 21", "FIRST 22", "FIRST 23", "SECOND 1", "SECOND 2"}, clients)

	require.Len(t, report.Cases, 2)
	assert.Equal(t, 24, report.Cases[0].CaseNumber)
	assert.Equal(t, 4, report.Cases[0].Slot)
	assert.Equal(t, 25, report.Cases[1].CaseNumber)

	assert.Equal(t, 1, logs.FilterMessage("sequence resumed").Len())
}

func TestResumeAfterFullFileStartsNextOne(t *testing.T) {
	f := newFixture(t)
	_, err := f.batch(nil).Run(mattresses(20, "S05", "1234", "FIRST"))
	require.NoError(t, err)

	report, err := f.batch(nil).Run(mattresses(1, "S05", "1234", "SECOND"))
	require.NoError(t, err)

	require.Len(t, report.Files, 1, "the full resumed file is not rewritten")
	assert.Equal(t, "Matelas_S05_1234_3.xlsx", report.Files[0].Name)
	assert.False(t, report.Files[0].Resumed)
	assert.Equal(t, 21, report.Cases[0].CaseNumber)
}

func TestSequencesAreIndependent(t *testing.T) {
	f := newFixture(t)
	a := mattresses(3, "S05", "A", "A")
	b := mattresses(3, "S05", "B", "B")
	frame := mattresses(2, "S05", "A", "F")
	for i := range frame {
		frame[i].Kind = model.KindBedFrame
		frame[i].FrameType = model.FrameLattes
	}
	records := []model.OrderLineRecord{a[0], b[0], a[1], frame[0], b[1], a[2], b[2], frame[1]}

	report, err := f.batch(nil).Run(records)
	require.NoError(t, err)
	require.True(t, report.OK())

	names := make([]string, len(report.Files))
	for i, fr := range report.Files {
		names[i] = fr.Name
	}
	assert.Equal(t, []string{"Matelas_S05_A_1.xlsx", "Matelas_S05_B_1.xlsx", "Sommier_S05_A_1.xlsx"}, names)

	doc := f.open(t, "Matelas_S05_B_1.xlsx", sheet.MattressLayout())
	assert.Equal(t, 3, occupied(t, doc))
	frames := f.open(t, "Sommier_S05_A_1.xlsx", sheet.BedFrameLayout())
	assert.Equal(t, 2, occupied(t, frames))
}

func TestCorruptOutputAbortsOnlyItsSequence(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save("Matelas_S05_BAD_1.xlsx", []byte("not a workbook")))

	records := append(mattresses(2, "S05", "BAD", "X"), mattresses(2, "S05", "GOOD", "Y")...)
	report, err := f.batch(nil).Run(records)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	failure := report.Failed[0]
	assert.ErrorIs(t, failure, ErrCorruptOutput)
	assert.Equal(t, "BAD", failure.Key.OrderID)
	assert.Equal(t, 2, failure.Skipped)
	assert.Contains(t, failure.Error(), "Matelas_S05_BAD_1.xlsx")

	require.Len(t, report.Files, 1)
	assert.Equal(t, "Matelas_S05_GOOD_1.xlsx", report.Files[0].Name)

	data, err := f.store.Load("Matelas_S05_BAD_1.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("not a workbook"), data, "a corrupt file is never overwritten")
}

func TestMissingTemplateIsFatal(t *testing.T) {
	f := newFixture(t)
	f.opts.Templates.Mattress = filepath.Join(t.TempDir(), "missing.xlsx")

	report, err := f.batch(nil).Run(mattresses(1, "S05", "1234", "C"))
	assert.Nil(t, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplate)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var te *TemplateError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, model.KindMattress, te.Kind)
	assert.Equal(t, f.opts.Templates.Mattress, te.Path)

	entries, err := os.ReadDir(f.store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written when the batch cannot start")
}

func TestUnusedTemplateIsNotRequired(t *testing.T) {
	f := newFixture(t)
	f.opts.Templates.BedFrame = filepath.Join(t.TempDir(), "missing.xlsx")

	report, err := f.batch(nil).Run(mattresses(1, "S05", "1234", "C"))
	require.NoError(t, err)
	assert.Len(t, report.Files, 1)
}

func TestSlotsPerFileMismatchIsTemplateError(t *testing.T) {
	f := newFixture(t)
	f.opts.SlotsPerFile = 12

	_, err := f.batch(nil).Run(mattresses(1, "S05", "1234", "C"))
	assert.ErrorIs(t, err, ErrTemplate)
}

func TestUnreadableTemplateIsFatal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.opts.Templates.Mattress, []byte("garbage"), 0644))

	_, err := f.batch(nil).Run(mattresses(1, "S05", "1234", "C"))
	assert.ErrorIs(t, err, ErrTemplate)
}

func TestInvalidRecordsAreRejected(t *testing.T) {
	f := newFixture(t)
	records := mattresses(3, "S05", "1234", "C")
	records[1].Width = 0

	report, err := f.batch(nil).Run(records)
	require.NoError(t, err)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.False(t, report.OK())
	assert.Len(t, report.Cases, 2)
}

type failingStore struct {
	*store.DirStore
	failPrefix string
}

func (s failingStore) Save(name string, data []byte) error {
	if strings.HasPrefix(name, s.failPrefix) {
		return errors.New("disk full")
	}
	return s.DirStore.Save(name, data)
}

func TestSaveFailureIsSequenceScoped(t *testing.T) {
	f := newFixture(t)
	st := failingStore{DirStore: f.store, failPrefix: "Matelas_S05_X_"}
	b := NewBatch(f.opts, st, f.calc, nil)

	records := append(mattresses(2, "S05", "X", "X"), mattresses(1, "S05", "Y", "Y")...)
	report, err := b.Run(records)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Matelas_S05_X_1.xlsx", report.Failed[0].File)
	assert.EqualError(t, errors.Unwrap(report.Failed[0]), "disk full")
	assert.Equal(t, 2, report.Failed[0].Skipped, "both units of X were never saved")
	require.Len(t, report.Files, 1)
	assert.Equal(t, "Matelas_S05_Y_1.xlsx", report.Files[0].Name)
	assert.Len(t, report.Cases, 1)
}

func TestSaveFailureAtRolloverCountsUnsavedUnits(t *testing.T) {
	f := newFixture(t)
	st := failingStore{DirStore: f.store, failPrefix: "Matelas_S05_X_1"}
	b := NewBatch(f.opts, st, f.calc, nil)

	report, err := b.Run(mattresses(12, "S05", "X", "X"))
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, 12, report.Failed[0].Skipped, "10 unsaved, the record that hit the rollover, and the one after")
	assert.Empty(t, report.Files)
	assert.Empty(t, report.Cases)

	ok, err := f.store.Exists("Matelas_S05_X_2.xlsx")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonFiniteDimensionsAreRejected(t *testing.T) {
	f := newFixture(t)
	recs := mattresses(4, "S05", "1234", "C")
	recs[1].Width = math.Inf(1)
	recs[2].Length = math.NaN()

	report, err := f.batch(nil).Run(recs)
	require.NoError(t, err)

	require.Len(t, report.Rejected, 2)
	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.Equal(t, 2, report.Rejected[1].Index)
	assert.Empty(t, report.Failed)
	require.Len(t, report.Cases, 2)
	assert.Equal(t, []int{1, 2}, []int{report.Cases[0].CaseNumber, report.Cases[1].CaseNumber})
}

func TestTemplateWithoutEmptySlotIsTemplateError(t *testing.T) {
	f := newFixture(t)
	doc, err := sheet.NewTemplate(sheet.MattressLayout())
	require.NoError(t, err)
	rec := mattresses(1, "S05", "OLD", "OLD")[0]
	for _, slot := range doc.Slots() {
		require.NoError(t, f.opts.Writer.WriteSlot(doc, slot, rec, model.DerivedFields{}))
	}
	data, err := doc.Bytes()
	require.NoError(t, err)
	doc.Close()
	require.NoError(t, os.WriteFile(f.opts.Templates.Mattress, data, 0644))

	report, err := f.batch(nil).Run(mattresses(1, "S05", "1234", "C"))
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0], ErrTemplate)
	assert.Equal(t, 1, report.Failed[0].Skipped)
	assert.Empty(t, report.Cases)
}

func TestDerivedFieldsAreWritten(t *testing.T) {
	f := newFixture(t)
	rec := mattresses(1, "S05", "1234", "C")[0]
	rec.Width = 145

	report, err := f.batch(nil).Run([]model.OrderLineRecord{rec})
	require.NoError(t, err)

	doc := f.open(t, "Matelas_S05_1234_1.xlsx", sheet.MattressLayout())
	s := doc.Slots()[0]
	cut, err := doc.FieldValue(s, sheet.FieldCoreCut)
	require.NoError(t, err)
	assert.Equal(t, "144 x 189", cut)

	v, ok := report.Cases[0].Derived.CoreCut.Get()
	require.True(t, ok)
	assert.Equal(t, cut, v)
}

// ─── Sequence Tests ────────────────────────────────────────

func TestSequenceForcedRollover(t *testing.T) {
	f := newFixture(t)
	b := f.batch(nil)
	require.NoError(t, b.LoadTemplates(model.KindMattress))

	key := SequenceKey{Kind: model.KindMattress, Week: "S05", OrderID: "1234"}
	s := b.newSequence(key, b.templates[model.KindMattress])
	require.NoError(t, s.Init())
	defer s.Close()

	// Fill every slot behind the counter's back.
	rec := mattresses(1, "S05", "1234", "HIDDEN")[0]
	for _, slot := range s.doc.Slots() {
		require.NoError(t, f.opts.Writer.WriteSlot(s.doc, slot, rec, model.DerivedFields{}))
	}
	require.Equal(t, 0, s.SlotsUsed())

	c, err := s.Append(mattresses(1, "S05", "1234", "VISIBLE")[0])
	require.NoError(t, err)
	assert.Equal(t, 2, s.FileIndex())
	assert.Equal(t, 11, c.CaseNumber)
	assert.Equal(t, "Matelas_S05_1234_2.xlsx", c.File)

	require.NoError(t, s.Finalize())
	require.Len(t, s.Files(), 2)
	assert.Equal(t, 10, s.Files()[0].SlotsUsed)
	assert.Equal(t, 1, s.Files()[1].SlotsUsed)
}

func TestSequenceLifecycle(t *testing.T) {
	f := newFixture(t)
	b := f.batch(nil)
	require.NoError(t, b.LoadTemplates(model.KindMattress))
	s := b.newSequence(SequenceKey{Kind: model.KindMattress, Week: "S05", OrderID: "1"}, b.templates[model.KindMattress])

	_, err := s.Append(mattresses(1, "S05", "1", "C")[0])
	assert.Error(t, err, "append before init")

	require.NoError(t, s.Init())
	assert.Error(t, s.Init(), "init twice")
	assert.Equal(t, 1, s.FileIndex())

	_, err = s.Append(mattresses(1, "S05", "1", "C")[0])
	require.NoError(t, err)
	require.NoError(t, s.Finalize())
	require.NoError(t, s.Finalize(), "finalize is idempotent")

	_, err = s.Append(mattresses(1, "S05", "1", "C")[0])
	assert.Error(t, err, "append after finalize")
	assert.Len(t, s.Files(), 1)
}
