package engine

import (
	"fmt"

	"github.com/piwi3910/literie/internal/model"
	"github.com/piwi3910/literie/internal/sheet"
	"github.com/piwi3910/literie/internal/store"
	"go.uber.org/zap"
)

// Deriver computes the derived fields of a record.
type Deriver interface {
	Derive(rec model.OrderLineRecord) model.DerivedFields
}

type seqState int

const (
	stateNew seqState = iota
	stateOpen
	stateClosed
)

// FileReport describes one output file written by a run.
type FileReport struct {
	Key       SequenceKey `json:"key"`
	Name      string      `json:"name"`
	Index     int         `json:"index"`
	Resumed   bool        `json:"resumed"`    // the file existed before the run
	Written   int         `json:"written"`    // slots filled during the run
	SlotsUsed int         `json:"slots_used"` // occupied slots once saved
	FirstCase int         `json:"first_case"`
	LastCase  int         `json:"last_case"`
	Occupied  []bool      `json:"occupied"` // per usable slot, fill order
	Columns   []string    `json:"columns"`  // left column of each usable slot
}

// CaseRecord is one record placed into a slot.
type CaseRecord struct {
	CaseNumber int                   `json:"case_number"`
	File       string                `json:"file"`
	Slot       int                   `json:"slot"` // 1-based
	Column     string                `json:"column"`
	Record     model.OrderLineRecord `json:"record"`
	Derived    model.DerivedFields   `json:"derived"`
}

// Sequence owns the current output document of one SequenceKey. It is not
// safe for concurrent use; a batch drives each sequence from one goroutine.
type Sequence struct {
	key       SequenceKey
	store     store.Store
	template  []byte
	layout    sheet.Layout
	writer    sheet.Writer
	deriver   Deriver
	threshold int
	logger    *zap.Logger

	state     seqState
	fileIndex int
	slotsUsed int
	written   int
	resumed   bool
	doc       *sheet.Document
	pending   []CaseRecord

	files []FileReport
	cases []CaseRecord
}

func (b *Batch) newSequence(key SequenceKey, tpl loadedTemplate) *Sequence {
	return &Sequence{
		key:       key,
		store:     b.store,
		template:  tpl.data,
		layout:    tpl.layout,
		writer:    b.opts.Writer,
		deriver:   b.deriver,
		threshold: b.opts.PlaceholderThreshold,
		logger:    b.logger.With(zap.String("sequence", key.String())),
	}
}

// Key returns the sequence key.
func (s *Sequence) Key() SequenceKey { return s.key }

// FileIndex is the index of the current file, 0 before Init.
func (s *Sequence) FileIndex() int { return s.fileIndex }

// SlotsUsed is the occupied slot count of the current file.
func (s *Sequence) SlotsUsed() int { return s.slotsUsed }

// CurrentFile is the name of the current file.
func (s *Sequence) CurrentFile() string {
	if s.fileIndex == 0 {
		return ""
	}
	return s.key.FileName(s.fileIndex)
}

// Files returns the files persisted so far.
func (s *Sequence) Files() []FileReport { return s.files }

// Cases returns the cases of the persisted files.
func (s *Sequence) Cases() []CaseRecord { return s.cases }

// Unsaved is the number of records appended to the current file that are not
// persisted yet. Close drops them.
func (s *Sequence) Unsaved() int { return len(s.pending) }

// Init finds where the sequence stopped last time. Files are probed from
// index 1 until a name is missing; the last existing file is reopened and its
// occupied slots counted. With no prior file a fresh one is started.
func (s *Sequence) Init() error {
	if s.state != stateNew {
		return fmt.Errorf("sequence %s already initialized", s.key)
	}
	next := 1
	for {
		ok, err := s.store.Exists(s.key.FileName(next))
		if err != nil {
			return fmt.Errorf("probe %s: %w", s.key.FileName(next), err)
		}
		if !ok {
			break
		}
		next++
	}

	if next == 1 {
		if err := s.startFile(1); err != nil {
			return err
		}
		s.state = stateOpen
		return nil
	}

	name := s.key.FileName(next - 1)
	data, err := s.store.Load(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptOutput, name, err)
	}
	doc, err := sheet.OpenDocument(data, s.layout)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptOutput, name, err)
	}
	used, err := sheet.CountOccupied(doc, s.threshold)
	if err != nil {
		doc.Close()
		return fmt.Errorf("%w: %s: %w", ErrCorruptOutput, name, err)
	}

	s.doc = doc
	s.fileIndex = next - 1
	s.slotsUsed = used
	s.written = 0
	s.resumed = true
	s.state = stateOpen
	s.logger.Info("sequence resumed",
		zap.String("file", name),
		zap.Int("file_index", s.fileIndex),
		zap.Int("slots_used", used))
	return nil
}

// Append places rec into the next empty slot, rolling over to a new file
// when the current one is full.
func (s *Sequence) Append(rec model.OrderLineRecord) (CaseRecord, error) {
	if s.state != stateOpen {
		return CaseRecord{}, fmt.Errorf("sequence %s is not open", s.key)
	}
	capacity := s.layout.Capacity()
	if s.slotsUsed >= capacity {
		if err := s.rollover(); err != nil {
			return CaseRecord{}, err
		}
	}

	slot, ok, err := sheet.FindNextEmptySlot(s.doc, s.threshold)
	if err != nil {
		return CaseRecord{}, err
	}
	if !ok {
		s.logger.Debug("no empty slot left, forcing rollover",
			zap.String("file", s.CurrentFile()),
			zap.Int("slots_used", s.slotsUsed))
		if err := s.rollover(); err != nil {
			return CaseRecord{}, err
		}
		if slot, ok, err = sheet.FindNextEmptySlot(s.doc, s.threshold); err != nil {
			return CaseRecord{}, err
		}
		if !ok {
			return CaseRecord{}, fmt.Errorf("%w: no empty slot after rollover", ErrTemplate)
		}
	}

	derived := s.deriver.Derive(rec)
	if err := s.writer.WriteSlot(s.doc, slot, rec, derived); err != nil {
		return CaseRecord{}, fmt.Errorf("write %s: %w", slot, err)
	}
	s.slotsUsed++
	s.written++

	c := CaseRecord{
		CaseNumber: sheet.CaseNumber(s.fileIndex, slot.Index, capacity),
		File:       s.CurrentFile(),
		Slot:       slot.Index + 1,
		Column:     slot.Left,
		Record:     rec,
		Derived:    derived,
	}
	s.pending = append(s.pending, c)
	return c, nil
}

// Finalize saves the current file, even partially filled, and closes the
// sequence. A later run resumes through Init.
func (s *Sequence) Finalize() error {
	if s.state != stateOpen {
		return nil
	}
	err := s.persist()
	s.state = stateClosed
	return err
}

// Close discards the current document without saving. It is a no-op once
// the sequence is finalized.
func (s *Sequence) Close() {
	if s.doc != nil {
		s.doc.Close()
		s.doc = nil
	}
	s.pending = nil
	s.state = stateClosed
}

func (s *Sequence) rollover() error {
	if err := s.persist(); err != nil {
		return err
	}
	return s.startFile(s.fileIndex + 1)
}

func (s *Sequence) startFile(index int) error {
	doc, err := sheet.OpenDocument(s.template, s.layout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	if err := s.writer.NumberCases(doc, index); err != nil {
		doc.Close()
		return err
	}
	s.doc = doc
	s.fileIndex = index
	s.slotsUsed = 0
	s.written = 0
	s.resumed = false
	s.logger.Debug("file started", zap.String("file", s.CurrentFile()))
	return nil
}

// persist saves and closes the current document. A resumed file that received
// nothing is closed without being rewritten.
func (s *Sequence) persist() error {
	if s.doc == nil {
		return nil
	}
	doc := s.doc
	s.doc = nil
	defer doc.Close()

	if s.written == 0 && s.resumed {
		return nil
	}
	name := s.CurrentFile()
	if err := s.writer.AutoSizeColumns(doc); err != nil {
		return fmt.Errorf("size columns of %s: %w", name, err)
	}
	report, err := s.fileReport(doc)
	if err != nil {
		return err
	}
	data, err := doc.Bytes()
	if err != nil {
		return err
	}
	if err := s.store.Save(name, data); err != nil {
		return err
	}

	s.files = append(s.files, report)
	s.cases = append(s.cases, s.pending...)
	s.pending = nil
	s.logger.Info("file saved",
		zap.String("file", name),
		zap.Int("written", s.written),
		zap.Int("slots_used", report.SlotsUsed))
	return nil
}

func (s *Sequence) fileReport(doc *sheet.Document) (FileReport, error) {
	slots := doc.Slots()
	capacity := s.layout.Capacity()
	r := FileReport{
		Key:       s.key,
		Name:      s.CurrentFile(),
		Index:     s.fileIndex,
		Resumed:   s.resumed,
		Written:   s.written,
		FirstCase: sheet.CaseNumber(s.fileIndex, 0, capacity),
		LastCase:  sheet.CaseNumber(s.fileIndex, capacity-1, capacity),
		Occupied:  make([]bool, len(slots)),
		Columns:   make([]string, len(slots)),
	}
	for i, slot := range slots {
		empty, err := sheet.IsSlotEmpty(doc, slot, s.threshold)
		if err != nil {
			return FileReport{}, err
		}
		r.Occupied[i] = !empty
		r.Columns[i] = slot.Left
		if !empty {
			r.SlotsUsed++
		}
	}
	return r, nil
}
