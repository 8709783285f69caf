// Package engine turns order-line records into numbered case sheets. Records
// are grouped by (kind, week, order) into file sequences; each sequence fills
// ten-slot workbooks left to right and rolls over to the next file when full.
package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/piwi3910/literie/internal/model"
	"github.com/piwi3910/literie/internal/sheet"
	"github.com/piwi3910/literie/internal/store"
	"go.uber.org/zap"
)

// Options configures a batch.
type Options struct {
	Templates            model.TemplatePaths
	PlaceholderThreshold int
	SlotsPerFile         int // 0 accepts whatever the layout holds
	Writer               sheet.Writer
}

// OptionsFromConfig maps the application config onto batch options.
func OptionsFromConfig(cfg model.AppConfig) Options {
	return Options{
		Templates:            cfg.Templates,
		PlaceholderThreshold: cfg.Layout.PlaceholderThreshold,
		SlotsPerFile:         cfg.Layout.SlotsPerFile,
		Writer: sheet.Writer{
			DecimalSeparator:  cfg.Measure.DecimalSeparator,
			MinColumnWidth:    cfg.Layout.MinColumnWidth,
			ColumnWidthFactor: cfg.Layout.ColumnWidthFactor,
		},
	}
}

// Report summarizes a run.
type Report struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Files      []FileReport    `json:"files"`
	Cases      []CaseRecord    `json:"cases"`
	Failed     []SequenceError `json:"failed,omitempty"`
	Rejected   []RecordError   `json:"rejected,omitempty"`
}

// OK reports whether every sequence and record went through.
func (r *Report) OK() bool {
	return len(r.Failed) == 0 && len(r.Rejected) == 0
}

// Weeks returns the distinct week codes of the written files, in first-seen order.
func (r *Report) Weeks() []string {
	seen := map[string]bool{}
	var weeks []string
	for _, f := range r.Files {
		if !seen[f.Key.Week] {
			seen[f.Key.Week] = true
			weeks = append(weeks, f.Key.Week)
		}
	}
	return weeks
}

type loadedTemplate struct {
	path   string
	data   []byte
	layout sheet.Layout
}

// Batch runs records through their file sequences.
type Batch struct {
	opts      Options
	store     store.Store
	deriver   Deriver
	logger    *zap.Logger
	templates map[model.Kind]loadedTemplate
}

// NewBatch creates a batch writing to st. A nil logger discards logs.
func NewBatch(opts Options, st store.Store, d Deriver, logger *zap.Logger) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{
		opts:      opts,
		store:     st,
		deriver:   d,
		logger:    logger,
		templates: map[model.Kind]loadedTemplate{},
	}
}

// LoadTemplates reads and checks the template of each kind. Any failure is a
// *TemplateError matching ErrTemplate.
func (b *Batch) LoadTemplates(kinds ...model.Kind) error {
	for _, kind := range kinds {
		if _, ok := b.templates[kind]; ok {
			continue
		}
		tpl, err := b.loadTemplate(kind)
		if err != nil {
			return err
		}
		b.templates[kind] = tpl
	}
	return nil
}

func (b *Batch) loadTemplate(kind model.Kind) (loadedTemplate, error) {
	path := b.opts.Templates.For(kind)
	fail := func(err error) (loadedTemplate, error) {
		return loadedTemplate{}, &TemplateError{Kind: kind, Path: path, Err: err}
	}
	layout, err := sheet.LayoutFor(kind)
	if err != nil {
		return fail(err)
	}
	if path == "" {
		return fail(errors.New("no template configured"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	doc, err := sheet.OpenDocument(data, layout)
	if err != nil {
		return fail(err)
	}
	doc.Close()
	if n := b.opts.SlotsPerFile; n != 0 && n != layout.Capacity() {
		return fail(fmt.Errorf("layout holds %d slots, configured for %d", layout.Capacity(), n))
	}
	b.logger.Debug("template loaded", zap.Stringer("kind", kind), zap.String("path", path))
	return loadedTemplate{path: path, data: data, layout: layout}, nil
}

// Run processes records in input order. The error is non-nil only when the
// batch could not start (templates); sequence failures are listed in the
// report and never stop other sequences.
func (b *Batch) Run(records []model.OrderLineRecord) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := b.logger.With(zap.String("run_id", report.RunID))

	if err := b.LoadTemplates(kindsOf(records)...); err != nil {
		return nil, err
	}

	seqs := map[SequenceKey]*Sequence{}
	failed := map[SequenceKey]int{} // key -> index into report.Failed
	var order []SequenceKey
	defer func() {
		for _, s := range seqs {
			s.Close()
		}
	}()

	fail := func(s *Sequence, key SequenceKey, err error) {
		file := ""
		lost := 0
		if s != nil {
			file = s.CurrentFile()
			lost = s.Unsaved()
			s.Close()
		}
		failed[key] = len(report.Failed)
		report.Failed = append(report.Failed, SequenceError{Key: key, File: file, Skipped: lost, Err: err})
		log.Error("sequence aborted", zap.String("sequence", key.String()), zap.String("file", file), zap.Error(err))
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			report.Rejected = append(report.Rejected, RecordError{Index: i, Err: err})
			log.Warn("record rejected", zap.Int("record", i+1), zap.Error(err))
			continue
		}
		key := KeyOf(rec)
		if idx, ok := failed[key]; ok {
			report.Failed[idx].Skipped++
			continue
		}

		seq, ok := seqs[key]
		if !ok {
			seq = b.newSequence(key, b.templates[rec.Kind])
			seqs[key] = seq
			order = append(order, key)
			if err := seq.Init(); err != nil {
				fail(seq, key, err)
				report.Failed[failed[key]].Skipped++
				continue
			}
		}
		if _, err := seq.Append(rec); err != nil {
			fail(seq, key, err)
			report.Failed[failed[key]].Skipped++
		}
	}

	for _, key := range order {
		seq := seqs[key]
		if _, ok := failed[key]; !ok {
			if err := seq.Finalize(); err != nil {
				fail(seq, key, err)
			}
		}
		report.Files = append(report.Files, seq.Files()...)
		report.Cases = append(report.Cases, seq.Cases()...)
	}

	report.FinishedAt = time.Now()
	log.Info("batch finished",
		zap.Int("records", len(records)),
		zap.Int("cases", len(report.Cases)),
		zap.Int("files", len(report.Files)),
		zap.Int("failed_sequences", len(report.Failed)),
		zap.Int("rejected", len(report.Rejected)))
	return report, nil
}

func kindsOf(records []model.OrderLineRecord) []model.Kind {
	seen := map[model.Kind]bool{}
	var kinds []model.Kind
	for _, r := range records {
		if r.Kind != model.KindUnknown && !seen[r.Kind] {
			seen[r.Kind] = true
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds
}
