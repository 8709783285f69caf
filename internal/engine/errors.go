package engine

import (
	"errors"
	"fmt"

	"github.com/piwi3910/literie/internal/model"
)

var (
	// ErrTemplate marks a missing or unreadable template. It aborts the batch.
	ErrTemplate = errors.New("template unavailable")
	// ErrCorruptOutput marks an existing output file that cannot be read back.
	// It aborts only the sequence that owns the file.
	ErrCorruptOutput = errors.New("corrupt output file")
)

// TemplateError reports which template could not be used.
type TemplateError struct {
	Kind model.Kind
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s template %s: %v", e.Kind, e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTemplate) match any TemplateError.
func (e *TemplateError) Is(target error) bool { return target == ErrTemplate }

// SequenceError reports a sequence that stopped before its last record.
type SequenceError struct {
	Key     SequenceKey `json:"key"`
	File    string      `json:"file,omitempty"`
	Skipped int         `json:"skipped"` // records not written, unsaved ones included
	Err     error       `json:"-"`
}

func (e SequenceError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("sequence %s (%s): %v", e.Key, e.File, e.Err)
	}
	return fmt.Sprintf("sequence %s: %v", e.Key, e.Err)
}

func (e SequenceError) Unwrap() error { return e.Err }

// RecordError reports an input record rejected before allocation.
type RecordError struct {
	Index int   `json:"index"` // 0-based position in the batch
	Err   error `json:"-"`
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index+1, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }
