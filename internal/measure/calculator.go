// Package measure derives the cover, core-cut and literie measurements of an
// order line from the referential tables and the cutting rules.
package measure

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/piwi3910/literie/internal/model"
	"github.com/piwi3910/literie/internal/referentiel"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrUnknownCore     = errors.New("unknown core type")
	ErrUnknownFirmness = errors.New("no cutting rule for firmness")
	ErrNoCover         = errors.New("no cover material")
	ErrNotApplicable   = errors.New("not applicable to this kind")
)

// Options tunes formatting and rounding.
type Options struct {
	DecimalSeparator string
	LiterieMaxDelta  float64 // cm
}

// DefaultOptions matches model.DefaultAppConfig.
func DefaultOptions() Options {
	return Options{DecimalSeparator: ",", LiterieMaxDelta: 3}
}

// Calculator computes derived fields for one record at a time.
type Calculator struct {
	catalog referentiel.Catalog
	rules   OffsetRules
	opts    Options
	logger  *zap.Logger
}

// New builds a calculator. A nil logger disables logging.
func New(catalog referentiel.Catalog, rules OffsetRules, opts Options, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DecimalSeparator == "" {
		opts.DecimalSeparator = ","
	}
	return &Calculator{catalog: catalog, rules: rules, opts: opts, logger: logger}
}

// CoverWidth returns the cover width display value, e.g. "2 x 78,5".
// Poly covers are a single panel and show no prefix; paired covers double
// the panel count of the table.
func (c *Calculator) CoverWidth(rec model.OrderLineRecord) (string, error) {
	if rec.Kind != model.KindMattress {
		return "", ErrNotApplicable
	}
	if rec.CoverMaterial == model.CoverNone {
		return "", ErrNoCover
	}
	cell, err := c.catalog.Width.Lookup(rec.Width, rec.CoverMaterial)
	if err != nil {
		return "", err
	}

	value := FormatCm(cell.Value, c.opts.DecimalSeparator)
	count := cell.Count
	switch rec.CoverMaterial.Family() {
	case model.CoverFamilyPoly:
		return value, nil
	case model.CoverFamilyPaired:
		if count == 0 {
			count = 1
		}
		count *= 2
	}
	if count == 0 {
		return value, nil
	}
	return fmt.Sprintf("%d x %s", count, value), nil
}

// CoverLength returns the cover length display value.
func (c *Calculator) CoverLength(rec model.OrderLineRecord) (string, error) {
	if rec.Kind != model.KindMattress {
		return "", ErrNotApplicable
	}
	if rec.CoverMaterial == model.CoverNone {
		return "", ErrNoCover
	}
	cell, err := c.catalog.Length.Lookup(rec.Length, rec.CoverMaterial)
	if err != nil {
		return "", err
	}
	return FormatCm(cell.Value, c.opts.DecimalSeparator), nil
}

// CoreCut returns the core dimensions after applying the firmness offsets.
func (c *Calculator) CoreCut(rec model.OrderLineRecord) (width, length float64, err error) {
	if rec.Kind != model.KindMattress {
		return 0, 0, ErrNotApplicable
	}
	o, err := c.rules.For(rec.CoreType, rec.Firmness)
	if err != nil {
		return 0, 0, err
	}
	return rec.Width + o.Width, rec.Length + o.Length, nil
}

// Literie returns the overall bedding size, e.g. "160 x 200".
func (c *Calculator) Literie(rec model.OrderLineRecord) string {
	w := RoundLiterie(rec.Width, c.opts.LiterieMaxDelta)
	l := RoundLiterie(rec.Length, c.opts.LiterieMaxDelta)
	if rec.Paired() {
		w *= 2
	}
	return c.FormatPair(w, l)
}

// FormatPair formats "w x l" with the configured separator.
func (c *Calculator) FormatPair(w, l float64) string {
	return FormatCm(w, c.opts.DecimalSeparator) + " x " + FormatCm(l, c.opts.DecimalSeparator)
}

// Derive computes every field that applies to the record. Fields that cannot
// be computed are left unset and logged; Derive itself never fails.
func (c *Calculator) Derive(rec model.OrderLineRecord) model.DerivedFields {
	var d model.DerivedFields
	log := c.logger.With(
		zap.String("week", rec.WeekCode),
		zap.String("order", rec.OrderOrClientID),
		zap.String("kind", rec.Kind.String()),
	)

	d.Literie = model.Some(c.Literie(rec))
	if rec.Kind != model.KindMattress {
		return d
	}

	if v, err := c.CoverWidth(rec); err != nil {
		c.fieldError(log, "cover_width", err)
	} else {
		d.CoverWidth = model.Some(v)
	}
	if v, err := c.CoverLength(rec); err != nil {
		c.fieldError(log, "cover_length", err)
	} else {
		d.CoverLength = model.Some(v)
	}
	if w, l, err := c.CoreCut(rec); err != nil {
		c.fieldError(log, "core_cut", err)
	} else {
		d.CutWidth = model.Some(w)
		d.CutLength = model.Some(l)
		d.CoreCut = model.Some(c.FormatPair(w, l))
	}
	return d
}

func (c *Calculator) fieldError(log *zap.Logger, field string, err error) {
	if errors.Is(err, ErrNoCover) {
		log.Debug("field skipped", zap.String("field", field), zap.Error(err))
		return
	}
	log.Warn("field left blank", zap.String("field", field), zap.Error(err))
}

// RoundLiterie rounds v up to the next multiple of 10 when that moves it by
// at most maxDelta cm; otherwise v is returned unchanged.
func RoundLiterie(v, maxDelta float64) float64 {
	target := math.Ceil(v/10) * 10
	if target-v <= maxDelta+1e-9 {
		return target
	}
	return v
}

// FormatCm formats a centimetre value with at most two decimals and the given
// decimal separator, independent of the process locale. NaN and infinities
// format as "".
func FormatCm(v float64, sep string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := decimal.NewFromFloat(v).Round(2).String()
	if sep != "." {
		s = strings.Replace(s, ".", sep, 1)
	}
	return s
}
