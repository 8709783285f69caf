package model

import "testing"

func TestDefaultAppConfig(t *testing.T) {
	cfg := DefaultAppConfig()

	if cfg.Layout.SlotsPerFile != 10 {
		t.Errorf("expected 10 slots per file, got %d", cfg.Layout.SlotsPerFile)
	}
	if cfg.Layout.PlaceholderThreshold != 20 {
		t.Errorf("expected placeholder threshold 20, got %d", cfg.Layout.PlaceholderThreshold)
	}
	if cfg.Measure.LiterieMaxDelta != 3 {
		t.Errorf("expected literie max delta 3, got %f", cfg.Measure.LiterieMaxDelta)
	}
	if cfg.Measure.DecimalSeparator != "," {
		t.Errorf("expected comma separator, got %q", cfg.Measure.DecimalSeparator)
	}
	if cfg.Store.Backend != "dir" {
		t.Errorf("expected dir backend, got %q", cfg.Store.Backend)
	}
}

func TestTemplatePathsFor(t *testing.T) {
	p := TemplatePaths{Mattress: "m.xlsx", BedFrame: "s.xlsx"}
	if p.For(KindMattress) != "m.xlsx" {
		t.Errorf("expected m.xlsx, got %s", p.For(KindMattress))
	}
	if p.For(KindBedFrame) != "s.xlsx" {
		t.Errorf("expected s.xlsx, got %s", p.For(KindBedFrame))
	}
}
