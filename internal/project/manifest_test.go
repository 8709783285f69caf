package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/piwi3910/literie/internal/engine"
	"github.com/piwi3910/literie/internal/model"
)

func sampleReport() *engine.Report {
	s05 := engine.SequenceKey{Kind: model.KindMattress, Week: "S05", OrderID: "A100"}
	s06 := engine.SequenceKey{Kind: model.KindBedFrame, Week: "S06", OrderID: "B200"}
	return &engine.Report{
		RunID:      "run-1",
		StartedAt:  time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 2, 2, 8, 0, 5, 0, time.UTC),
		Files: []engine.FileReport{
			{Key: s05, Name: s05.FileName(1), Index: 1, Written: 10, SlotsUsed: 10, FirstCase: 1, LastCase: 10},
			{Key: s05, Name: s05.FileName(2), Index: 2, Written: 3, SlotsUsed: 3, FirstCase: 11, LastCase: 20},
			{Key: s06, Name: s06.FileName(1), Index: 1, Resumed: true, Written: 1, SlotsUsed: 4, FirstCase: 1, LastCase: 10},
		},
		Failed: []engine.SequenceError{
			{Key: s06, File: "broken.xlsx", Skipped: 2, Err: errors.New("boom")},
		},
		Rejected: []engine.RecordError{
			{Index: 4, Err: errors.New("missing week")},
		},
	}
}

func TestBuildManifestsSplitsByWeek(t *testing.T) {
	manifests := BuildManifests(sampleReport())
	if len(manifests) != 2 {
		t.Fatalf("expected 2 manifests, got %d", len(manifests))
	}
	if manifests[0].Week != "S05" || manifests[1].Week != "S06" {
		t.Errorf("expected weeks S05, S06 in order, got %s, %s", manifests[0].Week, manifests[1].Week)
	}

	wantFiles := []ManifestFile{
		{Name: "Matelas_S05_A100_1.xlsx", Kind: "mattress", OrderID: "A100", Written: 10, SlotsUsed: 10, FirstCase: 1, LastCase: 10},
		{Name: "Matelas_S05_A100_2.xlsx", Kind: "mattress", OrderID: "A100", Written: 3, SlotsUsed: 3, FirstCase: 11, LastCase: 20},
	}
	if diff := cmp.Diff(wantFiles, manifests[0].Files); diff != "" {
		t.Errorf("S05 files mismatch (-want +got):\n%s", diff)
	}

	if len(manifests[0].Failures) != 0 {
		t.Errorf("expected no failures in S05, got %v", manifests[0].Failures)
	}
	if len(manifests[1].Failures) != 1 {
		t.Errorf("expected 1 failure in S06, got %v", manifests[1].Failures)
	}
	for _, m := range manifests {
		if len(m.Rejected) != 1 {
			t.Errorf("expected rejected record in %s manifest, got %v", m.Week, m.Rejected)
		}
		if m.CreatedAt != "2026-02-02T08:00:05Z" {
			t.Errorf("expected created_at from report end, got %s", m.CreatedAt)
		}
	}
}

func TestWriteAndReadManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	paths, err := WriteManifests(dir, sampleReport())
	if err != nil {
		t.Fatalf("WriteManifests failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 manifest files, got %d", len(paths))
	}
	if paths[0] != ManifestPath(dir, "S05") {
		t.Errorf("expected %s, got %s", ManifestPath(dir, "S05"), paths[0])
	}

	got, err := ReadManifest(paths[0])
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	want := BuildManifests(sampleReport())[0]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("manifest round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteManifestsNilReport(t *testing.T) {
	if _, err := WriteManifests(t.TempDir(), nil); err == nil {
		t.Error("expected error for nil report")
	}
}

func TestReadManifestInvalid(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadManifest(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadManifest(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}

	noVersion := filepath.Join(dir, "noversion.json")
	if err := os.WriteFile(noVersion, []byte(`{"week":"S05"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadManifest(noVersion); err == nil {
		t.Error("expected error for missing version")
	}
}
