package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/literie/internal/engine"
)

// ManifestVersion is written into every manifest.
const ManifestVersion = "1.0.0"

// Manifest records what one run wrote for one production week.
type Manifest struct {
	Version   string         `json:"version"`
	RunID     string         `json:"run_id"`
	CreatedAt string         `json:"created_at"`
	Week      string         `json:"week"`
	Files     []ManifestFile `json:"files"`
	Failures  []string       `json:"failures,omitempty"`
	Rejected  []string       `json:"rejected,omitempty"`
}

// ManifestFile is one output file and the cases it holds.
type ManifestFile struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	OrderID   string `json:"order_id"`
	Resumed   bool   `json:"resumed"`
	Written   int    `json:"written"`
	SlotsUsed int    `json:"slots_used"`
	FirstCase int    `json:"first_case"`
	LastCase  int    `json:"last_case"`
}

// ManifestPath returns where the manifest of week lives in dir.
func ManifestPath(dir, week string) string {
	return filepath.Join(dir, fmt.Sprintf("manifest_%s.json", week))
}

// BuildManifests splits a report into one manifest per week. Failures and
// rejected records are attached to the week they belong to when known, and
// to every manifest otherwise.
func BuildManifests(report *engine.Report) []Manifest {
	created := report.FinishedAt
	if created.IsZero() {
		created = time.Now()
	}
	byWeek := map[string]*Manifest{}
	var order []string
	get := func(week string) *Manifest {
		if m, ok := byWeek[week]; ok {
			return m
		}
		m := &Manifest{
			Version:   ManifestVersion,
			RunID:     report.RunID,
			CreatedAt: created.UTC().Format(time.RFC3339),
			Week:      week,
			Files:     []ManifestFile{},
		}
		byWeek[week] = m
		order = append(order, week)
		return m
	}

	for _, f := range report.Files {
		m := get(f.Key.Week)
		m.Files = append(m.Files, ManifestFile{
			Name:      f.Name,
			Kind:      f.Key.Kind.String(),
			OrderID:   f.Key.OrderID,
			Resumed:   f.Resumed,
			Written:   f.Written,
			SlotsUsed: f.SlotsUsed,
			FirstCase: f.FirstCase,
			LastCase:  f.LastCase,
		})
	}
	for _, fail := range report.Failed {
		m := get(fail.Key.Week)
		m.Failures = append(m.Failures, fail.Error())
	}

	manifests := make([]Manifest, 0, len(order))
	for _, week := range order {
		m := byWeek[week]
		for _, rej := range report.Rejected {
			m.Rejected = append(m.Rejected, rej.Error())
		}
		manifests = append(manifests, *m)
	}
	return manifests
}

// WriteManifests writes one manifest_<week>.json per week of report into dir
// and returns the paths written.
func WriteManifests(dir string, report *engine.Report) ([]string, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to write")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}
	var paths []string
	for _, m := range BuildManifests(report) {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("failed to marshal manifest: %w", err)
		}
		path := ManifestPath(dir, m.Week)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write manifest: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadManifest reads a manifest written by WriteManifests.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("invalid manifest: missing version field")
	}
	if m.Files == nil {
		m.Files = []ManifestFile{}
	}
	return m, nil
}
