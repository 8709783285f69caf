package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/literie/internal/engine"
	"github.com/piwi3910/literie/internal/export"
	"github.com/piwi3910/literie/internal/importer"
	"github.com/piwi3910/literie/internal/measure"
	"github.com/piwi3910/literie/internal/project"
	"github.com/piwi3910/literie/internal/referentiel"
	"github.com/piwi3910/literie/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runInput   string
	runOutDir  string
	runBackend string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Allocate an order file into case sheets",
	Long: `Imports order lines (CSV, Excel or JSON), computes the derived
measurements and writes them into <Type>_<Week>_<Order>_<n>.xlsx files.
Existing files of a sequence are resumed, never renumbered.

Exit status is 2 when some sequences or records could not be written.`,
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "Order file (.csv, .xlsx, .json)")
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", "", "Output directory (overrides output_dir)")
	runCmd.Flags().StringVar(&runBackend, "store", "", "Store backend: dir or sqlite (overrides store.backend)")
	runCmd.MarkFlagRequired("input")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if runOutDir != "" {
		cfg.OutputDir = runOutDir
	}
	if runBackend != "" {
		cfg.Store.Backend = runBackend
	}
	if err := project.ValidateAppConfig(cfg); err != nil {
		return err
	}

	res := importer.ImportFile(runInput)
	for _, w := range res.Warnings {
		logger.Warn("import warning", zap.String("detail", w))
	}
	for _, e := range res.Errors {
		logger.Error("import error", zap.String("detail", e))
	}
	records := importer.ExpandUnits(res.Records)
	if len(records) == 0 {
		return fmt.Errorf("no records imported from %s", runInput)
	}
	logger.Info("orders imported",
		zap.String("input", runInput),
		zap.Int("lines", len(res.Records)),
		zap.Int("units", len(records)))

	catalog, err := loadCatalog(cfg.ReferentielDir)
	if err != nil {
		return err
	}
	calc := measure.New(catalog, measure.DefaultOffsetRules(), measure.Options{
		DecimalSeparator: cfg.Measure.DecimalSeparator,
		LiterieMaxDelta:  cfg.Measure.LiterieMaxDelta,
	}, logger)

	st, err := store.Open(cfg.Store.Backend, cfg.OutputDir, cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}

	batch := engine.NewBatch(engine.OptionsFromConfig(cfg), st, calc, logger)
	report, err := batch.Run(records)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), report)
	if err := writeExports(cfg.OutputDir, report); err != nil {
		return err
	}
	if !report.OK() || len(res.Errors) > 0 {
		return fmt.Errorf("%w: %d sequence(s), %d record(s), %d import error(s)",
			errPartial, len(report.Failed), len(report.Rejected), len(res.Errors))
	}
	return nil
}

func loadCatalog(dir string) (referentiel.Catalog, error) {
	if dir == "" {
		return referentiel.Embedded()
	}
	return referentiel.LoadDir(dir)
}

func printReport(w io.Writer, report *engine.Report) {
	for _, f := range report.Files {
		state := "new"
		if f.Resumed {
			state = "resumed"
		}
		fmt.Fprintf(w, "%-40s %-8s %2d/%d slots  cases %d-%d\n",
			f.Name, state, f.SlotsUsed, len(f.Occupied), f.FirstCase, f.LastCase)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "FAILED  %v (%d unit(s) not written)\n", f, f.Skipped)
	}
	for _, r := range report.Rejected {
		fmt.Fprintf(w, "REJECTED  %v\n", r)
	}
}

// writeExports writes the side outputs enabled in the config.
func writeExports(dir string, report *engine.Report) error {
	if len(report.Files) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	suffix := strings.Join(report.Weeks(), "-")

	if cfg.Exports.Labels && len(report.Cases) > 0 {
		path := filepath.Join(dir, fmt.Sprintf("etiquettes_%s.pdf", suffix))
		if err := export.ExportCaseLabels(path, report.Cases); err != nil {
			return fmt.Errorf("export labels: %w", err)
		}
		logger.Info("labels written", zap.String("path", path))
	}
	if cfg.Exports.CoreCutDXF && len(export.CollectCoreCuts(report.Cases)) > 0 {
		path := filepath.Join(dir, fmt.Sprintf("decoupes_%s.dxf", suffix))
		if err := export.ExportCoreCuts(path, report.Cases); err != nil {
			return fmt.Errorf("export core cuts: %w", err)
		}
		logger.Info("core cuts written", zap.String("path", path))
	}
	if cfg.Exports.RecapPDF {
		path := filepath.Join(dir, fmt.Sprintf("recap_%s.pdf", suffix))
		if err := export.ExportRecap(path, report); err != nil {
			return fmt.Errorf("export recap: %w", err)
		}
		logger.Info("recap written", zap.String("path", path))
	}
	if cfg.Exports.Manifest {
		paths, err := project.WriteManifests(dir, report)
		if err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		logger.Info("manifests written", zap.Strings("paths", paths))
	}
	return nil
}
