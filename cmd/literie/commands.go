package main

import (
	"fmt"
	"path/filepath"

	"github.com/piwi3910/literie/internal/measure"
	"github.com/piwi3910/literie/internal/model"
	"github.com/piwi3910/literie/internal/project"
	"github.com/piwi3910/literie/internal/sheet"
	"github.com/piwi3910/literie/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// templateCmd generates blank templates with the expected layout.
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Generate a blank case-sheet template",
	RunE: func(cmd *cobra.Command, args []string) error {
		kindName, _ := cmd.Flags().GetString("kind")
		out, _ := cmd.Flags().GetString("out")

		kind := model.ParseKind(kindName)
		layout, err := sheet.LayoutFor(kind)
		if err != nil {
			return err
		}
		if out == "" {
			out = cfg.Templates.For(kind)
		}
		if err := sheet.WriteTemplate(layout, out); err != nil {
			return err
		}
		logger.Info("template written", zap.String("kind", kind.String()), zap.String("path", out))
		return nil
	},
}

// measureCmd prints the derived measurements of a single unit.
var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Compute cover, core-cut and literie values for one unit",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		kindName, _ := flags.GetString("kind")
		core, _ := flags.GetString("core")
		frame, _ := flags.GetString("frame")
		firmness, _ := flags.GetString("firmness")
		cover, _ := flags.GetString("cover")
		width, _ := flags.GetFloat64("width")
		length, _ := flags.GetFloat64("length")
		quantity, _ := flags.GetInt("quantity")

		rec := model.OrderLineRecord{
			Kind:          model.ParseKind(kindName),
			CoreType:      model.ParseCoreType(core),
			FrameType:     model.ParseFrameType(frame),
			Firmness:      model.ParseFirmness(firmness),
			CoverMaterial: model.ParseCoverMaterial(cover),
			Quantity:      quantity,
			UnitIndex:     1,
			Width:         width,
			Length:        length,
		}
		if rec.Kind == model.KindUnknown {
			return fmt.Errorf("unknown kind %q", kindName)
		}
		if width <= 0 || length <= 0 {
			return fmt.Errorf("width and length must be positive")
		}

		catalog, err := loadCatalog(cfg.ReferentielDir)
		if err != nil {
			return err
		}
		calc := measure.New(catalog, measure.DefaultOffsetRules(), measure.Options{
			DecimalSeparator: cfg.Measure.DecimalSeparator,
			LiterieMaxDelta:  cfg.Measure.LiterieMaxDelta,
		}, logger)
		d := calc.Derive(rec)

		w := cmd.OutOrStdout()
		rows := []struct {
			label string
			value model.Optional[string]
		}{
			{"Housse largeur", d.CoverWidth},
			{"Housse longueur", d.CoverLength},
			{"Découpe noyau", d.CoreCut},
			{"Literie", d.Literie},
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%-16s %s\n", r.label, r.value.OrElse("-"))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			path = configPath
		}
		if err := project.SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the SQLite document store",
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy every stored workbook into a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")
		out, _ := cmd.Flags().GetString("out")
		if db == "" {
			db = cfg.Store.SQLitePath
		}
		if out == "" {
			out = filepath.Join(cfg.OutputDir, "export")
		}
		st, err := store.NewSQLiteStore(db)
		if err != nil {
			return err
		}
		defer st.Close()

		paths, err := st.Export(out)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		logger.Info("store exported", zap.String("db", db), zap.Int("files", len(paths)))
		return nil
	},
}

func init() {
	templateCmd.Flags().String("kind", "matelas", "Template kind: matelas or sommier")
	templateCmd.Flags().String("out", "", "Output path (default: the configured template path)")

	measureCmd.Flags().String("kind", "matelas", "Kind: matelas or sommier")
	measureCmd.Flags().String("core", "", "Core type, e.g. \"LATEX NATUREL\"")
	measureCmd.Flags().String("frame", "", "Bed-frame type")
	measureCmd.Flags().String("firmness", "", "Firmness: FERME, MEDIUM or CONFORT")
	measureCmd.Flags().String("cover", "", "Cover material, e.g. TENCEL")
	measureCmd.Flags().Float64("width", 0, "Width in cm")
	measureCmd.Flags().Float64("length", 0, "Length in cm")
	measureCmd.Flags().Int("quantity", 1, "Quantity of the order line (2 for a twin set)")

	configInitCmd.Flags().String("path", "", "Where to write the config (default: --config)")
	configCmd.AddCommand(configInitCmd)

	storeExportCmd.Flags().String("db", "", "SQLite database (default: store.sqlite_path)")
	storeExportCmd.Flags().String("out", "", "Destination directory (default: <output_dir>/export)")
	storeCmd.AddCommand(storeExportCmd)
}
