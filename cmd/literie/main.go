// Literie turns weekly mattress and bed-frame order lines into numbered
// case sheets, ten cases per workbook, plus the workshop side outputs
// (labels, core-cut DXF, recap PDF and run manifest).
//
// Build:
//
//	go build -o literie ./cmd/literie
//
// Usage:
//
//	literie run --input commandes_S05.xlsx
//	literie template --kind matelas --out templates/template_matelas.xlsx
//	literie measure --core "LATEX NATUREL" --firmness FERME --cover TENCEL --width 140 --length 190
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/piwi3910/literie/internal/logging"
	"github.com/piwi3910/literie/internal/model"
	"github.com/piwi3910/literie/internal/project"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    model.AppConfig
	logger *zap.Logger
)

// errPartial means the run finished but some sequences or records failed.
var errPartial = errors.New("batch finished with failures")

var rootCmd = &cobra.Command{
	Use:   "literie",
	Short: "Fill weekly case sheets from mattress and bed-frame orders",
	Long: `literie allocates every ordered unit to a case slot of the production
templates, numbers the cases across files and resumes partially filled
files from a previous run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = project.LoadAppConfig(configPath)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.JSON)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", project.DefaultConfigPath(), "Config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(measureCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(storeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errPartial) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
