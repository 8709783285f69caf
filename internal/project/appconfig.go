// Package project persists the application config and the per-run manifests
// written next to the output files.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/literie/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.literie/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".literie")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// SaveAppConfig persists an AppConfig to the given path as YAML.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads an AppConfig from the given path. Keys absent from the
// file keep their default value. If the file does not exist, it returns
// DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return model.AppConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := ValidateAppConfig(config); err != nil {
		return model.AppConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// ValidateAppConfig rejects settings the batch cannot run with.
func ValidateAppConfig(config model.AppConfig) error {
	var errs []error
	if config.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if config.Layout.PlaceholderThreshold < 0 {
		errs = append(errs, fmt.Errorf("placeholder_threshold must be >= 0, got %d", config.Layout.PlaceholderThreshold))
	}
	if config.Layout.SlotsPerFile < 0 {
		errs = append(errs, fmt.Errorf("slots_per_file must be >= 0, got %d", config.Layout.SlotsPerFile))
	}
	if config.Layout.MinColumnWidth <= 0 || config.Layout.ColumnWidthFactor <= 0 {
		errs = append(errs, errors.New("column widths must be positive"))
	}
	if config.Measure.DecimalSeparator != "," && config.Measure.DecimalSeparator != "." {
		errs = append(errs, fmt.Errorf("decimal_separator must be \",\" or \".\", got %q", config.Measure.DecimalSeparator))
	}
	if config.Measure.LiterieMaxDelta < 0 {
		errs = append(errs, fmt.Errorf("literie_max_delta must be >= 0, got %g", config.Measure.LiterieMaxDelta))
	}
	switch config.Store.Backend {
	case "", "dir":
	case "sqlite":
		if config.Store.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite backend needs sqlite_path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", config.Store.Backend))
	}
	switch config.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", config.Logging.Level))
	}
	return errors.Join(errs...)
}
