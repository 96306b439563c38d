// Package config provides configuration management for the importer.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Ledger LedgerConfig
	Debug  bool
}

// LedgerConfig represents ledger-store-related configuration.
type LedgerConfig struct {
	// Path is the SQLite ledger store file.
	Path string
	// MappingFile is the YAML field-mapping configuration file.
	MappingFile string
	// OverlayFile receives the document tax-rate overlay JSON.
	OverlayFile string
	// TaxAccount is the tax-liability account name whose entry rows carry
	// tax-table declarations instead of postings.
	TaxAccount string
	// Currency is the commodity journal transactions are denominated in.
	Currency string
}

// Load loads configuration from environment variables. It automatically
// loads a .env file from the current directory if available; a custom .env
// path can be given instead.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Best effort; a missing .env is fine.
		_ = godotenv.Load()
	}

	return &Config{
		Ledger: LedgerConfig{
			Path:        os.Getenv("QBIMPORT_LEDGER_PATH"),
			MappingFile: os.Getenv("QBIMPORT_MAPPING_FILE"),
			OverlayFile: os.Getenv("QBIMPORT_OVERLAY_FILE"),
			TaxAccount:  getEnvOrDefault("QBIMPORT_TAX_ACCOUNT", "Sales Tax Payable"),
			Currency:    getEnvOrDefault("QBIMPORT_CURRENCY", "USD"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}, nil
}

// Validate checks that the named settings are present. Setting names are
// dotted, e.g. "ledger.path".
func (c *Config) Validate(required ...string) error {
	var missing []string
	for _, name := range required {
		var value string
		switch name {
		case "ledger.path":
			value = c.Ledger.Path
		case "ledger.mappingFile":
			value = c.Ledger.MappingFile
		case "ledger.overlayFile":
			value = c.Ledger.OverlayFile
		case "ledger.taxAccount":
			value = c.Ledger.TaxAccount
		case "ledger.currency":
			value = c.Ledger.Currency
		}
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}
	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default
// value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
