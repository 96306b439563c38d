// Package pathutil provides centralized path management for the ledger
// store, mapping configuration and run artifacts.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMappingFile is used when no mapping file is configured.
const DefaultMappingFile = "config/field-mapping.yaml"

// PathResolver resolves the paths one import run touches.
type PathResolver struct {
	ledgerPath  string
	mappingFile string
	overlayFile string
}

// Config configures a PathResolver.
type Config struct {
	// LedgerPath is the SQLite ledger store file.
	LedgerPath string
	// MappingFile is the YAML field-mapping configuration.
	MappingFile string
	// OverlayFile receives the document tax-rate overlay JSON.
	OverlayFile string
}

// New creates a PathResolver. If MappingFile is empty it defaults to
// DefaultMappingFile; if OverlayFile is empty it defaults to
// {LedgerPath}.overlay.json.
func New(config Config) *PathResolver {
	mappingFile := config.MappingFile
	if mappingFile == "" {
		mappingFile = DefaultMappingFile
	}
	overlayFile := config.OverlayFile
	if overlayFile == "" {
		overlayFile = config.LedgerPath + ".overlay.json"
	}
	return &PathResolver{
		ledgerPath:  config.LedgerPath,
		mappingFile: mappingFile,
		overlayFile: overlayFile,
	}
}

// LedgerPath returns the ledger store file path.
func (p *PathResolver) LedgerPath() string { return p.ledgerPath }

// LockPath returns the sibling lock file guarding the store.
func (p *PathResolver) LockPath() string { return p.ledgerPath + ".lock" }

// MappingFile returns the field-mapping configuration path.
func (p *PathResolver) MappingFile() string { return p.mappingFile }

// OverlayFile returns the tax-rate overlay artifact path.
func (p *PathResolver) OverlayFile() string { return p.overlayFile }

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
