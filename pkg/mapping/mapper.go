// Package mapping loads the export-header to ledger-field remapping
// dictionaries from a YAML configuration file.
package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy controls how repeated occurrences of the same target field are
// combined. Headers without a policy are overwritten by the last occurrence.
type Policy string

const (
	// PolicyComma joins repeated values with ", ".
	PolicyComma Policy = "comma"
	// PolicySpace joins repeated values with a single space.
	PolicySpace Policy = "space"
)

// FieldMap remaps one export dataset's column heads to ledger field names.
// Headers absent from Fields are dropped.
type FieldMap struct {
	Fields  map[string]string `yaml:"fields"`
	Combine map[string]Policy `yaml:"combine"`
}

// Config carries the four dataset maps of the import surface.
type Config struct {
	Customers    FieldMap `yaml:"customers"`
	Vendors      FieldMap `yaml:"vendors"`
	Items        FieldMap `yaml:"items"`
	Transactions FieldMap `yaml:"transactions"`
}

// Load reads and validates a mapping configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}

	for name, fm := range map[string]FieldMap{
		"customers":    cfg.Customers,
		"vendors":      cfg.Vendors,
		"items":        cfg.Items,
		"transactions": cfg.Transactions,
	} {
		for field, policy := range fm.Combine {
			if policy != PolicyComma && policy != PolicySpace {
				return nil, fmt.Errorf("mapping %s: unknown combine policy %q for field %q", name, policy, field)
			}
		}
	}

	return &cfg, nil
}

// Apply remaps one record. Headers mapped to an empty target or carrying an
// empty value are skipped; repeated targets follow the combine policy.
func (m FieldMap) Apply(headers, record []string) map[string]string {
	out := make(map[string]string)
	for i, header := range headers {
		if i >= len(record) {
			break
		}
		target, ok := m.Fields[header]
		if !ok || target == "" || record[i] == "" {
			continue
		}
		prev, seen := out[target]
		if !seen {
			out[target] = record[i]
			continue
		}
		switch m.Combine[target] {
		case PolicyComma:
			out[target] = prev + ", " + record[i]
		case PolicySpace:
			out[target] = prev + " " + record[i]
		default:
			// Last occurrence wins.
			out[target] = record[i]
		}
	}
	return out
}
