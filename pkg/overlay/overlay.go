// Package overlay persists the document-id to final-tax-rate mapping a run
// accumulates, so the external serialization patch step can rewrite tax-rate
// fields after the fact. The patch itself is not part of this tool.
package overlay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/plainledger/qbimport/pkg/rational"
)

// Write serializes rates as a JSON object of document id to rendered rate.
func Write(path string, rates map[string]rational.Amount) error {
	out := make(map[string]string, len(rates))
	for id, rate := range rates {
		out[id] = rate.String()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tax overlay: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write tax overlay: %w", err)
	}
	return nil
}

// Read loads a previously written overlay file.
func Read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax overlay: %w", err)
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode tax overlay: %w", err)
	}
	return out, nil
}
