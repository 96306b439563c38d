// Package qbcsv reads a flat bookkeeping export as an ordered stream of
// mapped records. The stream is single pass and never buffered out of order;
// row order in the export is load-bearing for group reassembly.
package qbcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
)

// SplitMarker is the placeholder the export writes in place of a real
// account when a document spans multiple splits.
const SplitMarker = "-SPLIT-"

var (
	leadingNumber = regexp.MustCompile(`^\d+ `)
	segmentNumber = regexp.MustCompile(`:\d+ `)
)

// Record is one mapped export row. Fields holds only the ledger fields that
// were present and non-empty in the row.
type Record struct {
	Line   int
	Fields map[string]string
}

// Get returns the named field, or "" when absent.
func (r Record) Get(name string) string { return r.Fields[name] }

// FieldMapper remaps one raw record's column heads to ledger field names.
// Satisfied by mapping.FieldMap.
type FieldMapper interface {
	Apply(headers, record []string) map[string]string
}

// Options tune the reader.
type Options struct {
	// StripAccountNumbers removes leading "NNN " account-number prefixes
	// from every segment of account-path fields.
	StripAccountNumbers bool
}

// Reader streams mapped records off a CSV export. It is not restartable.
type Reader struct {
	cr   *csv.Reader
	fm   FieldMapper
	opts Options

	headers []string
	line    int
}

// NewReader wraps r, consuming the header row immediately.
func NewReader(r io.Reader, fm FieldMapper, opts Options) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header row: %w", err)
	}

	return &Reader{cr: cr, fm: fm, opts: opts, headers: headers, line: 1}, nil
}

// Read returns the next mapped record, or io.EOF at end of stream. Raw rows
// the CSV layer cannot parse are skipped with a warning, never aborting the
// stream.
func (r *Reader) Read() (Record, error) {
	for {
		raw, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		r.line++
		if err != nil {
			slog.Warn("skipping unparseable export row", "line", r.line, "error", err)
			continue
		}

		fields := r.fm.Apply(r.headers, raw)
		if r.opts.StripAccountNumbers {
			for _, name := range []string{"account", "item"} {
				if v, ok := fields[name]; ok && v != SplitMarker {
					fields[name] = stripAccountNumbers(v)
				}
			}
		}

		return Record{Line: r.line, Fields: fields}, nil
	}
}

// stripAccountNumbers removes QuickBooks account-number prefixes from an
// account path: "1000 Checking:200 Sub" becomes "Checking:Sub".
func stripAccountNumbers(path string) string {
	return segmentNumber.ReplaceAllString(leadingNumber.ReplaceAllString(path, ""), ":")
}
