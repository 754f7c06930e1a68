// Package export flattens the registry into index files for consumers.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pendergraft/contract-metadata/internal/registry"
)

// ErrMalformedRecord is returned when a scanned record could not be decoded.
var ErrMalformedRecord = errors.New("registry contains malformed records")

// usable rejects scans that contain undecodable records; an index built
// around them would silently drop entries.
func usable(records []registry.Record) error {
	var bad []string
	for _, rec := range records {
		if rec.Err != nil {
			bad = append(bad, rec.ID.String())
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrMalformedRecord, strings.Join(bad, ", "))
	}
	return nil
}

// ContractMap builds the flat identifier to metadata mapping.
func ContractMap(records []registry.Record) (map[string]*registry.Metadata, error) {
	if err := usable(records); err != nil {
		return nil, err
	}
	out := make(map[string]*registry.Metadata, len(records))
	for _, rec := range records {
		out[rec.ID.String()] = rec.Metadata
	}
	return out, nil
}

// WriteContractMap encodes the contract map as indented JSON with sorted keys.
func WriteContractMap(w io.Writer, records []registry.Record) (int, error) {
	m, err := ContractMap(records)
	if err != nil {
		return 0, err
	}
	return len(m), writeJSON(w, m)
}

func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
