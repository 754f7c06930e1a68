package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pendergraft/contract-metadata/internal/caip"
)

// Metadata is the canonical metadata record. Field order here is the order
// written to disk.
type Metadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals *int   `json:"decimals,omitempty"`
	Logo     string `json:"logo"`
	ERC20    *bool  `json:"erc20,omitempty"`
	SPL      *bool  `json:"spl,omitempty"`
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Decimals != nil {
		d := *m.Decimals
		out.Decimals = &d
	}
	if m.ERC20 != nil {
		b := *m.ERC20
		out.ERC20 = &b
	}
	if m.SPL != nil {
		b := *m.SPL
		out.SPL = &b
	}
	return &out
}

// Marshal encodes m as indented JSON with a trailing newline.
func (m *Metadata) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadRaw returns the metadata file contents for id. A missing file is ErrNotFound.
func (l Layout) ReadRaw(id caip.AssetID) ([]byte, error) {
	p := l.Paths(id).MetadataPath
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// Exists reports whether a metadata file exists for id.
func (l Layout) Exists(id caip.AssetID) (bool, error) {
	_, err := os.Stat(l.Paths(id).MetadataPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking metadata: %w", err)
	}
	return true, nil
}

// Read loads and decodes the record for id. Content that is not a JSON
// object is ErrMalformed. Unknown keys are ignored here; use ReadRaw with
// validation.CheckMetadata to enforce the whitelist.
func (l Layout) Read(id caip.AssetID) (*Metadata, error) {
	data, err := l.ReadRaw(id)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a metadata document.
func Decode(data []byte) (*Metadata, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformed)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &m, nil
}

// Write stores m for id atomically: the record is written to a temporary
// file in the same directory and renamed into place.
func (l Layout) Write(id caip.AssetID, m *Metadata) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	p := l.Paths(id)
	if err := os.MkdirAll(p.MetadataDir, 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	return atomicWriteFile(p.MetadataPath, data, 0644)
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
